package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [registration-id]",
	Short: "Pull pending submissions from the Central server",
	Long: `Runs the synchronize sweep: for each registered form, fetches the
submissions still in an open review state, persists them locally and
advances their review state on the server.
If a registration ID is provided, only that form is synchronized.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if dispatcher == nil {
		return errors.New("sync service not configured")
	}
	if err := requireRemoteSettings(); err != nil {
		return err
	}

	ctx := context.Background()

	if len(args) > 0 {
		return syncOne(ctx, cmd, args[0])
	}

	cmd.Println("Synchronizing all registered forms...")

	report, err := dispatcher.Sweep(ctx, domain.IntentSynchronize)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSweepReport(cmd, report)
	return nil
}

// syncOne dispatches the synchronize pipeline for a single registration.
func syncOne(ctx context.Context, cmd *cobra.Command, id string) error {
	form, err := formStore.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("registration %s: %w", id, err)
	}

	cmd.Printf("Synchronizing form %s...\n", form.FormID)
	if err := dispatcher.Dispatch(ctx, domain.IntentSynchronize, form); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Form %s synchronized.\n", form.FormID)
	return nil
}

// printSweepReport summarises a sweep on the command output.
func printSweepReport(cmd *cobra.Command, report *domain.SweepReport) {
	cmd.Printf("Processed %d forms (%d skipped, %d failed) in %s.\n",
		report.Processed, len(report.SkippedForms), len(report.Failures),
		report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for id, err := range report.Failures {
		cmd.Printf("  %s: %v\n", id, err)
	}
}
