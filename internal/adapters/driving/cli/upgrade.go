package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

var upgradeSkip domain.SkipFlags

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [registration-id]",
	Short: "Republish forms with fresh reference data",
	Long: `Runs the upgrade sweep: for each registered form, exports the
reference datasets (taxa, observers, organizations, nomenclatures),
uploads them to a new draft and publishes a new form version.
If a registration ID is provided, only that form is upgraded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().BoolVar(&upgradeSkip.Taxa, "skip-taxa", false,
		"do not regenerate the taxon attachment")
	upgradeCmd.Flags().BoolVar(&upgradeSkip.Observers, "skip-observers", false,
		"do not regenerate the observer attachment")
	upgradeCmd.Flags().BoolVar(&upgradeSkip.Organizations, "skip-organizations", false,
		"do not regenerate the organization attachment")
	upgradeCmd.Flags().BoolVar(&upgradeSkip.Nomenclatures, "skip-nomenclatures", false,
		"do not regenerate the nomenclature attachment")
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	if dispatcher == nil {
		return errors.New("upgrade service not configured")
	}
	if err := requireRemoteSettings(); err != nil {
		return err
	}

	ctx := context.Background()

	if len(args) > 0 {
		return upgradeOne(ctx, cmd, args[0])
	}

	cmd.Println("Upgrading all registered forms...")

	report, err := dispatcher.Sweep(ctx, domain.IntentUpgrade)
	if err != nil {
		return fmt.Errorf("upgrade failed: %w", err)
	}

	printSweepReport(cmd, report)
	return nil
}

// upgradeOne runs the publish pipeline for a single registration,
// honouring the skip flags.
func upgradeOne(ctx context.Context, cmd *cobra.Command, id string) error {
	if publisher == nil {
		return errors.New("upgrade service not configured")
	}

	form, err := formStore.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("registration %s: %w", id, err)
	}

	cmd.Printf("Upgrading form %s...\n", form.FormID)
	report := publisher.Publish(ctx, form, upgradeSkip)
	if report.Err != nil {
		return fmt.Errorf("upgrade failed: %w", report.Err)
	}

	cmd.Printf("Form %s published as version %s (%d attachments, %d rejected).\n",
		form.FormID, report.Version, len(report.Attachments), report.Rejected())
	return nil
}
