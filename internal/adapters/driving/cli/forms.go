package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/services"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Manage the form registry",
	Long:  `Lists, adds and removes the form registrations the sweeps operate on.`,
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered forms",
	RunE:  runFormsList,
}

var addForm struct {
	moduleCode     string
	monitoring     bool
	projectID      string
	formID         string
	syncCommand    string
	upgradeCommand string
	taxonListID    int
	observerMenuID int
}

var formsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a form",
	Long: `Registers a remote form for sweeping. The command names declare
which pipelines the form takes part in; a form with no synchronize
command is skipped by the synchronize sweep, likewise for upgrade.`,
	RunE: runFormsAdd,
}

var formsRemoveCmd = &cobra.Command{
	Use:   "remove <registration-id>",
	Short: "Remove a registration",
	Args:  cobra.ExactArgs(1),
	RunE:  runFormsRemove,
}

func init() {
	formsAddCmd.Flags().StringVar(&addForm.moduleCode, "module", "",
		"monitoring module code (e.g. STOM)")
	formsAddCmd.Flags().BoolVar(&addForm.monitoring, "monitoring", true,
		"form belongs to a monitoring module")
	formsAddCmd.Flags().StringVar(&addForm.projectID, "project", "",
		"remote project identifier (required)")
	formsAddCmd.Flags().StringVar(&addForm.formID, "form", "",
		"remote form identifier (required)")
	formsAddCmd.Flags().StringVar(&addForm.syncCommand, "sync-command",
		services.CmdSynchronizeMonitoring, "synchronize command name, empty to opt out")
	formsAddCmd.Flags().StringVar(&addForm.upgradeCommand, "upgrade-command",
		services.CmdUpgradeMonitoring, "upgrade command name, empty to opt out")
	formsAddCmd.Flags().IntVar(&addForm.taxonListID, "taxon-list", 0,
		"taxon list exported to the form")
	formsAddCmd.Flags().IntVar(&addForm.observerMenuID, "observer-menu", 0,
		"observer roster exported to the form")

	formsCmd.AddCommand(formsListCmd)
	formsCmd.AddCommand(formsAddCmd)
	formsCmd.AddCommand(formsRemoveCmd)
	rootCmd.AddCommand(formsCmd)
}

func runFormsList(cmd *cobra.Command, _ []string) error {
	if formStore == nil {
		return errors.New("form store not configured")
	}

	forms, err := formStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing forms: %w", err)
	}

	if len(forms) == 0 {
		cmd.Println("No forms registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODULE\tPROJECT\tFORM\tSYNC\tUPGRADE")
	for _, f := range forms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.ModuleCode, f.ProjectID, f.FormID,
			f.SynchronizeCommand, f.UpgradeCommand)
	}
	return w.Flush()
}

func runFormsAdd(cmd *cobra.Command, _ []string) error {
	if formStore == nil {
		return errors.New("form store not configured")
	}

	moduleType := domain.ModuleTypeGeneric
	if addForm.monitoring {
		moduleType = domain.ModuleTypeMonitoring
	}

	form := domain.RegisteredForm{
		ID:                 uuid.NewString(),
		ModuleCode:         addForm.moduleCode,
		ModuleType:         moduleType,
		ProjectID:          addForm.projectID,
		FormID:             addForm.formID,
		SynchronizeCommand: addForm.syncCommand,
		UpgradeCommand:     addForm.upgradeCommand,
		TaxonListID:        addForm.taxonListID,
		ObserverMenuID:     addForm.observerMenuID,
	}
	if err := form.Validate(); err != nil {
		return fmt.Errorf("--project and --form are required: %w", err)
	}

	if err := formStore.Save(context.Background(), form); err != nil {
		return fmt.Errorf("saving registration: %w", err)
	}

	cmd.Printf("Registered form %s as %s.\n", form.FormID, form.ID)
	return nil
}

func runFormsRemove(cmd *cobra.Command, args []string) error {
	if formStore == nil {
		return errors.New("form store not configured")
	}

	id := args[0]
	if _, err := formStore.Get(context.Background(), id); err != nil {
		return fmt.Errorf("registration %s: %w", id, err)
	}

	if err := formStore.Delete(context.Background(), id); err != nil {
		return fmt.Errorf("removing registration: %w", err)
	}

	cmd.Printf("Removed registration %s.\n", id)
	return nil
}
