package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/fieldwork-labs/centralsync/internal/adapters/driven/config/file"
	"github.com/fieldwork-labs/centralsync/internal/adapters/driven/storage/sqlite"
	"github.com/fieldwork-labs/centralsync/internal/central"
	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driving"
	"github.com/fieldwork-labs/centralsync/internal/core/services"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Root flags.
var (
	configDir string
	dataDir   string
	verbose   bool
)

// Services wired during initialisation. Tests substitute these directly.
var (
	configStore     driven.ConfigStore
	settingsService *services.SettingsService
	settings        *domain.Settings
	store           *sqlite.Store
	formStore       driven.FormStore
	publisher       driving.Publisher
	dispatcher      driving.SyncDispatcher
	scheduler       *services.Scheduler
	formService     driven.FormService
)

var rootCmd = &cobra.Command{
	Use:   "centralsync",
	Short: "Bidirectional sync between a Central form server and the local store",
	Long: `centralsync keeps field-survey forms and their submissions in sync.

The upgrade direction republishes forms with fresh reference data
(taxa, observers, nomenclatures) exported from the local store.
The synchronize direction pulls pending submissions, persists them
locally and advances their review state on the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Skip wiring for commands that don't need services
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.centralsync)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"data directory (default ~/.centralsync/data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices builds the full service graph. Idempotent: tests that
// pre-wire a dispatcher keep their wiring.
func initServices() error {
	if dispatcher != nil {
		return nil
	}

	var err error
	configStore, err = configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService = services.NewSettingsService(configStore)
	settings, err = settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	logCfg := logger.Config{
		Level:      settings.Log.Level,
		FilePath:   settings.Log.FilePath,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAgeDays: settings.Log.MaxAgeDays,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}

	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening data store: %w", err)
	}
	formStore = store.FormStore()

	formService = central.NewClient(settings.Central)

	exporter := services.NewExporter(store.ReferenceStore())
	publisher = services.NewPublishPipeline(formService, exporter)
	ingester := services.NewIngestPipeline(
		formService, store.RecordStore(), nil,
		central.OpenSubmissionsFilter, settings.NextReviewState,
	)

	dispatcher = services.NewDispatcher(formStore, publisher, ingester, settings.PacingDelay)
	scheduler = services.NewScheduler(settings.Scheduler, store.SchedulerStore(), dispatcher)

	return nil
}

// closeServices releases held resources.
func closeServices() {
	if store != nil {
		store.Close() //nolint:errcheck
	}
}

// requireRemoteSettings fails early when the remote connection is not
// configured, before any sweep starts.
func requireRemoteSettings() error {
	if settings == nil {
		return fmt.Errorf("settings not loaded: %w", domain.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("set central.base_url and central.username in %s: %w",
			configStore.Path(), err)
	}
	return nil
}
