package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fieldwork-labs/centralsync/internal/core/services"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the recurring sweeps until interrupted",
	Long: `Starts the scheduler: the synchronize sweep runs on its configured
cadence (hourly by default) and the upgrade sweep on its own (daily by
default). Task state survives restarts.
The configuration file is watched; log level and pacing changes apply
without a restart.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if err := requireRemoteSettings(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload config on file change
	watcher, err := watchConfig(ctx)
	if err != nil {
		logger.Warn("config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		logger.Info("received %s, shutting down", sig)
		cancel()
	}()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	err = scheduler.Start(ctx)
	stopErr := scheduler.Stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return stopErr
}

// watchConfig reloads settings whenever the config file changes and
// applies the hot-reloadable parts: log level and pacing delay.
func watchConfig(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace the file, which would drop a
	// watch on the path itself.
	if err := watcher.Add(filepath.Dir(configStore.Path())); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != configStore.Path() {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				applyConfigChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch: %v", err)
			}
		}
	}()

	return watcher, nil
}

// applyConfigChange re-reads the config file and applies what can change
// at runtime.
func applyConfigChange() {
	if err := configStore.Load(); err != nil {
		logger.Warn("reloading config: %v", err)
		return
	}

	reloaded, err := settingsService.Get()
	if err != nil {
		logger.Warn("re-reading settings: %v", err)
		return
	}

	if reloaded.Log.Level != settings.Log.Level {
		logger.Info("log level changed to %s", reloaded.Log.Level)
		logger.SetLevel(reloaded.Log.Level)
	}
	if reloaded.PacingDelay != settings.PacingDelay {
		logger.Info("pacing delay changed to %s", reloaded.PacingDelay)
		if d, ok := dispatcher.(*services.Dispatcher); ok {
			d.SetPacing(reloaded.PacingDelay)
		}
	}

	settings = reloaded
}
