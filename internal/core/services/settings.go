package services

import (
	"fmt"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyCentralBaseURL = "central.base_url"
	keyCentralUser    = "central.username"
	keyCentralPass    = "central.password"
	keyCentralTimeout = "central.timeout_seconds"

	keyPacingDelay     = "sync.pacing_delay_seconds"
	keyNextReviewState = "sync.next_review_state"

	keySchedulerEnabled = "scheduler.enabled"
	keySyncInterval     = "scheduler.submission_sync_minutes"
	keyUpgradeInterval  = "scheduler.form_upgrade_minutes"

	keyLogLevel      = "log.level"
	keyLogFile       = "log.file"
	keyLogMaxSizeMB  = "log.max_size_mb"
	keyLogMaxBackups = "log.max_backups"
	keyLogMaxAgeDays = "log.max_age_days"
)

// SettingsService assembles typed settings from the config store and
// writes them back. Missing keys fall back to the defaults.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Central: domain.CentralSettings{
			BaseURL:  s.configStore.GetString(keyCentralBaseURL),
			Username: s.configStore.GetString(keyCentralUser),
			Password: s.configStore.GetString(keyCentralPass),
			Timeout:  s.getSeconds(keyCentralTimeout, defaults.Central.Timeout),
		},
		PacingDelay:     s.getSeconds(keyPacingDelay, defaults.PacingDelay),
		NextReviewState: defaults.NextReviewState,
		Scheduler:       defaults.Scheduler,
		Log: domain.LogSettings{
			Level:      s.getString(keyLogLevel, defaults.Log.Level),
			FilePath:   s.configStore.GetString(keyLogFile),
			MaxSizeMB:  s.getInt(keyLogMaxSizeMB, defaults.Log.MaxSizeMB),
			MaxBackups: s.getInt(keyLogMaxBackups, defaults.Log.MaxBackups),
			MaxAgeDays: s.getInt(keyLogMaxAgeDays, defaults.Log.MaxAgeDays),
		},
	}

	if state := s.configStore.GetString(keyNextReviewState); state != "" {
		settings.NextReviewState = domain.ReviewState(state)
	}

	if enabled, ok := s.configStore.Get(keySchedulerEnabled); ok {
		if b, ok := enabled.(bool); ok {
			settings.Scheduler.Enabled = b
		}
	}
	s.overrideInterval(&settings.Scheduler, domain.TaskIDSubmissionSync, keySyncInterval)
	s.overrideInterval(&settings.Scheduler, domain.TaskIDFormUpgrade, keyUpgradeInterval)

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := s.configStore.Set(keyCentralBaseURL, settings.Central.BaseURL); err != nil {
		return fmt.Errorf("save central base_url: %w", err)
	}
	if err := s.configStore.Set(keyCentralUser, settings.Central.Username); err != nil {
		return fmt.Errorf("save central username: %w", err)
	}
	if settings.Central.Password != "" {
		if err := s.configStore.Set(keyCentralPass, settings.Central.Password); err != nil {
			return fmt.Errorf("save central password: %w", err)
		}
	}
	if err := s.configStore.Set(keyCentralTimeout, int(settings.Central.Timeout.Seconds())); err != nil {
		return fmt.Errorf("save central timeout: %w", err)
	}

	if err := s.configStore.Set(keyPacingDelay, int(settings.PacingDelay.Seconds())); err != nil {
		return fmt.Errorf("save pacing delay: %w", err)
	}
	if err := s.configStore.Set(keyNextReviewState, string(settings.NextReviewState)); err != nil {
		return fmt.Errorf("save next review state: %w", err)
	}

	if err := s.configStore.Set(keySchedulerEnabled, settings.Scheduler.Enabled); err != nil {
		return fmt.Errorf("save scheduler enabled: %w", err)
	}
	syncCfg := settings.Scheduler.GetTaskConfig(domain.TaskIDSubmissionSync)
	if err := s.configStore.Set(keySyncInterval, int(syncCfg.Interval.Minutes())); err != nil {
		return fmt.Errorf("save submission sync interval: %w", err)
	}
	upgradeCfg := settings.Scheduler.GetTaskConfig(domain.TaskIDFormUpgrade)
	if err := s.configStore.Set(keyUpgradeInterval, int(upgradeCfg.Interval.Minutes())); err != nil {
		return fmt.Errorf("save form upgrade interval: %w", err)
	}

	if err := s.configStore.Set(keyLogLevel, settings.Log.Level); err != nil {
		return fmt.Errorf("save log level: %w", err)
	}
	if settings.Log.FilePath != "" {
		if err := s.configStore.Set(keyLogFile, settings.Log.FilePath); err != nil {
			return fmt.Errorf("save log file: %w", err)
		}
	}

	return nil
}

// getString returns the stored string or the fallback.
func (s *SettingsService) getString(key, fallback string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

// getInt returns the stored int or the fallback.
func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return fallback
}

// getSeconds reads an integer seconds value as a duration.
func (s *SettingsService) getSeconds(key string, fallback time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); ok {
		return time.Duration(s.configStore.GetInt(key)) * time.Second
	}
	return fallback
}

// overrideInterval applies a configured minutes value to one task config.
func (s *SettingsService) overrideInterval(cfg *domain.SchedulerConfig, taskID, key string) {
	if _, ok := s.configStore.Get(key); !ok {
		return
	}
	minutes := s.configStore.GetInt(key)
	if minutes <= 0 {
		return
	}
	task := cfg.GetTaskConfig(taskID)
	task.Interval = time.Duration(minutes) * time.Minute
	cfg.TaskConfigs[taskID] = task
}
