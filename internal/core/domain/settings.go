package domain

import "time"

// Settings holds the typed application configuration assembled from the
// config store.
type Settings struct {
	// Central configures the remote form service connection.
	Central CentralSettings

	// PacingDelay is the cooperative inter-form delay during a sweep,
	// bounding the remote request rate. Not a correctness requirement.
	PacingDelay time.Duration

	// NextReviewState is the review state set on submissions after
	// successful persistence.
	NextReviewState ReviewState

	// Scheduler configures the recurring sweeps.
	Scheduler SchedulerConfig

	// Log configures the operational log.
	Log LogSettings
}

// CentralSettings holds the remote service connection parameters.
type CentralSettings struct {
	// BaseURL is the service root, e.g. "https://central.example.org".
	BaseURL string

	// Username and Password authenticate the session-token handshake.
	Username string
	Password string

	// Timeout bounds each remote request. Expiry surfaces as
	// ErrRemoteUnavailable.
	Timeout time.Duration
}

// LogSettings configures the operational log output.
type LogSettings struct {
	// Level is the minimum level emitted (debug, info, warn, error).
	Level string

	// FilePath enables rotated file output when non-empty.
	FilePath string

	// MaxSizeMB, MaxBackups and MaxAgeDays bound the rotated files.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultSettings returns the settings used when the config store has no
// explicit values.
func DefaultSettings() Settings {
	return Settings{
		Central: CentralSettings{
			Timeout: 30 * time.Second,
		},
		PacingDelay:     2 * time.Second,
		NextReviewState: ReviewStateApproved,
		Scheduler:       DefaultSchedulerConfig(),
		Log: LogSettings{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Validate checks that the settings are usable for remote sweeps.
func (s *Settings) Validate() error {
	if s.Central.BaseURL == "" || s.Central.Username == "" {
		return ErrInvalidInput
	}
	if s.NextReviewState == "" || !s.NextReviewState.Closed() {
		// Advancing to an open state would make ingestion re-fetch the
		// same submissions forever.
		return ErrInvalidInput
	}
	return nil
}
