package driven

// ConfigStore provides access to the persisted application configuration.
// Keys use dot notation ("central.base_url"); implementations handle the
// file format and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key. The boolean reports
	// whether the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty when the key is missing
	// or holds another type.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when the key is missing or
	// holds another type.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when the key is missing
	// or holds another type.
	GetBool(key string) bool

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage, replacing in-memory state.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
