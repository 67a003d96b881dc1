// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors are wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database file. Empty selects the
	// in-memory store (state is lost on restart).
	DBPath string `koanf:"db_path"`

	// DefaultEventKey is the storage partition used when a request does
	// not carry an event_key parameter.
	DefaultEventKey string `koanf:"default_event_key"`

	// APIKeys lists credentials accepted by the sync endpoints. An empty
	// list disables authentication, which is only sensible for local
	// development.
	APIKeys []string `koanf:"api_keys"`

	// MaxBodyBytes caps the size of an update request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		DBPath:          "",
		DefaultEventKey: "practice",
		APIKeys:         nil,
		MaxBodyBytes:    1 << 20,
	}
}
