// Package config holds the BMS runtime configuration, loaded with Viper
// from TOML files and BMS_-prefixed environment variables.
package config

// Config represents the core BMS configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the BMS management API server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // nil = default 8500, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// Server port constants
const (
	DefaultServerPort = 8500
)

// SchedulerConfig configures the recurring-search scheduler loop
type SchedulerConfig struct {
	TickIntervalSeconds int `mapstructure:"tick_interval_seconds"` // How often to check for due searches (default: 3600)
	StartupDelaySeconds int `mapstructure:"startup_delay_seconds"` // Delay before the initial pass on process start (default: 10)
	ItemCooldownSeconds int `mapstructure:"item_cooldown_seconds"` // Cooldown between consecutive items in a batch (default: 2)
	BatchLimit          int `mapstructure:"batch_limit"`           // Max due searches per tick (default: 50)
}

// ProvidersConfig configures the external search providers
type ProvidersConfig struct {
	Google         GoogleConfig `mapstructure:"google"`
	Bing           BingConfig   `mapstructure:"bing"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds"` // Per-provider call timeout (default: 15)
	MaxResults     int          `mapstructure:"max_results"`     // Max results kept per search (default: 10)
}

// GoogleConfig configures the Google Custom Search JSON API
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
	CSEID  string `mapstructure:"cse_id"`
}

// BingConfig configures the Bing Web Search API
type BingConfig struct {
	APIKey string `mapstructure:"api_key"`
}
