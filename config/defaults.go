package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "bms.db")

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})

	// Scheduler defaults
	v.SetDefault("scheduler.tick_interval_seconds", 3600) // hourly, matches the finest supported frequency
	v.SetDefault("scheduler.startup_delay_seconds", 10)
	v.SetDefault("scheduler.item_cooldown_seconds", 2) // polite delay between provider calls
	v.SetDefault("scheduler.batch_limit", 50)

	// Provider defaults
	v.SetDefault("providers.timeout_seconds", 15)
	v.SetDefault("providers.max_results", 10)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("server.jwt_secret", "BMS_SERVER_JWT_SECRET")
	v.BindEnv("providers.google.api_key", "BMS_PROVIDERS_GOOGLE_API_KEY")
	v.BindEnv("providers.google.cse_id", "BMS_PROVIDERS_GOOGLE_CSE_ID")
	v.BindEnv("providers.bing.api_key", "BMS_PROVIDERS_BING_API_KEY")
}
