// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Backend    BackendConfig    `mapstructure:"backend"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Dictation  DictationConfig  `mapstructure:"dictation"`
	Security   SecurityConfig   `mapstructure:"security"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	TLS  struct {
		Enabled  bool   `mapstructure:"enabled"`
		CertFile string `mapstructure:"cert_file"`
		KeyFile  string `mapstructure:"key_file"`
	} `mapstructure:"tls"`
	StaticDir      string   `mapstructure:"static_dir"`      // Built SPA served at /, optional
	AllowedOrigins []string `mapstructure:"allowed_origins"` // CORS origins
}

// BackendConfig selects where memories and accounts live
type BackendConfig struct {
	Type        string `mapstructure:"type"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// SupabaseConfig holds the hosted project coordinates
type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

// LLMConfig holds nickname model settings
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// GenerationConfig tunes the waiting phase
type GenerationConfig struct {
	StatusIntervalMS int    `mapstructure:"status_interval_ms"`
	DefaultStyle     string `mapstructure:"default_style"`
}

// DictationConfig tunes voice input
type DictationConfig struct {
	StartTimeoutMS int `mapstructure:"start_timeout_ms"`
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	TokenTTL        int `mapstructure:"token_ttl_hours"`
	CleanupInterval int `mapstructure:"cleanup_interval_minutes"` // Expired token sweep
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Backend types
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// ValidBackends returns all valid backend values
func ValidBackends() []string {
	return []string{
		BackendSupabase,
		BackendSQLite,
		BackendPostgres,
		BackendMemory,
		BackendNone,
	}
}

// LLM providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ValidProviders returns all valid LLM provider values
func ValidProviders() []string {
	return []string{ProviderAnthropic, ProviderOpenAI}
}

// isValidType is a generic helper to check if a type is in a list of valid types
func isValidType(aType string, validTypes []string) bool {
	for _, valid := range validTypes {
		if aType == valid {
			return true
		}
	}
	return false
}

// IsValidBackend checks if a backend type is valid
func IsValidBackend(backend string) bool {
	return isValidType(backend, ValidBackends())
}

// IsValidProvider checks if an LLM provider is valid
func IsValidProvider(provider string) bool {
	return isValidType(provider, ValidProviders())
}
