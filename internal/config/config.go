// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tejzpr/sweety-vault/internal/logging"
	"github.com/tejzpr/sweety-vault/internal/nickname"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".sweety/configs"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.json"
	// DefaultDBFile is the sqlite database path relative to the home directory
	DefaultDBFile = ".sweety/db/sweety.db"
)

// Load reads configuration from ~/.sweety/configs/config.json
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(configPath)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return loadFromDefaults(v)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromPath loads configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("backend.type", d.Backend.Type)
	v.SetDefault("backend.sqlite_path", d.Backend.SQLitePath)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)

	v.SetDefault("generation.status_interval_ms", d.Generation.StatusIntervalMS)
	v.SetDefault("generation.default_style", d.Generation.DefaultStyle)
	v.SetDefault("dictation.start_timeout_ms", d.Dictation.StartTimeoutMS)

	v.SetDefault("security.token_ttl_hours", d.Security.TokenTTL)
	v.SetDefault("security.cleanup_interval_minutes", d.Security.CleanupInterval)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadFromDefaults creates a config from default values
func loadFromDefaults(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid. It is exported so callers
// can re-check after applying environment and flag overrides.
func Validate(cfg *Config) error {
	cfg.Backend.Type = strings.ToLower(strings.TrimSpace(cfg.Backend.Type))
	if !IsValidBackend(cfg.Backend.Type) {
		return fmt.Errorf("backend.type must be one of %s, got '%s'",
			strings.Join(ValidBackends(), ", "), cfg.Backend.Type)
	}

	switch cfg.Backend.Type {
	case BackendSQLite:
		if cfg.Backend.SQLitePath == "" {
			return fmt.Errorf("backend.sqlite_path is required when type is 'sqlite'")
		}
	case BackendPostgres:
		if cfg.Backend.PostgresDSN == "" {
			return fmt.Errorf("backend.postgres_dsn is required when type is 'postgres'")
		}
	case BackendSupabase:
		if cfg.Supabase.URL == "" || cfg.Supabase.AnonKey == "" {
			return fmt.Errorf("supabase.url and supabase.anon_key are required when type is 'supabase'")
		}
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderAnthropic
	}
	if !IsValidProvider(cfg.LLM.Provider) {
		return fmt.Errorf("llm.provider must be 'anthropic' or 'openai', got '%s'", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative, got %d", cfg.LLM.MaxTokens)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file are required when tls is enabled")
	}

	if cfg.Generation.StatusIntervalMS < 1 {
		return fmt.Errorf("generation.status_interval_ms must be at least 1, got %d", cfg.Generation.StatusIntervalMS)
	}
	styles := nickname.DefaultStyles()
	if cfg.Generation.DefaultStyle == "" {
		cfg.Generation.DefaultStyle = string(styles.Default())
	}
	style := strings.ToLower(strings.TrimSpace(cfg.Generation.DefaultStyle))
	if string(styles.Resolve(style)) != style {
		return fmt.Errorf("generation.default_style is not a known style: '%s'", cfg.Generation.DefaultStyle)
	}
	cfg.Generation.DefaultStyle = style
	if cfg.Dictation.StartTimeoutMS < 1 {
		return fmt.Errorf("dictation.start_timeout_ms must be at least 1, got %d", cfg.Dictation.StartTimeoutMS)
	}

	if cfg.Security.TokenTTL < 1 {
		return fmt.Errorf("security.token_ttl_hours must be at least 1, got %d", cfg.Security.TokenTTL)
	}
	if cfg.Security.CleanupInterval < 1 {
		return fmt.Errorf("security.cleanup_interval_minutes must be at least 1, got %d", cfg.Security.CleanupInterval)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	cfg := &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Backend: BackendConfig{
			Type:       BackendSQLite,
			SQLitePath: filepath.Join(homeDir, DefaultDBFile),
		},
		LLM: LLMConfig{
			Provider:       ProviderAnthropic,
			MaxTokens:      1024,
			TimeoutSeconds: 30,
		},
		Generation: GenerationConfig{
			StatusIntervalMS: 1800,
			DefaultStyle:     string(nickname.DefaultStyles().Default()),
		},
		Dictation: DictationConfig{
			StartTimeoutMS: 4000,
		},
		Security: SecurityConfig{
			TokenTTL:        24,
			CleanupInterval: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
	return cfg
}
