// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/config"
	"github.com/tejzpr/sweety-vault/internal/controller"
	"github.com/tejzpr/sweety-vault/internal/database"
	"github.com/tejzpr/sweety-vault/internal/logging"
	"github.com/tejzpr/sweety-vault/internal/metrics"
	"github.com/tejzpr/sweety-vault/internal/nickname"
	"github.com/tejzpr/sweety-vault/internal/server"
	"github.com/tejzpr/sweety-vault/internal/supabase"
	"github.com/tejzpr/sweety-vault/internal/tools"
	"github.com/tejzpr/sweety-vault/internal/vault"
	"github.com/tejzpr/sweety-vault/internal/workspace"
	"github.com/tejzpr/sweety-vault/pkg/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Version is set at build time via ldflags (e.g. goreleaser -X main.Version={{.Version}}).
var Version string

// backends bundles what the selected backend type provides.
type backends struct {
	vault    vault.Backend
	provider auth.Provider
	db       *gorm.DB
	tokens   *auth.TokenManager
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	httpMode := flag.Bool("http", false, "Run in HTTP server mode (default: stdio for MCP)")
	withAccessingUser := flag.Bool("with-accessinguser", false, "Use ACCESSING_USER env var for user identity (stdio mode only)")
	backendType := flag.String("backend", "", "Vault backend (supabase, sqlite, postgres, memory or none)")
	dbPath := flag.String("db-path", "", "Database path (for sqlite)")
	dbDSN := flag.String("db-dsn", "", "Database DSN (for postgres)")
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Server port (HTTP mode only)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Sweety memory vault\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Server Mode:\n")
		fmt.Fprintf(os.Stderr, "  %s                          Start MCP server (stdio) as the system user (whoami)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --with-accessinguser     Start MCP server (stdio) as ACCESSING_USER\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --http                   Start the HTTP API, event stream and MCP endpoint\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  BACKEND_TYPE       Vault backend type\n")
		fmt.Fprintf(os.Stderr, "  DB_PATH            SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  DB_DSN             PostgreSQL connection string\n")
		fmt.Fprintf(os.Stderr, "  SUPABASE_URL       Supabase project URL (or VITE_SUPABASE_URL)\n")
		fmt.Fprintf(os.Stderr, "  SUPABASE_ANON_KEY  Supabase anon key (or VITE_SUPABASE_ANON_KEY)\n")
		fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY  Anthropic API key (or VITE_ANTHROPIC_API_KEY)\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     OpenAI API key when llm.provider is openai\n")
		fmt.Fprintf(os.Stderr, "  SWEETY_EMAIL       Account email for stdio mode on supabase\n")
		fmt.Fprintf(os.Stderr, "  SWEETY_PASSWORD    Account password for stdio mode on supabase\n")
		fmt.Fprintf(os.Stderr, "  PORT               Server port (HTTP mode only)\n")
		fmt.Fprintf(os.Stderr, "  LOG_LEVEL          debug, info, warn or error\n")
		fmt.Fprintf(os.Stderr, "  ACCESSING_USER     Username (required with --with-accessinguser)\n")
	}

	flag.Parse()

	if *withAccessingUser && *httpMode {
		fmt.Fprintln(os.Stderr, "ERROR: --with-accessinguser can only be used with stdio mode (not --http)")
		os.Exit(2)
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, loadErr := loadConfig(*configPath)
	envVars := applyEnvOverrides(cfg)
	applyCLIOverrides(cfg, *backendType, *dbPath, *dbDSN, *port)

	// CRITICAL: MCP servers must ONLY output JSON-RPC to stdout, so the
	// logger writes to stderr.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if loadErr != nil {
		logger.Warn("failed to load config, using defaults", zap.Error(loadErr))
	}
	if len(envVars) > 0 {
		logger.Info("configuration overridden from environment", zap.Strings("vars", envVars))
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("starting sweety",
		zap.String("version", Version),
		zap.String("backend", cfg.Backend.Type),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("http", *httpMode),
	)

	b, err := openBackends(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", zap.Error(err))
	}
	defer b.close()

	var collector *metrics.Collector
	if *httpMode {
		collector = metrics.NewCollector("sweety")
	}
	completer := newCompleter(cfg.LLM, logger)
	registry := newRegistry(cfg, completer, b.vault, collector, logger)
	defer registry.Close()

	if *httpMode {
		runHTTPMode(cfg, b, registry, collector, logger)
		return
	}
	runStdioMode(b, registry, *withAccessingUser, logger)
}

// loadConfig reads the config file, falling back to defaults on failure.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.DefaultConfig(), err
	}
	return cfg, nil
}

// openBackends connects the vault backend and the matching auth provider.
func openBackends(cfg *config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.Backend.Type {
	case config.BackendSQLite, config.BackendPostgres:
		if err := b.openLocal(cfg.Backend.Type, cfg.Backend.SQLitePath, cfg.Backend.PostgresDSN, cfg.Security.TokenTTL); err != nil {
			return nil, err
		}
		b.vault = database.NewVaultBackend(b.db)
		logger.Info("connected to database", zap.String("type", cfg.Backend.Type))

	case config.BackendMemory:
		// Records live in memory; accounts go to a throwaway SQLite file.
		dir, err := os.MkdirTemp("", "sweety-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		b.closers = append(b.closers, func() { _ = os.RemoveAll(dir) })
		if err := b.openLocal(database.TypeSQLite, filepath.Join(dir, "accounts.db"), "", cfg.Security.TokenTTL); err != nil {
			b.close()
			return nil, err
		}
		b.vault = vault.NewMemoryBackend()
		logger.Warn("using in-memory vault; saved nicknames are lost on exit")

	case config.BackendSupabase:
		client, err := supabase.New(supabase.Config{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.vault = supabase.NewVaultBackend(client)
		b.provider = supabase.NewAuthProvider(client)
		logger.Info("using supabase backend", zap.String("url", cfg.Supabase.URL))

	case config.BackendNone:
		b.provider = auth.DisabledProvider{}
		logger.Warn("no vault backend configured; saving and sign-in are disabled")
	}

	return b, nil
}

func (b *backends) openLocal(dbType, sqlitePath, dsn string, ttlHours int) error {
	db, err := database.Open(&database.Config{
		Type:        dbType,
		SQLitePath:  sqlitePath,
		PostgresDSN: dsn,
		LogLevel:    gormlogger.Silent, // CRITICAL: Silence GORM stdout output for MCP
	})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() { _ = database.Close(db) })
	b.db = db
	b.tokens = auth.NewTokenManager(db, ttlHours)
	b.provider = auth.NewLocalProvider(db, b.tokens)
	return nil
}

// newCompleter builds the configured LLM client. Without an API key every
// generation uses the fallback set.
func newCompleter(cfg config.LLMConfig, logger *zap.Logger) nickname.Completer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var c nickname.Completer
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c = nickname.NewOpenAICompleter(nickname.OpenAIConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			BaseURL:   cfg.BaseURL,
			Timeout:   timeout,
		})
	default:
		c = nickname.NewAnthropicCompleter(nickname.AnthropicConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
			BaseURL:   cfg.BaseURL,
			Timeout:   timeout,
		})
	}

	if _, ok := c.(nickname.Unconfigured); ok {
		logger.Warn("no LLM API key configured; nicknames will come from the standard fallback set",
			zap.String("provider", cfg.Provider))
		return c
	}
	return nickname.NewBreakerCompleter(c, nickname.DefaultBreakerConfig(), logger)
}

func newRegistry(cfg *config.Config, completer nickname.Completer, backend vault.Backend, collector *metrics.Collector, logger *zap.Logger) *workspace.Registry {
	genOpts := []nickname.Option{nickname.WithLogger(logger)}
	storeOpts := []vault.StoreOption{vault.WithLogger(logger)}
	if collector != nil {
		genOpts = append(genOpts, nickname.WithRecorder(collector))
		storeOpts = append(storeOpts, vault.WithRecorder(collector))
	}

	return workspace.NewRegistry(completer, backend,
		workspace.WithLogger(logger),
		workspace.WithGeneratorOptions(genOpts...),
		workspace.WithStoreOptions(storeOpts...),
		workspace.WithControllerOptions(
			controller.WithLogger(logger),
			controller.WithConfig(controller.Config{
				StatusInterval:   time.Duration(cfg.Generation.StatusIntervalMS) * time.Millisecond,
				DictationTimeout: time.Duration(cfg.Dictation.StartTimeoutMS) * time.Millisecond,
				DefaultStyle:     nickname.Style(cfg.Generation.DefaultStyle),
			}),
		),
	)
}

// applyEnvOverrides applies environment variable overrides to configuration
// and returns the names of the variables that were used.
func applyEnvOverrides(cfg *config.Config) []string {
	var used []string
	set := func(dst *string, names ...string) {
		if name, val := lookupEnv(names...); val != "" {
			*dst = val
			used = append(used, name)
		}
	}

	set(&cfg.Backend.Type, "BACKEND_TYPE")
	set(&cfg.Backend.SQLitePath, "DB_PATH")
	set(&cfg.Backend.PostgresDSN, "DB_DSN")
	set(&cfg.Supabase.URL, "SUPABASE_URL", "VITE_SUPABASE_URL")
	set(&cfg.Supabase.AnonKey, "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY")
	set(&cfg.Log.Level, "LOG_LEVEL")

	if cfg.LLM.Provider == config.ProviderOpenAI {
		set(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	} else {
		set(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY", "VITE_ANTHROPIC_API_KEY")
	}

	if name, portStr := lookupEnv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
			used = append(used, name)
		}
	}

	return used
}

// applyCLIOverrides applies command-line flag overrides to configuration
func applyCLIOverrides(cfg *config.Config, backendType, dbPath, dbDSN string, port int) {
	if backendType != "" {
		cfg.Backend.Type = backendType
	}
	if dbPath != "" {
		cfg.Backend.SQLitePath = dbPath
	}
	if dbDSN != "" {
		cfg.Backend.PostgresDSN = dbDSN
	}
	if port > 0 {
		cfg.Server.Port = port
	}
}

// lookupEnv tries multiple environment variable names and returns the first
// non-empty one.
func lookupEnv(names ...string) (string, string) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return name, val
		}
	}
	return "", ""
}

// runStdioMode serves the MCP tools over stdio as a single user.
func runStdioMode(b *backends, registry *workspace.Registry, useAccessingUser bool, logger *zap.Logger) {
	session, err := stdioSession(b, useAccessingUser)
	if err != nil {
		logger.Fatal("failed to authenticate user", zap.Error(err))
	}
	logger.Info("user authenticated", zap.String("user_id", session.UserID), zap.String("email", session.Email))

	mcpServer := server.NewMCPServer(Version, tools.NewToolContext(registry, session))
	logger.Info("MCP server ready (stdio mode)")
	if err := mcpServer.ServeStdio(); err != nil {
		logger.Fatal("MCP server error", zap.Error(err))
	}
}

// stdioSession resolves the identity used for stdio mode.
func stdioSession(b *backends, useAccessingUser bool) (*auth.Session, error) {
	if b.db != nil {
		var localAuth *auth.LocalAuthenticator
		if useAccessingUser {
			localAuth = auth.NewLocalAuthenticatorWithAccessingUser(b.tokens)
		} else {
			localAuth = auth.NewLocalAuthenticator(b.tokens)
		}
		return localAuth.Authenticate(b.db)
	}

	if _, ok := b.provider.(*supabase.AuthProvider); ok {
		_, email := lookupEnv("SWEETY_EMAIL")
		_, password := lookupEnv("SWEETY_PASSWORD")
		if email == "" || password == "" {
			return nil, fmt.Errorf("SWEETY_EMAIL and SWEETY_PASSWORD are required for stdio mode on supabase")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return b.provider.SignIn(ctx, email, password)
	}

	// No backend: an unsaved workspace keyed by the local username.
	localAuth := auth.NewLocalAuthenticator(nil)
	if useAccessingUser {
		localAuth = auth.NewLocalAuthenticatorWithAccessingUser(nil)
	}
	username, err := localAuth.GetLocalUsername()
	if err != nil {
		return nil, err
	}
	email := auth.LocalEmail(username)
	return &auth.Session{UserID: email, Email: email}, nil
}

// runHTTPMode serves the JSON API, event stream and MCP endpoint until
// interrupted.
func runHTTPMode(cfg *config.Config, b *backends, registry *workspace.Registry, collector *metrics.Collector, logger *zap.Logger) {
	if b.tokens != nil {
		sched := scheduler.NewScheduler(
			time.Duration(cfg.Security.CleanupInterval)*time.Minute,
			[]scheduler.Task{scheduler.TokenCleanup(b.tokens, logger)},
			scheduler.WithLogger(logger),
		)
		sched.Start()
		defer sched.Stop()
		logger.Info("token cleanup scheduler started", zap.Int("interval_minutes", cfg.Security.CleanupInterval))
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(collector),
		server.WithMCP(server.NewMCPServer(Version, tools.NewToolContext(registry, nil))),
	}
	if b.db != nil {
		db := b.db
		opts = append(opts, server.WithHealthCheck(func(context.Context) error {
			return database.Ping(db)
		}))
	}
	srv := server.New(cfg.Server, b.provider, registry, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", zap.Error(err))
	}
}
