package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/FlowState/internal/api"
	"github.com/BTreeMap/FlowState/internal/config"
	"github.com/BTreeMap/FlowState/internal/flow"
	"github.com/BTreeMap/FlowState/internal/store"
)

func main() {
	// Bootstrap logger until the configured one is known
	slog.SetDefault(newLogger(os.Stdout, config.DefaultLogLevel, config.DefaultLogFormat))

	loadDotEnv()

	flags := parseCommandLineFlags(flag.CommandLine, os.Args[1:])

	cfg, err := config.Load(*flags.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, flags)
	slog.SetDefault(newLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format))

	backend, storeOpts := buildStoreOptions(cfg)
	flowOpts := buildFlowOptions(cfg)
	apiOpts := buildAPIOptions(cfg)

	slog.Info("Bootstrapping FlowState", "backend", backend, "addr", cfg.Server.Addr)
	slog.Debug("Final configuration",
		"dsn_set", cfg.Store.DSN != "",
		"sweep_interval", cfg.Store.SweepInterval,
		"state_ttl", cfg.Flow.StateTTL,
		"refresh_ttl", cfg.Flow.RefreshTTL,
		"allowed_origins", strings.Join(cfg.Server.AllowedOrigins, ","))
	if err := api.Run(backend, storeOpts, flowOpts, apiOpts); err != nil {
		slog.Error("FlowState failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("FlowState exited successfully")
}

// Flags holds command line flag values. Empty or zero values leave the configuration untouched.
type Flags struct {
	configPath    *string
	addr          *string
	storeBackend  *string
	dbDSN         *string
	dynamoTable   *string
	stateTTL      *time.Duration
	sweepInterval *time.Duration
	logLevel      *string
}

// loadDotEnv loads a .env file from the working directory when present.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
}

// parseCommandLineFlags parses args into fs. Flags override the environment and the config file.
func parseCommandLineFlags(fs *flag.FlagSet, args []string) Flags {
	flags := Flags{
		configPath:    fs.String("config", os.Getenv("FLOWD_CONFIG"), "path to a YAML config file (overrides $FLOWD_CONFIG)"),
		addr:          fs.String("addr", "", "API server address (overrides $FLOWD_ADDR)"),
		storeBackend:  fs.String("store", "", "state store backend: memory, sqlite, postgres or dynamodb (overrides $FLOWD_STORE)"),
		dbDSN:         fs.String("db-dsn", "", "database DSN for the sqlite or postgres store (overrides $DATABASE_URL)"),
		dynamoTable:   fs.String("dynamo-table", "", "DynamoDB table name (overrides $FLOWD_DYNAMO_TABLE)"),
		stateTTL:      fs.Duration("state-ttl", 0, "lifetime of a started flow (overrides $FLOWD_STATE_TTL)"),
		sweepInterval: fs.Duration("sweep-interval", 0, "expired state sweep period, negative disables (overrides $FLOWD_SWEEP_INTERVAL)"),
		logLevel:      fs.String("log-level", "", "log level: debug, info, warn or error (overrides $LOG_LEVEL)"),
	}
	// ExitOnError flag sets never return an error here.
	_ = fs.Parse(args)

	slog.Debug("flags parsed",
		"config", *flags.configPath,
		"addr", *flags.addr,
		"store", *flags.storeBackend,
		"dbDSN_set", *flags.dbDSN != "",
		"dynamoTable", *flags.dynamoTable,
		"stateTTL", *flags.stateTTL,
		"sweepInterval", *flags.sweepInterval,
		"logLevel", *flags.logLevel)
	return flags
}

// applyFlagOverrides writes explicitly given flags over the loaded configuration.
func applyFlagOverrides(cfg *config.Config, flags Flags) {
	if *flags.addr != "" {
		cfg.Server.Addr = *flags.addr
	}
	if *flags.storeBackend != "" {
		cfg.Store.Backend = strings.ToLower(*flags.storeBackend)
	}
	if *flags.dbDSN != "" {
		cfg.Store.DSN = *flags.dbDSN
	}
	if *flags.dynamoTable != "" {
		cfg.Store.DynamoTable = *flags.dynamoTable
	}
	if *flags.stateTTL > 0 {
		cfg.Flow.StateTTL = *flags.stateTTL
	}
	if *flags.sweepInterval != 0 {
		cfg.Store.SweepInterval = *flags.sweepInterval
	}
	if *flags.logLevel != "" {
		cfg.Log.Level = strings.ToLower(*flags.logLevel)
	}
}

// parseLevel maps a level name to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds a text or JSON structured logger writing to w.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// buildStoreOptions picks the store backend and constructs its options.
// With no explicit backend a DSN selects sqlite or postgres, and otherwise the in-memory store is used.
func buildStoreOptions(cfg *config.Config) (store.Backend, []store.Option) {
	backend := store.Backend(cfg.Store.Backend)
	if backend == "" {
		if cfg.Store.DSN != "" {
			backend = store.BackendForDSN(cfg.Store.DSN)
			slog.Debug("Detected store backend from DSN", "backend", backend)
		} else {
			backend = store.BackendMemory
			slog.Debug("No database DSN provided, will use in-memory store")
		}
	}

	storeOpts := []store.Option{store.WithSweepInterval(cfg.Store.SweepInterval)}
	switch backend {
	case store.BackendPostgres:
		storeOpts = append(storeOpts, store.WithPostgresDSN(cfg.Store.DSN))
	case store.BackendSQLite:
		storeOpts = append(storeOpts, store.WithSQLiteDSN(cfg.Store.DSN))
	case store.BackendDynamoDB:
		storeOpts = append(storeOpts, store.WithTableName(cfg.Store.DynamoTable))
	}
	return backend, storeOpts
}

// buildFlowOptions constructs session manager options
func buildFlowOptions(cfg *config.Config) []flow.ManagerOption {
	return []flow.ManagerOption{
		flow.WithDefaultTTL(cfg.Flow.StateTTL),
		flow.WithRefreshTTL(cfg.Flow.RefreshTTL),
	}
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(cfg *config.Config) []api.Option {
	apiOpts := []api.Option{
		api.WithAddr(cfg.Server.Addr),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
	}
	if cfg.Server.ShutdownTimeout > 0 {
		apiOpts = append(apiOpts, api.WithShutdownTimeout(cfg.Server.ShutdownTimeout))
	}
	if cfg.Server.RequestTimeout > 0 {
		apiOpts = append(apiOpts, api.WithRequestTimeout(cfg.Server.RequestTimeout))
	}
	return apiOpts
}
