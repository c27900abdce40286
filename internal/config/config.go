package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	AMQPURL            string
	EventExchange      string
	CatalogAddress     string
	TokenSecret        string
	TokenTTL           time.Duration
	LeaseTTL           time.Duration
	LeaseSweepInterval time.Duration
	LeaseSweepBatch    int
	EventPollInterval  time.Duration
	EventBatchSize     int
	RelayWorkers       int
	ShutdownTimeout    time.Duration
	ReportTimezone     string
	ReportLocation     *time.Location
	LogLevel           slog.Level
}

const (
	defaultRunAddress         = ":8080"
	defaultEventExchange      = "kilopos.events"
	defaultTokenSecret        = "change-me-in-production"
	defaultTokenTTL           = 12 * time.Hour
	defaultLeaseTTL           = 2 * time.Minute
	defaultLeaseSweepInterval = 15 * time.Second
	defaultLeaseSweepBatch    = 100
	defaultEventPollInterval  = time.Second
	defaultEventBatchSize     = 64
	defaultRelayWorkers       = 4
	defaultShutdownTimeout    = 10 * time.Second
	defaultReportTimezone     = "UTC"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

// FromEnv parses configuration from environment variables only and leaves the
// database URI optional. Tools that need the store check it themselves.
func FromEnv() (*Config, error) {
	return parse(nil, os.LookupEnv)
}

type envLookup func(string) (string, bool)

type durationSetting struct {
	flag   string
	raw    string
	target *time.Duration
	def    time.Duration
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg, err := parse(args, lookup)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}
	return cfg, nil
}

func parse(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		AMQPURL:            getString(lookup, "AMQP_URL", ""),
		EventExchange:      getString(lookup, "EVENT_EXCHANGE", defaultEventExchange),
		CatalogAddress:     getString(lookup, "CATALOG_ADDRESS", ""),
		TokenSecret:        getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		TokenTTL:           getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		LeaseTTL:           getDuration(lookup, "LEASE_TTL", defaultLeaseTTL),
		LeaseSweepInterval: getDuration(lookup, "LEASE_SWEEP_INTERVAL", defaultLeaseSweepInterval),
		LeaseSweepBatch:    getInt(lookup, "LEASE_SWEEP_BATCH", defaultLeaseSweepBatch),
		EventPollInterval:  getDuration(lookup, "EVENT_POLL_INTERVAL", defaultEventPollInterval),
		EventBatchSize:     getInt(lookup, "EVENT_BATCH_SIZE", defaultEventBatchSize),
		RelayWorkers:       getInt(lookup, "RELAY_WORKERS", defaultRelayWorkers),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ReportTimezone:     getString(lookup, "REPORT_TIMEZONE", defaultReportTimezone),
	}
	logLevel := getString(lookup, "LOG_LEVEL", "info")

	fs := flag.NewFlagSet("kilopos", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	durations := []*durationSetting{
		{flag: "lease-ttl", target: &cfg.LeaseTTL, def: defaultLeaseTTL},
		{flag: "lease-sweep-interval", target: &cfg.LeaseSweepInterval, def: defaultLeaseSweepInterval},
		{flag: "event-poll-interval", target: &cfg.EventPollInterval, def: defaultEventPollInterval},
		{flag: "shutdown-timeout", target: &cfg.ShutdownTimeout, def: defaultShutdownTimeout},
		{flag: "token-ttl", target: &cfg.TokenTTL, def: defaultTokenTTL},
	}

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.AMQPURL, "amqp", cfg.AMQPURL, "RabbitMQ URL for change events")
	fs.StringVar(&cfg.CatalogAddress, "catalog", cfg.CatalogAddress, "Catalog service base URL")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing operator tokens")
	fs.IntVar(&cfg.LeaseSweepBatch, "lease-sweep-batch", cfg.LeaseSweepBatch, "Maximum leases reverted per sweep")
	fs.IntVar(&cfg.EventBatchSize, "event-batch", cfg.EventBatchSize, "Maximum events claimed per poll")
	fs.IntVar(&cfg.RelayWorkers, "relay-workers", cfg.RelayWorkers, "Number of concurrent event publishers")
	fs.StringVar(&cfg.ReportTimezone, "report-timezone", cfg.ReportTimezone, "Time zone of report day boundaries")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level: debug, info, warn, error")
	for _, d := range durations {
		d.raw = d.target.String()
		fs.StringVar(&d.raw, d.flag, d.raw, "duration")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	for _, d := range durations {
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.flag, err)
		}
		if v <= 0 {
			v = d.def
		}
		*d.target = v
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = strings.TrimSpace(string(content))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report timezone: %w", err)
	}
	cfg.ReportLocation = loc

	if cfg.LeaseSweepBatch <= 0 {
		cfg.LeaseSweepBatch = defaultLeaseSweepBatch
	}

	if cfg.EventBatchSize <= 0 {
		cfg.EventBatchSize = defaultEventBatchSize
	}

	if cfg.RelayWorkers <= 0 {
		cfg.RelayWorkers = defaultRelayWorkers
	}

	if cfg.EventExchange == "" {
		cfg.EventExchange = defaultEventExchange
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
