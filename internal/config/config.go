package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys shared by environment variables, .env files and command-line flags.
const (
	KeyServiceName  = "service_name"
	KeyIntentsPath  = "intents_path"
	KeyHTTPAddr     = "http_addr"
	KeyTestSize     = "test_size"
	KeySplitSeed    = "split_seed"
	KeyWatchIntents = "watch_intents"
	KeyNatsURL      = "nats_url"
	KeyNatsSubject  = "nats_subject"
	KeyNatsTimeout  = "nats_timeout"
	KeyRedisURL     = "redis_url"
	KeyStatsPrefix  = "stats_prefix"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

type Config struct {
	// Service configuration
	ServiceName string
	IntentsPath string
	HTTPAddr    string

	// Training configuration
	TestSize  float64
	SplitSeed uint64

	WatchIntents bool

	// NATS configuration (disabled when NatsURL is empty)
	NatsURL     string
	NatsSubject string
	NatsTimeout time.Duration

	// Redis configuration (in-memory stats when RedisURL is empty)
	RedisURL    string
	StatsPrefix string

	// Logging
	LogLevel  slog.Level
	LogFormat string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServiceName, "intentbot")
	v.SetDefault(KeyIntentsPath, "intents.json")
	v.SetDefault(KeyHTTPAddr, ":5000")
	v.SetDefault(KeyTestSize, 0.2)
	v.SetDefault(KeySplitSeed, 42)
	v.SetDefault(KeyWatchIntents, true)
	v.SetDefault(KeyNatsURL, "")
	v.SetDefault(KeyNatsSubject, "chatbot.message")
	v.SetDefault(KeyNatsTimeout, 10*time.Second)
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyStatsPrefix, "intentbot:stats")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// LoadDotEnv loads .env files into the environment. Variables that are
// already set win. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// New returns a viper instance reading defaults and the environment.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration from v (flags, environment, defaults).
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServiceName:  v.GetString(KeyServiceName),
		IntentsPath:  v.GetString(KeyIntentsPath),
		HTTPAddr:     v.GetString(KeyHTTPAddr),
		TestSize:     v.GetFloat64(KeyTestSize),
		SplitSeed:    v.GetUint64(KeySplitSeed),
		WatchIntents: v.GetBool(KeyWatchIntents),
		NatsURL:      v.GetString(KeyNatsURL),
		NatsSubject:  v.GetString(KeyNatsSubject),
		NatsTimeout:  v.GetDuration(KeyNatsTimeout),
		RedisURL:     v.GetString(KeyRedisURL),
		StatsPrefix:  v.GetString(KeyStatsPrefix),
		LogFormat:    strings.ToLower(v.GetString(KeyLogFormat)),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", strings.ToUpper(KeyLogLevel), err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid %s %q: want text or json", strings.ToUpper(KeyLogFormat), cfg.LogFormat)
	}
	if cfg.TestSize < 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("invalid %s %v: want a fraction in [0, 1)", strings.ToUpper(KeyTestSize), cfg.TestSize)
	}
	if cfg.IntentsPath == "" {
		return nil, fmt.Errorf("%s is required", strings.ToUpper(KeyIntentsPath))
	}
	if cfg.NatsURL != "" && cfg.NatsSubject == "" {
		return nil, fmt.Errorf("%s is required when NATS is enabled", strings.ToUpper(KeyNatsSubject))
	}

	return cfg, nil
}
