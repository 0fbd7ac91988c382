// internal/config/config.go
//
// Client configuration.
// Layers, lowest precedence first:
//   1. Built-in defaults.
//   2. YAML file named by -config or NUMERITO_CONFIG (optional).
//   3. Environment variables (a .env file is loaded by main beforehand).
//   4. Command-line flags that were explicitly set.
//
// Every layer only overrides the fields it actually mentions.

package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// MaxTopLimit bounds the leaderboard size a player may request.
const MaxTopLimit = 100

// Config holds every setting the client reads.
type Config struct {
	APIBaseURL        string        `yaml:"api_base_url" env:"NUMERITO_API_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"NUMERITO_TIMEOUT"` // 0 = transport defaults
	StoreDriver       string        `yaml:"store_driver" env:"NUMERITO_STORE"`
	StorePath         string        `yaml:"store_path" env:"NUMERITO_STORE_PATH"`
	RedisAddr         string        `yaml:"redis_addr" env:"NUMERITO_REDIS_ADDR"`
	RedisPassword     string        `yaml:"redis_password" env:"NUMERITO_REDIS_PASSWORD"`
	RedisDB           int           `yaml:"redis_db" env:"NUMERITO_REDIS_DB"`
	LogLevel          string        `yaml:"log_level" env:"LOG_LEVEL"`
	Lang              string        `yaml:"lang" env:"NUMERITO_LANG"`
	Token             string        `yaml:"token" env:"NUMERITO_TOKEN"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"NUMERITO_RPS"`
	TopLimit          int           `yaml:"top_limit" env:"NUMERITO_TOP_LIMIT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:  "http://localhost:8080/api",
		StoreDriver: DriverSQLite,
		StorePath:   "./data/numerito.db",
		RedisAddr:   "localhost:6379",
		LogLevel:    "info",
		Lang:        "en",
		TopLimit:    10,
	}
}

// Load builds the configuration from args (without the program name) and the
// process environment.
func Load(args []string) (Config, error) {
	var (
		cfg     = Default()
		fileArg string
		fv      Config
	)

	fs := flag.NewFlagSet("numerito", flag.ContinueOnError)
	fs.StringVar(&fileArg, "config", "", "YAML config file (or NUMERITO_CONFIG)")
	fs.StringVar(&fv.APIBaseURL, "api", "", "game service base URL")
	fs.DurationVar(&fv.Timeout, "timeout", 0, "per-command timeout (0 = none)")
	fs.StringVar(&fv.StoreDriver, "store", "", "session store: sqlite, redis or memory")
	fs.StringVar(&fv.StorePath, "store-path", "", "SQLite database path")
	fs.StringVar(&fv.RedisAddr, "redis", "", "Redis address (host:port)")
	fs.StringVar(&fv.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&fv.Lang, "lang", "", "interface language (en, es)")
	fs.StringVar(&fv.Token, "token", "", "bearer token for the scoreboard")
	fs.Float64Var(&fv.RequestsPerSecond, "rps", 0, "max requests per second (0 = unlimited)")
	fs.IntVar(&fv.TopLimit, "top", 0, "leaderboard size")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if fileArg == "" {
		fileArg = os.Getenv("NUMERITO_CONFIG")
	}
	if fileArg != "" {
		if err := loadFile(fileArg, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api":
			cfg.APIBaseURL = fv.APIBaseURL
		case "timeout":
			cfg.Timeout = fv.Timeout
		case "store":
			cfg.StoreDriver = fv.StoreDriver
		case "store-path":
			cfg.StorePath = fv.StorePath
		case "redis":
			cfg.RedisAddr = fv.RedisAddr
		case "log-level":
			cfg.LogLevel = fv.LogLevel
		case "lang":
			cfg.Lang = fv.Lang
		case "token":
			cfg.Token = fv.Token
		case "rps":
			cfg.RequestsPerSecond = fv.RequestsPerSecond
		case "top":
			cfg.TopLimit = fv.TopLimit
		}
	})

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto cfg. Keys absent from the file
// keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	c.Token = strings.TrimSpace(c.Token)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.StorePath == "" {
			return errors.New("store_path is required for the sqlite store")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store_driver %q (want sqlite, redis or memory)", c.StoreDriver)
	}
	if c.TopLimit < 1 || c.TopLimit > MaxTopLimit {
		return fmt.Errorf("top_limit must be between 1 and %d, got %d", MaxTopLimit, c.TopLimit)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}
