package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitMQConfig struct {
	URL            string        `yaml:"url"`
	Exchange       string        `yaml:"exchange"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
}

type StorageConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"` // deadline of the joined path lookup
}

type OutboxConfig struct {
	Interval     time.Duration `yaml:"interval"`
	BatchSize    int           `yaml:"batch_size"`
	Workers      int           `yaml:"workers"`
	Attempts     int           `yaml:"attempts"` // inline attempts right after commit
	BaseBackoff  time.Duration `yaml:"base_backoff"`
	InlineBudget time.Duration `yaml:"inline_budget"` // the relay skips rows younger than this
}

type LimitsConfig struct {
	SubmitPerWindow int           `yaml:"submit_per_window"` // 0 disables
	SubmitWindow    time.Duration `yaml:"submit_window"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Storage  StorageConfig  `yaml:"storage"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Limits   LimitsConfig   `yaml:"limits"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev and loads the file they point to.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	// .env files are optional; real environment variables win.
	_ = godotenv.Load(".env", ".env.local")

	return Load(configPath, dev)
}

// Load reads the yaml file, applies environment overrides and defaults, and
// validates required keys.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, errors.New("rabbitmq.url is required")
	}
	if cfg.Storage.BaseURL == "" {
		return nil, errors.New("storage.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Database.URL, "DATABASE_URL")
	override(&cfg.Redis.URL, "REDIS_URL")
	override(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	override(&cfg.Storage.BaseURL, "STORAGE_BASE_URL")
	override(&cfg.Log.Level, "LOG_LEVEL")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	cfg.Server.RequestTimeout = orDefault(cfg.Server.RequestTimeout, 30*time.Second)
	cfg.Server.ShutdownGrace = orDefault(cfg.Server.ShutdownGrace, 10*time.Second)

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "process"
	}
	cfg.RabbitMQ.ConfirmTimeout = orDefault(cfg.RabbitMQ.ConfirmTimeout, 5*time.Second)

	cfg.Storage.RequestTimeout = orDefault(cfg.Storage.RequestTimeout, 5*time.Second)
	cfg.Storage.ResolveTimeout = orDefault(cfg.Storage.ResolveTimeout, 10*time.Second)

	cfg.Outbox.Interval = orDefault(cfg.Outbox.Interval, 5*time.Second)
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 50
	}
	if cfg.Outbox.Workers <= 0 {
		cfg.Outbox.Workers = 2
	}
	if cfg.Outbox.Attempts <= 0 {
		cfg.Outbox.Attempts = 3
	}
	cfg.Outbox.BaseBackoff = orDefault(cfg.Outbox.BaseBackoff, 200*time.Millisecond)
	cfg.Outbox.InlineBudget = orDefault(cfg.Outbox.InlineBudget, 10*time.Second)

	if cfg.Limits.SubmitPerWindow > 0 {
		cfg.Limits.SubmitWindow = orDefault(cfg.Limits.SubmitWindow, time.Minute)
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
