// Package config loads service configuration.
//
// Precedence, highest first: environment variables, the YAML file named by
// CONFIG_FILE, built-in defaults. A .env file in the working directory is
// loaded into the environment first. Environment names map to keys by
// splitting on the first underscore:
//
//	DATABASE_URL            -> database.url
//	CLASSIFIER_RATE_LIMIT   -> classifier.rate_limit
//	SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	ProviderOpenAI  = "openai"
	ProviderKeyword = "keyword"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Log        LogConfig        `koanf:"log"`
	Encryption EncryptionConfig `koanf:"encryption"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type ClassifierConfig struct {
	Provider  string        `koanf:"provider"`
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
	MaxTopics int           `koanf:"max_topics"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

type EncryptionConfig struct {
	// Key is a passphrase; empty leaves reflection text in plain form.
	Key string `koanf:"key"`
}

// Load reads .env, the optional CONFIG_FILE and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyFallbacks(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

var sections = map[string]bool{
	"server":     true,
	"database":   true,
	"classifier": true,
	"log":        true,
	"encryption": true,
}

// envKey maps SECTION_FIELD to section.field. Variables outside the known
// sections map to "", which the env provider skips.
func envKey(s string) string {
	section, field, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || field == "" || !sections[section] {
		return ""
	}
	return section + "." + field
}

// applyFallbacks honours the conventional variable names used by hosting
// platforms and SDKs.
func applyFallbacks(cfg *Config) {
	if cfg.Server.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			cfg.Server.Port = p
		}
	}
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgx"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 2 * time.Hour
	}

	if cfg.Classifier.Provider == "" {
		cfg.Classifier.Provider = ProviderKeyword
		if cfg.Classifier.APIKey != "" {
			cfg.Classifier.Provider = ProviderOpenAI
		}
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "gpt-4o-mini"
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 20 * time.Second
	}
	if cfg.Classifier.RateLimit == 0 {
		cfg.Classifier.RateLimit = 2
	}
	if cfg.Classifier.Burst == 0 {
		cfg.Classifier.Burst = 4
	}
	if cfg.Classifier.MaxTopics == 0 {
		cfg.Classifier.MaxTopics = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case "pgx", "sqlite3":
	default:
		return fmt.Errorf("database.driver %q: want pgx or sqlite3", c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative")
	}
	switch c.Classifier.Provider {
	case ProviderKeyword:
	case ProviderOpenAI:
		if c.Classifier.APIKey == "" {
			return fmt.Errorf("classifier.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("classifier.provider %q: want %s or %s", c.Classifier.Provider, ProviderOpenAI, ProviderKeyword)
	}
	if c.Classifier.RateLimit < 0 || c.Classifier.Burst < 0 || c.Classifier.MaxTopics < 0 {
		return fmt.Errorf("classifier limits must not be negative")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
