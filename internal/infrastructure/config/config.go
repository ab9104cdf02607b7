// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for legis configuration.
	DefaultConfigDir = ".legis"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default SQLite file name inside the config directory.
	DefaultDBFile = "legis.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite    SQLiteConfig    `yaml:"sqlite,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Embedder  EmbedderConfig  `yaml:"embedder,omitempty"`
	Qdrant    QdrantConfig    `yaml:"qdrant,omitempty"`
	Redis     RedisConfig     `yaml:"redis,omitempty"`
	Fetcher   FetcherConfig   `yaml:"fetcher,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the database file. Relative paths resolve against the config directory.
	Path string `yaml:"path,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// SchedulerConfig holds cron specs for the periodic jobs. An empty spec disables the job.
type SchedulerConfig struct {
	OverdueScan      string `yaml:"overdue_scan,omitempty"`
	StagedActivation string `yaml:"staged_activation,omitempty"`
}

// LLMConfig holds configuration for the LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// RedisConfig holds configuration for the render cache. An empty Addr keeps
// the cache in process memory.
type RedisConfig struct {
	Addr      string        `yaml:"addr,omitempty"`
	Password  string        `yaml:"password,omitempty"`
	DB        int           `yaml:"db,omitempty"`
	KeyPrefix string        `yaml:"key_prefix,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
}

// FetcherConfig holds limits for downloading verification sources.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	MaxBytes  int64         `yaml:"max_bytes,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// envOverrides lists the environment variables read on top of the config file.
type envOverrides struct {
	DBPath             string `envconfig:"LEGIS_DB_PATH"`
	HTTPAddr           string `envconfig:"LEGIS_HTTP_ADDR"`
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	QdrantAPIKey       string `envconfig:"QDRANT_API_KEY"`
	RedisAddr          string `envconfig:"LEGIS_REDIS_ADDR"`
	OverdueSchedule    string `envconfig:"LEGIS_OVERDUE_SCHEDULE"`
	ActivationSchedule string `envconfig:"LEGIS_ACTIVATION_SCHEDULE"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			Path: DefaultDBFile,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			OverdueScan:      "0 8 * * *",
			StagedActivation: "5 0 * * *",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "legis_variables",
		},
		Redis: RedisConfig{
			KeyPrefix: "legis:render:",
			TTL:       30 * 24 * time.Hour,
		},
		Fetcher: FetcherConfig{
			Timeout:   15 * time.Second,
			MaxBytes:  2 << 20,
			UserAgent: "legis-verifier/1.0",
		},
	}
}

// Load loads configuration from the .legis directory in the given path.
// A .env file in basePath, if present, is loaded into the environment first.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'legis init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	_ = godotenv.Load(filepath.Join(basePath, ".env"))
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.SQLite.Path = resolveDBPath(basePath, cfg.SQLite.Path)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. API keys only
// fill in values missing from the file.
func (c *Config) applyEnvOverrides() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.OpenAIAPIKey != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = env.OpenAIAPIKey
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = env.OpenAIAPIKey
		}
	}
	if env.QdrantAPIKey != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = env.QdrantAPIKey
	}
	if env.DBPath != "" {
		c.SQLite.Path = env.DBPath
	}
	if env.HTTPAddr != "" {
		c.Server.Addr = env.HTTPAddr
	}
	if env.RedisAddr != "" {
		c.Redis.Addr = env.RedisAddr
	}
	if env.OverdueSchedule != "" {
		c.Scheduler.OverdueScan = env.OverdueSchedule
	}
	if env.ActivationSchedule != "" {
		c.Scheduler.StagedActivation = env.ActivationSchedule
	}
	return nil
}

// resolveDBPath places relative database paths inside the config directory.
func resolveDBPath(basePath, path string) string {
	if path == "" {
		path = DefaultDBFile
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ConfigDir(basePath), path)
}

// ConfigDir returns the path to the .legis config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
