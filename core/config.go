package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/blob"
	"itemsclassification/internal/cache"
	"itemsclassification/internal/vectordb"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   blob.Config     `mapstructure:"storage"`
	LLM       ai.Config       `mapstructure:"llm"`
	VectorDB  vectordb.Config `mapstructure:"vectordb"`
	Redis     cache.Config    `mapstructure:"redis"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	Pipelines PipelinesConfig `mapstructure:"pipelines"`
	// Resources optionally points at a directory overriding the embedded
	// taxonomy files.
	Resources string `mapstructure:"resources"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Environment string   `mapstructure:"environment"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RateLimit is the number of requests per second allowed per client IP.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type TasksConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

type PipelinesConfig struct {
	// Delay separates consecutive model calls within one pipeline run.
	Delay time.Duration `mapstructure:"delay"`
}

// envBindings maps config keys to the environment variable names the
// deployment uses.
var envBindings = map[string]string{
	"server.environment":   "ENVIRONMENT",
	"server.port":          "PORT",
	"log.level":            "LOG_LEVEL",
	"storage.account_key":  "STORAGE_ACCOUNT_KEY",
	"storage.account_name": "STORAGE_ACCOUNT_NAME",
	"database.host":        "SQL_ENDPOINT",
	"database.name":        "SQL_DATABASE",
	"database.user":        "SQL_USERNAME",
	"database.password":    "SQL_PASSWORD",
	"database.port":        "SQL_PORT",
	"llm.base_url":         "OPENAI_ENDPOINT",
	"llm.api_key":          "OPENAI_API_KEY",
	"vectordb.url":         "VECTOR_DB_URL",
	"vectordb.api_key":     "VECTOR_DB_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.environment", "production")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("storage.provider", blob.ProviderAzure)
	v.SetDefault("storage.images_container", blob.DefaultImagesContainer)
	v.SetDefault("storage.url_expiry", blob.DefaultURLExpiry)

	v.SetDefault("llm.provider", ai.ProviderOpenRouter)
	v.SetDefault("llm.model", "openai/gpt-4o-mini")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.embedding_dimensions", vectordb.DefaultEmbeddingSize)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.backoff_factor", 2.0)
	v.SetDefault("llm.initial_delay", time.Second)
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.requests_per_second", 2.0)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("vectordb.provider", vectordb.ProviderQdrant)
	v.SetDefault("vectordb.reference_collection", "reference_data")
	v.SetDefault("vectordb.results_collection", "results_data")
	v.SetDefault("vectordb.embedding_size", vectordb.DefaultEmbeddingSize)
	v.SetDefault("vectordb.batch_size", vectordb.DefaultBatchSize)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.ttl", cache.DefaultTTL)

	v.SetDefault("tasks.max_concurrent", 4)
	v.SetDefault("pipelines.delay", time.Second)
}

// LoadConfig reads .env, configs/config.yaml and the environment, in
// increasing order of precedence.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	return loadConfig(viper.New(), "./configs", ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}

	switch c.Database.Driver {
	case "postgres", "sqlserver":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlserver, got %q", c.Database.Driver)
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if c.Tasks.MaxConcurrent <= 0 {
		return fmt.Errorf("tasks.max_concurrent must be positive")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
