package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	AI         AIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Qdrant     QdrantConfig
	Worker     WorkerConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port string
	Env  string
}

type StorageConfig struct {
	DataDir        string
	UploadPath     string
	MaxFileSize    int64
	HistoryBackend string
}

type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type AIConfig struct {
	Provider          string
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type WorkerConfig struct {
	Concurrency       int
	QueueSize         int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

type SessionConfig struct {
	SecretKey string
	MaxAge    time.Duration
	Secure    bool
}

type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderHeuristic  = "heuristic"

	BackendJSON     = "json"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"

	DefaultSessionSecret = "dev-secret-key-change-me"
)

var defaults = map[string]any{
	"host":                "127.0.0.1",
	"port":                "8000",
	"env":                 "development",
	"data_dir":            "./data",
	"upload_path":         "./data/uploads",
	"max_file_size":       5 * 1024 * 1024,
	"history_backend":     BackendJSON,
	"db_host":             "localhost",
	"db_port":             "5432",
	"db_user":             "postgres",
	"db_password":         "postgres",
	"db_name":             "skill_evaluator",
	"sqlite_path":         "./data/evaluator.db",
	"ai_provider":         ProviderHeuristic,
	"ai_request_timeout":  "60s",
	"ai_requests_per_min": 30,
	"gemini_api_key":      "",
	"gemini_model":        "gemini-2.5-flash",
	"gemini_embed_model":  "text-embedding-004",
	"openrouter_api_key":  "",
	"openrouter_base_url": "https://openrouter.ai/api/v1",
	"openrouter_model":    "openai/gpt-4o-mini",
	"qdrant_url":          "",
	"qdrant_api_key":      "",
	"qdrant_collection":   "evaluator_reference_docs",
	"worker_concurrency":  3,
	"worker_queue_size":   100,
	"retry_max_attempts":  3,
	"retry_initial_delay": "2s",
	"session_secret_key":  DefaultSessionSecret,
	"session_max_age":     "168h",
	"session_secure":      false,
	"rate_limit_max":      20,
	"rate_limit_window":   "1m",
	"log_json":            false,
	"log_debug":           false,
}

// Load reads .env (when present), the optional config file and the environment.
// Environment variables win over the file, the file wins over defaults.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("host"),
			Port: v.GetString("port"),
			Env:  v.GetString("env"),
		},
		Storage: StorageConfig{
			DataDir:        v.GetString("data_dir"),
			UploadPath:     v.GetString("upload_path"),
			MaxFileSize:    v.GetInt64("max_file_size"),
			HistoryBackend: strings.ToLower(v.GetString("history_backend")),
		},
		Database: DatabaseConfig{
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			DBName:     v.GetString("db_name"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		AI: AIConfig{
			Provider:          strings.ToLower(v.GetString("ai_provider")),
			RequestTimeout:    v.GetDuration("ai_request_timeout"),
			RequestsPerMinute: v.GetInt("ai_requests_per_min"),
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("gemini_api_key"),
			Model:      v.GetString("gemini_model"),
			EmbedModel: v.GetString("gemini_embed_model"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:  v.GetString("openrouter_api_key"),
			BaseURL: v.GetString("openrouter_base_url"),
			Model:   v.GetString("openrouter_model"),
		},
		Qdrant: QdrantConfig{
			URL:        v.GetString("qdrant_url"),
			APIKey:     v.GetString("qdrant_api_key"),
			Collection: v.GetString("qdrant_collection"),
		},
		Worker: WorkerConfig{
			Concurrency:       v.GetInt("worker_concurrency"),
			QueueSize:         v.GetInt("worker_queue_size"),
			RetryMaxAttempts:  v.GetInt("retry_max_attempts"),
			RetryInitialDelay: v.GetDuration("retry_initial_delay"),
		},
		Session: SessionConfig{
			SecretKey: v.GetString("session_secret_key"),
			MaxAge:    v.GetDuration("session_max_age"),
			Secure:    v.GetBool("session_secure"),
		},
		RateLimit: RateLimitConfig{
			Max:        v.GetInt("rate_limit_max"),
			Expiration: v.GetDuration("rate_limit_window"),
		},
		Log: LogConfig{
			JSON:  v.GetBool("log_json"),
			Debug: v.GetBool("log_debug"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports configuration that cannot start the server.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderHeuristic:
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("ai provider %q: missing API key (GEMINI_API_KEY)", c.AI.Provider)
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("ai provider %q: missing API key (OPENROUTER_API_KEY)", c.AI.Provider)
		}
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	switch c.Storage.HistoryBackend {
	case BackendJSON, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown history backend %q", c.Storage.HistoryBackend)
	}

	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Storage.MaxFileSize)
	}

	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = 1
	}
	if c.Worker.RetryMaxAttempts <= 0 {
		c.Worker.RetryMaxAttempts = 1
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}
