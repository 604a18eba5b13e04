package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete application configuration. It is built once at
// startup and passed explicitly to every component constructor; there is no
// ambient mutable settings object.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Auth          AuthConfig
	Embedding     EmbeddingConfig
	Generation    GenerationConfig
	RAG           RAGConfig
	Memory        MemoryConfig
	Upload        UploadConfig
	KnowledgeBase KnowledgeBaseConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration. When ConnectionString
// (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// StorageConfig holds object storage configuration for uploaded originals.
type StorageConfig struct {
	// Root is the base directory of the local object store.
	Root string
}

// AuthConfig holds bearer-token authentication configuration.
type AuthConfig struct {
	// JWTSecret verifies HS256 tokens issued by the identity provider.
	JWTSecret string
}

// EmbeddingConfig holds the embedding provider configuration.
type EmbeddingConfig struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
	CacheSize int
}

// GenerationConfig holds generative model provider configuration.
type GenerationConfig struct {
	// Provider selects the active generator: "gemini" or "ollama".
	Provider string
	Gemini   GeminiConfig
	Ollama   OllamaConfig
}

// GeminiConfig holds Google Gemini API configuration.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaConfig holds Ollama API configuration.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RAGConfig holds the retrieval pipeline knobs.
type RAGConfig struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	// MajorityThreshold is the script share above which text is classified
	// as a single language; below MinorityThreshold the other language wins,
	// anything in between is mixed.
	MajorityThreshold float64
	MinorityThreshold float64
	DefaultLanguage   string
	// PromptContextBudget caps the document-context section of the prompt,
	// in characters.
	PromptContextBudget int
}

// MemoryConfig holds conversational memory configuration.
type MemoryConfig struct {
	// ShortTermCapacity bounds the recent-turn ring per chat.
	ShortTermCapacity int
	// HistoryPageSize is how many persisted messages are pulled into the
	// conversation context when history is enabled.
	HistoryPageSize int
	// ContextBudget caps the assembled conversation context, in characters.
	ContextBudget int
}

// UploadConfig holds document upload limits.
type UploadConfig struct {
	MaxUploadSize     int64
	AllowedExtensions []string
}

// KnowledgeBaseConfig describes the seed document ingested on initialization.
type KnowledgeBaseConfig struct {
	Path  string
	Title string
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a Config by loading environment variables. A .env file is
// loaded first when present.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Storage: StorageConfig{
			Root: getEnv("STORAGE_ROOT", "data/objects"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			Model:     getEnv("EMBEDDING_MODEL", "paraphrase-multilingual"),
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", 384),
			Timeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			CacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 2048),
		},
		Generation: GenerationConfig{
			Provider: getEnv("GENERATION_PROVIDER", "gemini"),
			Gemini: GeminiConfig{
				APIKey:  getEnv("GOOGLE_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
				Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
				Timeout: getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),
			},
			Ollama: OllamaConfig{
				BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   getEnv("OLLAMA_MODEL", "llama3"),
				Timeout: getEnvAsDuration("GENERATION_TIMEOUT", 30*time.Second),
			},
		},
		RAG: RAGConfig{
			ChunkSize:           getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 50),
			TopK:                getEnvAsInt("TOP_K_CHUNKS", 5),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.3),
			MajorityThreshold:   getEnvAsFloat("LANGUAGE_MAJORITY_THRESHOLD", 0.7),
			MinorityThreshold:   getEnvAsFloat("LANGUAGE_MINORITY_THRESHOLD", 0.3),
			DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "en"),
			PromptContextBudget: getEnvAsInt("PROMPT_CONTEXT_BUDGET", 6000),
		},
		Memory: MemoryConfig{
			ShortTermCapacity: getEnvAsInt("SHORT_TERM_MEMORY_SIZE", 10),
			HistoryPageSize:   getEnvAsInt("MEMORY_HISTORY_PAGE_SIZE", 5),
			ContextBudget:     getEnvAsInt("MEMORY_CONTEXT_BUDGET", 2000),
		},
		Upload: UploadConfig{
			MaxUploadSize:     getEnvAsInt64("MAX_UPLOAD_SIZE", 10*1024*1024),
			AllowedExtensions: getEnvAsSlice("ALLOWED_EXTENSIONS", []string{".txt", ".md", ".text"}),
		},
		KnowledgeBase: KnowledgeBaseConfig{
			Path:  getEnv("KNOWLEDGE_BASE_PATH", "data/knowledge_base.txt"),
			Title: getEnv("KNOWLEDGE_BASE_TITLE", "HSC26 Bangla 1st Paper"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk overlap must satisfy 0 <= overlap < chunk size")
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("top-k must be positive")
	}
	if c.RAG.SimilarityThreshold < -1 || c.RAG.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [-1, 1]")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.Memory.ShortTermCapacity <= 0 {
		return fmt.Errorf("short-term memory capacity must be positive")
	}
	switch c.Generation.Provider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required in production")
		}
		if c.Generation.Provider == "gemini" && c.Generation.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key is required in production")
		}
	}
	return nil
}

// IsProduction returns true when running in a production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DSN returns the PostgreSQL connection string. Uses ConnectionString when
// set, otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a connection description safe for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err != nil {
			return "host=<from DATABASE_URL>"
		}
		port := u.Port()
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDatabaseConfig() DatabaseConfig {
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "tukhor"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "tukhor"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
