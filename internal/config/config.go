package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Storage  StorageConfig
	STT      STTConfig
	Fluency  FluencyConfig
	Feedback FeedbackConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
	TempDir        string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type LLMConfig struct {
	OpenAIKey        string
	OpenAIBaseURL    string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

type STTConfig struct {
	Backend      string // "openai", "groq" or "local"
	APIKey       string
	BaseURL      string
	Model        string
	Language     string
	LocalBaseURL string // default: "http://localhost:8178"
	Timeout      time.Duration
}

type FluencyConfig struct {
	PauseThreshold float64
}

type FeedbackConfig struct {
	Model            string
	IdealAnswerModel string
	CacheTTL         time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := getEnvInt("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	pauseThreshold, err := getEnvFloat("FLUENCY_PAUSE_THRESHOLD", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid FLUENCY_PAUSE_THRESHOLD: %w", err)
	}

	sttTimeout, err := getEnvDuration("STT_TIMEOUT", 300*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid STT_TIMEOUT: %w", err)
	}

	cacheTTL, err := getEnvDuration("FEEDBACK_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid FEEDBACK_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			MaxUploadBytes: int64(maxUploadMB) << 20,
			TempDir:        getEnv("TEMP_AUDIO_DIR", os.TempDir()),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", getEnv("GROQ_API_KEY", "")),
			OpenAIBaseURL:    getEnv("LLM_OPENAI_BASE_URL", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		Storage: StorageConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "answers"),
		},
		STT: STTConfig{
			Backend:      getEnv("STT_BACKEND", "openai"),
			APIKey:       getEnv("STT_API_KEY", getEnv("OPENAI_API_KEY", getEnv("GROQ_API_KEY", ""))),
			BaseURL:      getEnv("STT_BASE_URL", ""),
			Model:        getEnv("STT_MODEL", ""),
			Language:     getEnv("STT_LANGUAGE", "en"),
			LocalBaseURL: getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
			Timeout:      sttTimeout,
		},
		Fluency: FluencyConfig{
			PauseThreshold: pauseThreshold,
		},
		Feedback: FeedbackConfig{
			Model:            getEnv("FEEDBACK_MODEL", ""),
			IdealAnswerModel: getEnv("IDEAL_ANSWER_MODEL", ""),
			CacheTTL:         cacheTTL,
		},
	}

	if cfg.STT.Backend == "groq" {
		if cfg.STT.BaseURL == "" {
			cfg.STT.BaseURL = "https://api.groq.com/openai/v1"
		}
		if cfg.STT.Model == "" {
			cfg.STT.Model = "whisper-large-v3"
		}
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT out of range")
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}
	if !(c.Fluency.PauseThreshold > 0) {
		problems = append(problems, "FLUENCY_PAUSE_THRESHOLD must be positive")
	}
	if c.STT.Backend != "local" && c.STT.APIKey == "" {
		problems = append(problems, "STT_API_KEY (or OPENAI_API_KEY/GROQ_API_KEY) is required for hosted STT")
	}
	if c.LLM.DefaultProvider == "openai" && c.LLM.OpenAIKey == "" {
		problems = append(problems, "OPENAI_API_KEY (or GROQ_API_KEY) is required for the openai LLM provider")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
