package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Embedding     EmbeddingConfig
	Transcription TranscriptionConfig
	Gemini        GeminiConfig
	Matching      MatchingConfig
	Onboarding    OnboardingConfig
	RateLimit     RateLimitConfig
	Cache         CacheConfig
	Admin         AdminConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
}

// EmbeddingConfig configures the external text-embedding provider.
type EmbeddingConfig struct {
	BaseURL        string
	Model          string
	APIKey         string
	Dimension      int
	Timeout        time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	RequestsPerSec float64
	Burst          int
	Concurrency    int
}

type TranscriptionConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
	MaxBytes    int64
	MinChars    int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// MatchingConfig exposes the scorer weights. Defaults are documented in DESIGN.md.
type MatchingConfig struct {
	ComplementaryWeight float64
	GoalsWeight         float64
	ValuesWeight        float64
	OverlapWeight       float64
	EvidenceThreshold   float64
	CandidatePool       int
	DefaultLimit        int
	MaxLimit            int
	Concurrency         int
}

type OnboardingConfig struct {
	TimeBudget      time.Duration
	EssentialBelow  float64
	ReflectiveAbove float64
	RushedBelow     time.Duration
	ThoughtfulAbove time.Duration
	SessionTTL      time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// AdminConfig tunes the health validator behind the admin routes.
type AdminConfig struct {
	HealthCheckTimeout time.Duration
}

type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := fromViper(v)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)

	v.SetDefault("EMBEDDING_BASE_URL", "https://api-inference.huggingface.co")
	v.SetDefault("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("EMBEDDING_DIMENSION", 384)
	v.SetDefault("EMBEDDING_TIMEOUT", "15s")
	v.SetDefault("EMBEDDING_MAX_ATTEMPTS", 3)
	v.SetDefault("EMBEDDING_BASE_BACKOFF", "500ms")
	v.SetDefault("EMBEDDING_MAX_BACKOFF", "4s")
	v.SetDefault("EMBEDDING_REQUESTS_PER_SEC", 5.0)
	v.SetDefault("EMBEDDING_BURST", 5)
	v.SetDefault("EMBEDDING_CONCURRENCY", 4)

	v.SetDefault("TRANSCRIPTION_URL", "https://api-inference.huggingface.co/models/openai/whisper-large-v3")
	v.SetDefault("TRANSCRIPTION_TIMEOUT", "30s")
	v.SetDefault("TRANSCRIPTION_MIN_DURATION", "2s")
	v.SetDefault("TRANSCRIPTION_MAX_DURATION", "20s")
	v.SetDefault("TRANSCRIPTION_MAX_BYTES", 5<<20)
	v.SetDefault("TRANSCRIPTION_MIN_CHARS", 10)

	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	v.SetDefault("MATCH_COMPLEMENTARY_WEIGHT", 0.45)
	v.SetDefault("MATCH_GOALS_WEIGHT", 0.35)
	v.SetDefault("MATCH_VALUES_WEIGHT", 0.20)
	v.SetDefault("MATCH_OVERLAP_WEIGHT", 0.15)
	v.SetDefault("MATCH_EVIDENCE_THRESHOLD", 0.5)
	v.SetDefault("MATCH_CANDIDATE_POOL", 200)
	v.SetDefault("MATCH_DEFAULT_LIMIT", 10)
	v.SetDefault("MATCH_MAX_LIMIT", 50)
	v.SetDefault("MATCH_CONCURRENCY", 8)

	v.SetDefault("ONBOARDING_TIME_BUDGET", "10m")
	v.SetDefault("ONBOARDING_ESSENTIAL_BELOW", 0.35)
	v.SetDefault("ONBOARDING_REFLECTIVE_ABOVE", 0.65)
	v.SetDefault("ONBOARDING_RUSHED_BELOW", "5s")
	v.SetDefault("ONBOARDING_THOUGHTFUL_ABOVE", "20s")
	v.SetDefault("ONBOARDING_SESSION_TTL", "24h")

	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("CACHE_MAX_ENTRIES", 10000)
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:         v.GetString("SERVER_HOST"),
			Port:         v.GetInt("SERVER_PORT"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:        strings.TrimRight(v.GetString("EMBEDDING_BASE_URL"), "/"),
			Model:          v.GetString("EMBEDDING_MODEL"),
			APIKey:         v.GetString("EMBEDDING_API_KEY"),
			Dimension:      v.GetInt("EMBEDDING_DIMENSION"),
			Timeout:        v.GetDuration("EMBEDDING_TIMEOUT"),
			MaxAttempts:    v.GetInt("EMBEDDING_MAX_ATTEMPTS"),
			BaseBackoff:    v.GetDuration("EMBEDDING_BASE_BACKOFF"),
			MaxBackoff:     v.GetDuration("EMBEDDING_MAX_BACKOFF"),
			RequestsPerSec: v.GetFloat64("EMBEDDING_REQUESTS_PER_SEC"),
			Burst:          v.GetInt("EMBEDDING_BURST"),
			Concurrency:    v.GetInt("EMBEDDING_CONCURRENCY"),
		},
		Transcription: TranscriptionConfig{
			URL:         v.GetString("TRANSCRIPTION_URL"),
			APIKey:      v.GetString("TRANSCRIPTION_API_KEY"),
			Timeout:     v.GetDuration("TRANSCRIPTION_TIMEOUT"),
			MinDuration: v.GetDuration("TRANSCRIPTION_MIN_DURATION"),
			MaxDuration: v.GetDuration("TRANSCRIPTION_MAX_DURATION"),
			MaxBytes:    v.GetInt64("TRANSCRIPTION_MAX_BYTES"),
			MinChars:    v.GetInt("TRANSCRIPTION_MIN_CHARS"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
		Matching: MatchingConfig{
			ComplementaryWeight: v.GetFloat64("MATCH_COMPLEMENTARY_WEIGHT"),
			GoalsWeight:         v.GetFloat64("MATCH_GOALS_WEIGHT"),
			ValuesWeight:        v.GetFloat64("MATCH_VALUES_WEIGHT"),
			OverlapWeight:       v.GetFloat64("MATCH_OVERLAP_WEIGHT"),
			EvidenceThreshold:   v.GetFloat64("MATCH_EVIDENCE_THRESHOLD"),
			CandidatePool:       v.GetInt("MATCH_CANDIDATE_POOL"),
			DefaultLimit:        v.GetInt("MATCH_DEFAULT_LIMIT"),
			MaxLimit:            v.GetInt("MATCH_MAX_LIMIT"),
			Concurrency:         v.GetInt("MATCH_CONCURRENCY"),
		},
		Onboarding: OnboardingConfig{
			TimeBudget:      v.GetDuration("ONBOARDING_TIME_BUDGET"),
			EssentialBelow:  v.GetFloat64("ONBOARDING_ESSENTIAL_BELOW"),
			ReflectiveAbove: v.GetFloat64("ONBOARDING_REFLECTIVE_ABOVE"),
			RushedBelow:     v.GetDuration("ONBOARDING_RUSHED_BELOW"),
			ThoughtfulAbove: v.GetDuration("ONBOARDING_THOUGHTFUL_ABOVE"),
			SessionTTL:      v.GetDuration("ONBOARDING_SESSION_TTL"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Cache: CacheConfig{
			TTL:        v.GetDuration("CACHE_TTL"),
			MaxEntries: v.GetInt("CACHE_MAX_ENTRIES"),
		},
		Admin: AdminConfig{
			HealthCheckTimeout: v.GetDuration("HEALTH_CHECK_TIMEOUT"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.Embedding.MaxAttempts < 1 || c.Embedding.MaxAttempts > 3 {
		return fmt.Errorf("embedding max attempts must be between 1 and 3")
	}
	if c.Transcription.MinDuration >= c.Transcription.MaxDuration {
		return fmt.Errorf("transcription min duration must be below max duration")
	}
	m := c.Matching
	if m.ComplementaryWeight < 0 || m.GoalsWeight < 0 || m.ValuesWeight < 0 {
		return fmt.Errorf("match weights must not be negative")
	}
	if m.ComplementaryWeight+m.GoalsWeight+m.ValuesWeight == 0 {
		return fmt.Errorf("at least one match weight must be positive")
	}
	if m.OverlapWeight < 0 || m.OverlapWeight > 1 {
		return fmt.Errorf("match overlap weight must be within [0,1]")
	}
	if m.Concurrency < 1 || c.Embedding.Concurrency < 1 {
		return fmt.Errorf("concurrency limits must be at least 1")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
