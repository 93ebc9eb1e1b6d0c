package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Parser     ParserConfig
	Cache      CacheConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	RequestTimeout int // seconds
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit     int
	MaxLimit         int
	GeneralRadius    int // meters, ~15 minutes walking at 5 km/h
	StationRadius    int // meters
	CandidateFactor  int // SQL rows fetched per requested result, before post-filters
	BackfillWorkers  int
	DistanceTieRange float64 // meters
}

// ParserConfig holds the query-parser thresholds
type ParserConfig struct {
	EscalationThreshold float64
	LocationThreshold   float64
	TypeThreshold       float64
	MaxLengthRatio      float64
	ModelTimeout        int // seconds
}

// CacheConfig selects the parse-cache backend
type CacheConfig struct {
	Backend       string // memory|redis|badger
	TTL           int    // seconds
	KeyPrefix     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BadgerDir     string
	PurgeInterval int // seconds between memory-cache sweeps, 0 disables
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the /metrics endpoint
type MetricsConfig struct {
	Enabled bool
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey            string
	APIBase           string
	ChatModel         string
	ChatTemperature   float64
	ChatMaxTokens     int
	Timeout           int // seconds
	RequestsPerSecond int
	Enabled           bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_search"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			RequestTimeout: getEnvAsInt("SERVER_REQUEST_TIMEOUT", 15),
		},
		Search: SearchConfig{
			DefaultLimit:     getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:         getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			GeneralRadius:    getEnvAsInt("SEARCH_GENERAL_RADIUS_M", 1250),
			StationRadius:    getEnvAsInt("SEARCH_STATION_RADIUS_M", 1800),
			CandidateFactor:  getEnvAsInt("SEARCH_CANDIDATE_FACTOR", 5),
			BackfillWorkers:  getEnvAsInt("SEARCH_BACKFILL_WORKERS", 8),
			DistanceTieRange: getEnvAsFloat("SEARCH_DISTANCE_TIE_M", 50),
		},
		Parser: ParserConfig{
			EscalationThreshold: getEnvAsFloat("PARSER_ESCALATION_THRESHOLD", 0.7),
			LocationThreshold:   getEnvAsFloat("PARSER_LOCATION_THRESHOLD", 0.65),
			TypeThreshold:       getEnvAsFloat("PARSER_TYPE_THRESHOLD", 0.6),
			MaxLengthRatio:      getEnvAsFloat("PARSER_MAX_LENGTH_RATIO", 1.5),
			ModelTimeout:        getEnvAsInt("PARSER_MODEL_TIMEOUT", 8),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "memory"),
			TTL:           getEnvAsInt("CACHE_TTL", 3600),
			KeyPrefix:     getEnv("CACHE_KEY_PREFIX", "propsearch:"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			BadgerDir:     getEnv("BADGER_DIR", ""),
			PurgeInterval: getEnvAsInt("CACHE_PURGE_INTERVAL", 300),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		OpenAI: OpenAIConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			APIBase:           getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:         getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature:   getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.1),
			ChatMaxTokens:     getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 512),
			Timeout:           getEnvAsInt("OPENAI_TIMEOUT", 30),
			RequestsPerSecond: getEnvAsInt("OPENAI_RPS", 5),
			Enabled:           getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		return nil, fmt.Errorf("SEARCH_MAX_LIMIT (%d) must not be below SEARCH_DEFAULT_LIMIT (%d)",
			cfg.Search.MaxLimit, cfg.Search.DefaultLimit)
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
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
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}
