package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Data source 종류
const (
	DataSourceMemory   = "memory"
	DataSourcePostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// API
	API APIConfig

	// Risk engine
	Risk RiskConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// APIConfig holds REST API configuration
type APIConfig struct {
	RateLimit       int           // 윈도우당 요청 수 (0 = 제한 없음)
	RateWindow      time.Duration // rate limit 윈도우
	RequestTimeout  time.Duration // 요청당 계산 제한 시간
	ShutdownTimeout time.Duration
}

// RiskConfig holds risk engine wiring configuration
type RiskConfig struct {
	ConfigPath string // YAML 경로 (비어 있으면 내장 기본값)
	DataSource string // memory, postgres
	Workers    int    // 상관행렬 worker 수 (0 = YAML 값)
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	WatchSchedule string // 비어 있으면 YAML watch.schedule
	MaxRetries    int
	RetryDelay    time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// API
		API: APIConfig{
			RateLimit:       getEnvAsInt("API_RATE_LIMIT", 120),
			RateWindow:      getEnvAsDuration("API_RATE_WINDOW", "1m"),
			RequestTimeout:  getEnvAsDuration("API_REQUEST_TIMEOUT", "30s"),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", "10s"),
		},

		// Risk engine
		Risk: RiskConfig{
			ConfigPath: getEnv("RISK_CONFIG_PATH", ""),
			DataSource: getEnv("DATA_SOURCE", DataSourceMemory),
			Workers:    getEnvAsInt("RISK_WORKERS", 0),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			WatchSchedule: getEnv("RISK_WATCH_SCHEDULE", ""),
			MaxRetries:    getEnvAsInt("SCHEDULER_MAX_RETRIES", 2),
			RetryDelay:    getEnvAsDuration("SCHEDULER_RETRY_DELAY", "30s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// UsesPostgres reports whether returns are read from PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Risk.DataSource == DataSourcePostgres
}

// validate 모든 위반 사항을 모아서 반환 (errors.Join)
func (c *Config) validate() error {
	var errs []error

	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, errors.New("ENV must be one of: development, staging, production"))
	}

	switch c.Risk.DataSource {
	case DataSourceMemory:
	case DataSourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DATA_SOURCE=postgres"))
		}
	default:
		errs = append(errs, errors.New("DATA_SOURCE must be one of: memory, postgres"))
	}

	switch c.LogFormat {
	case "json", "console", "pretty":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be one of: json, console, pretty", c.LogFormat))
	}

	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must be >= 0"))
	}
	if c.API.RateLimit > 0 && c.API.RateWindow <= 0 {
		errs = append(errs, errors.New("API_RATE_WINDOW must be > 0 when rate limiting is on"))
	}
	if c.Risk.Workers < 0 {
		errs = append(errs, errors.New("RISK_WORKERS must be >= 0"))
	}
	if c.Scheduler.MaxRetries < 0 {
		errs = append(errs, errors.New("SCHEDULER_MAX_RETRIES must be >= 0"))
	}

	return errors.Join(errs...)
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
