package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Momo     MomoConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	MaxLifetimeMinutes int
	LogLevel           string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MomoConfig configures the momo.Scheduler facade.
type MomoConfig struct {
	// ScheduleName groups every process instance contending for the
	// same leadership slot.
	ScheduleName string
	// PingInterval is SchedulePing's liveness cadence.
	PingInterval time.Duration
	// DefaultConcurrency is loaded from MOMO_DEFAULT_CONCURRENCY. No
	// code in this module reads it: Builder defaults a job's
	// concurrency to 1 on its own when WithConcurrency is not called.
	DefaultConcurrency int
}

func LoadConfig() *Config {
	cfg, _ := Load()
	return cfg
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 5003),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			User:               getEnv("POSTGRES_USER", "momo_user"),
			Password:           getEnv("POSTGRES_PASSWORD", "momo_password"),
			DBName:             getEnv("POSTGRES_DB", "momo_db"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns:       getEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("POSTGRES_MAX_IDLE_CONNS", 10),
			MaxLifetimeMinutes: getEnvInt("POSTGRES_MAX_LIFETIME_MINS", 30),
			LogLevel:           getEnv("POSTGRES_LOG_LEVEL", "warn"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 2),
		},
		Momo: MomoConfig{
			ScheduleName:       getEnv("MOMO_SCHEDULE_NAME", "default"),
			PingInterval:       getDuration("MOMO_PING_INTERVAL", 10*time.Second),
			DefaultConcurrency: getEnvInt("MOMO_DEFAULT_CONCURRENCY", 1),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
