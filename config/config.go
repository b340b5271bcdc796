package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Redis      RedisConfig
	Throttle   ThrottleConfig
	S3         S3Config
	Scheduler  SchedulerConfig
	Pagination PaginationConfig
}

type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:"8080"`
	GinMode         string        `envconfig:"GIN_MODE" default:"debug"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

type DatabaseConfig struct {
	Host         string `envconfig:"DB_HOST" default:"localhost"`
	Port         string `envconfig:"DB_PORT" default:"5432"`
	User         string `envconfig:"DB_USER" default:"admin"`
	Password     string `envconfig:"DB_PASSWORD" default:"1234"`
	DBName       string `envconfig:"DB_NAME" default:"littlelemon"`
	SSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	AutoMigrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

type JWTConfig struct {
	Secret      string        `envconfig:"JWT_SECRET" default:"your-secret-key"`
	TokenExpiry time.Duration `envconfig:"JWT_TOKEN_EXPIRY" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ThrottleConfig holds fixed-window limits. A zero limit disables that scope.
type ThrottleConfig struct {
	Window    time.Duration `envconfig:"THROTTLE_WINDOW" default:"1m"`
	AnonLimit int           `envconfig:"THROTTLE_ANON_LIMIT" default:"2"`
	UserLimit int           `envconfig:"THROTTLE_USER_LIMIT" default:"5"`
}

type S3Config struct {
	Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
	Bucket          string `envconfig:"AWS_S3_BUCKET"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	BaseURL         string `envconfig:"AWS_S3_BASE_URL"` // CloudFront or S3 direct URL
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type SchedulerConfig struct {
	OrderMetricsSpec string `envconfig:"ORDER_METRICS_CRON" default:"@every 1m"`
}

type PaginationConfig struct {
	DefaultLimit int `envconfig:"PAGINATION_DEFAULT_LIMIT" default:"50"`
	MaxLimit     int `envconfig:"PAGINATION_MAX_LIMIT" default:"100"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Pagination.MaxLimit <= 0 {
		cfg.Pagination.MaxLimit = 100
	}
	if cfg.Pagination.DefaultLimit <= 0 || cfg.Pagination.DefaultLimit > cfg.Pagination.MaxLimit {
		cfg.Pagination.DefaultLimit = cfg.Pagination.MaxLimit
	}

	return &cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
