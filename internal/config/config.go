package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the mailbox server
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	LogFormat            string
	JWTSecret            string
	JWTExpirationMinutes int
	ShutdownTimeout      time.Duration
	Database             DatabaseConfig
	Attachments          AttachmentConfig
	Telemetry            TelemetryConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// AttachmentConfig selects and configures the attachment blob backend
type AttachmentConfig struct {
	Backend  string
	Dir      string
	MaxBytes int64
	S3       S3Config
}

// S3Config holds S3 (or S3-compatible) object storage settings
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// TelemetryConfig selects where traces and metrics are exported
type TelemetryConfig struct {
	Exporter       string
	ServiceName    string
	MetricInterval time.Duration
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "mysql"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "mailbox"),
		DSN:      getEnv("DB_DSN", ""),
	}
	if dbConfig.DSN == "" {
		dsn, err := buildDSN(dbConfig)
		if err != nil {
			return nil, err
		}
		dbConfig.DSN = dsn
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	maxBytes, err := strconv.ParseInt(getEnv("ATTACHMENT_MAX_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTACHMENT_MAX_BYTES: %w", err)
	}

	pathStyle, err := strconv.ParseBool(getEnv("S3_PATH_STYLE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PATH_STYLE: %w", err)
	}

	attachments := AttachmentConfig{
		Backend:  getEnv("ATTACHMENT_BACKEND", "local"),
		Dir:      getEnv("ATTACHMENT_DIR", "./data/attachments"),
		MaxBytes: maxBytes,
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PathStyle: pathStyle,
		},
	}
	if attachments.Backend != "local" && attachments.Backend != "s3" {
		return nil, fmt.Errorf("invalid ATTACHMENT_BACKEND %q: want local or s3", attachments.Backend)
	}

	metricInterval, err := time.ParseDuration(getEnv("OTEL_METRIC_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_METRIC_INTERVAL: %w", err)
	}
	telemetry := TelemetryConfig{
		Exporter:       getEnv("OTEL_EXPORTER", "none"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "mailbox-server"),
		MetricInterval: metricInterval,
	}
	if telemetry.Exporter != "none" && telemetry.Exporter != "stdout" {
		return nil, fmt.Errorf("invalid OTEL_EXPORTER %q: want none or stdout", telemetry.Exporter)
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Origin:               getEnv("ORIGIN", "http://localhost:3000"),
		Environment:          getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
		JWTSecret:            getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTExpirationMinutes: jwtExpMinutes,
		ShutdownTimeout:      shutdownTimeout,
		Database:             dbConfig,
		Attachments:          attachments,
		Telemetry:            telemetry,
	}, nil
}

// buildDSN renders the driver specific connection string from the DB_* parts.
func buildDSN(db DatabaseConfig) (string, error) {
	switch db.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			db.Username, db.Password, db.Host, db.Port, db.Name), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.Username, db.Password, db.Name), nil
	case "sqlite":
		return db.Name + ".db", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
