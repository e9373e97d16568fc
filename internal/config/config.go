package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSecretKey is only acceptable outside production.
const DefaultSecretKey = "supersecretkey-change-in-production"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Crypto   CryptoConfig
	Mail     MailConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
	LoginRatePerMinute int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment     string
	Debug           bool
	LogLevel        string
	RedisURL        string
	NATSURL         string
	CacheTTLMinutes int
}

// AuthConfig holds token settings
type AuthConfig struct {
	SecretKey                string
	AccessTokenExpireMinutes int
	CookieSecure             bool
}

// StorageConfig selects where uploads are written
type StorageConfig struct {
	Provider      string
	UploadsPath   string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	S3EndpointURL string
}

// CryptoConfig locates the bank account encryption key
type CryptoConfig struct {
	GCPProjectID string
	SecretName   string
	LocalKey     string
}

// MailConfig holds SMTP settings for invoice emails
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	environment := strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvAsInt("PORT", 8000),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8000"}),
			LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "gst_billing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		App: AppConfig{
			Environment:     environment,
			Debug:           getEnvAsBool("DEBUG", false),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			RedisURL:        getEnv("REDIS_URL", ""),
			NATSURL:         getEnv("NATS_URL", ""),
			CacheTTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 10),
		},
		Auth: AuthConfig{
			SecretKey:                getEnv("SECRET_KEY", DefaultSecretKey),
			AccessTokenExpireMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			CookieSecure:             environment == "production",
		},
		Storage: StorageConfig{
			Provider:      strings.ToLower(getEnv("STORAGE_PROVIDER", "local")),
			UploadsPath:   getEnv("UPLOADS_PATH", "static/uploads"),
			S3Bucket:      getEnv("S3_BUCKET", ""),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
			S3EndpointURL: getEnv("S3_ENDPOINT_URL", ""),
		},
		Crypto: CryptoConfig{
			GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
			SecretName:   getEnv("BANK_ENCRYPTION_SECRET", ""),
			LocalKey:     getEnv("BANK_ENCRYPTION_LOCAL_KEY", ""),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			FromName: getEnv("SMTP_FROM_NAME", "GST Billing"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe or unusable
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.SecretKey == DefaultSecretKey {
		return errors.New("SECRET_KEY must be set in production")
	}
	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_PROVIDER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// CacheTTL returns the configured cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.App.CacheTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the lifetime of issued access tokens
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenExpireMinutes) * time.Minute
}

// MailEnabled reports whether SMTP delivery is configured
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.From != ""
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// InitRedis connects to Redis when REDIS_URL is set. A nil client means
// caching is disabled.
func InitRedis(cfg *Config, log *logrus.Logger) *redis.Client {
	if cfg.App.RedisURL == "" {
		log.Info("REDIS_URL not configured, caching disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, continuing without caching")
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, continuing without caching")
		_ = client.Close()
		return nil
	}

	log.Info("Connected to Redis for caching")
	return client
}

// NewLogger builds the JSON logger used by every component
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.App.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
