package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Cron        CronConfig
	Email       EmailConfig
	Secrets     SecretsConfig
	Logger      LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	MetricsPort     int
	GRPCHealthPort  int // 0 disables the gRPC health server
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimitRPS    float64
	RateLimitBurst  int
	TrustForwarded  bool
}

// StorageConfig selects and configures the repository backend
type StorageConfig struct {
	Backend       string
	DatabaseURL   string
	MaxConns      int32
	MinConns      int32
	MongoURI      string
	MongoDatabase string
}

// RedisConfig configures the sweep lock. An empty Addr uses the in-process lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// CronConfig controls the daily sweep triggers
type CronConfig struct {
	Secret           string
	SchedulerEnabled bool
	HourUTC          int
}

// EmailConfig selects the outbound mail transport: smtp, http or log
type EmailConfig struct {
	Transport    string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	RelayURL     string
	RelayAPIKey  string
}

// SecretsConfig selects where the *_SECRET_PATH values are read from:
// env (no lookup), local, aws or vault
type SecretsConfig struct {
	Provider   string
	LocalPath  string
	AWSRegion  string
	AWSProfile string
	VaultAddr  string
	VaultToken string
	VaultRole  string
	VaultAuth  string
	VaultMount string
	CacheTTL   time.Duration

	// secret paths, resolved over the env values when set
	JWTSecretPath    string
	CronSecretPath   string
	DatabaseURLPath  string
	SMTPPasswordPath string
	RelayAPIKeyPath  string

	// VaultSecretID is only read at startup for AppRole login
	VaultSecretID string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string
	Development bool
}

// LoadFromEnv loads configuration from environment variables, after reading
// any of envFiles that exist. Existing environment variables win over file values.
func LoadFromEnv(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	env := getEnv("ENVIRONMENT", "development")
	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			MetricsPort:     getEnvAsInt("METRICS_PORT", 9090),
			GRPCHealthPort:  getEnvAsInt("GRPC_HEALTH_PORT", 0),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
			TrustForwarded:  getEnvAsBool("TRUST_FORWARDED_FOR", false),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			MaxConns:      int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:      int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MongoURI:      getEnv("MONGO_URI", ""),
			MongoDatabase: getEnv("MONGO_DATABASE", "mealplan"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", ""),
		},
		Cron: CronConfig{
			Secret:           getEnv("CRON_SECRET", ""),
			SchedulerEnabled: getEnvAsBool("SWEEP_SCHEDULER_ENABLED", false),
			HourUTC:          getEnvAsInt("SWEEP_HOUR_UTC", 0),
		},
		Email: EmailConfig{
			Transport:    strings.ToLower(getEnv("EMAIL_TRANSPORT", "log")),
			From:         getEnv("EMAIL_FROM", "no-reply@mealplan.local"),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			RelayURL:     getEnv("MAIL_RELAY_URL", ""),
			RelayAPIKey:  getEnv("MAIL_RELAY_API_KEY", ""),
		},
		Secrets: SecretsConfig{
			Provider:         strings.ToLower(getEnv("SECRETS_PROVIDER", "env")),
			LocalPath:        getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:       getEnv("AWS_PROFILE", ""),
			VaultAddr:        getEnv("VAULT_ADDR", ""),
			VaultToken:       getEnv("VAULT_TOKEN", ""),
			VaultAuth:        getEnv("VAULT_AUTH_METHOD", "token"),
			VaultRole:        getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:    getEnv("VAULT_SECRET_ID", ""),
			VaultMount:       getEnv("VAULT_MOUNT_PATH", "secret"),
			CacheTTL:         getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
			JWTSecretPath:    getEnv("JWT_SECRET_PATH", ""),
			CronSecretPath:   getEnv("CRON_SECRET_PATH", ""),
			DatabaseURLPath:  getEnv("DATABASE_URL_SECRET_PATH", ""),
			SMTPPasswordPath: getEnv("SMTP_PASSWORD_SECRET_PATH", ""),
			RelayAPIKeyPath:  getEnv("MAIL_RELAY_API_KEY_SECRET_PATH", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: env == "development",
		},
	}

	return cfg, nil
}

// Validate checks the settings the selected backends need. Call it after
// secrets have been resolved.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			errs = append(errs, fmt.Errorf("MONGO_URI is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required"))
	}
	if c.Cron.HourUTC < 0 || c.Cron.HourUTC > 23 {
		errs = append(errs, fmt.Errorf("SWEEP_HOUR_UTC must be between 0 and 23"))
	}

	switch c.Email.Transport {
	case "log":
	case "smtp":
		if c.Email.SMTPHost == "" {
			errs = append(errs, fmt.Errorf("SMTP_HOST is required for the smtp transport"))
		}
	case "http":
		if c.Email.RelayURL == "" {
			errs = append(errs, fmt.Errorf("MAIL_RELAY_URL is required for the http transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_TRANSPORT %q", c.Email.Transport))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
