package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("EMAIL_TRANSPORT", "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "log", cfg.Email.Transport)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/mealplan")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SWEEP_SCHEDULER_ENABLED", "true")
	t.Setenv("SWEEP_HOUR_UTC", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Cron.SchedulerEnabled)
	assert.Equal(t, 3, cfg.Cron.HourUTC)
	assert.Equal(t, 2.5, cfg.Server.RateLimitRPS)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadFromEnv_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("MONGO_DATABASE=from_file\nJWT_ISSUER=from_file\n"), 0o600))

	// godotenv does not override variables that are already set
	t.Setenv("JWT_ISSUER", "from_env")
	t.Setenv("MONGO_DATABASE", "")
	os.Unsetenv("MONGO_DATABASE")

	cfg, err := LoadFromEnv(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.Storage.MongoDatabase)
	assert.Equal(t, "from_env", cfg.Auth.JWTIssuer)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{Backend: BackendMemory},
			Auth:    AuthConfig{JWTSecret: "s"},
			Email:   EmailConfig{Transport: "log"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"postgres needs url", func(c *Config) { c.Storage.Backend = BackendPostgres }, "DATABASE_URL"},
		{"mongo needs uri", func(c *Config) { c.Storage.Backend = BackendMongo }, "MONGO_URI"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "cassandra" }, "STORAGE_BACKEND"},
		{"jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"sweep hour", func(c *Config) { c.Cron.HourUTC = 24 }, "SWEEP_HOUR_UTC"},
		{"smtp host", func(c *Config) { c.Email.Transport = "smtp" }, "SMTP_HOST"},
		{"relay url", func(c *Config) { c.Email.Transport = "http" }, "MAIL_RELAY_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_ResolvesLocalSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt"), []byte("file-jwt\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cron"), []byte(`{"value":"file-cron"}`), 0o600))

	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("EMAIL_TRANSPORT", "log")
	t.Setenv("SECRETS_PROVIDER", "local")
	t.Setenv("SECRETS_LOCAL_PATH", dir)
	t.Setenv("JWT_SECRET", "env-jwt")
	t.Setenv("JWT_SECRET_PATH", "jwt")
	t.Setenv("CRON_SECRET_PATH", "cron")

	cfg, err := Load(context.Background(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "file-jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, "file-cron", cfg.Cron.Secret)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("SECRETS_PROVIDER", "local")
	t.Setenv("SECRETS_LOCAL_PATH", t.TempDir())
	t.Setenv("JWT_SECRET_PATH", "absent")

	_, err := Load(context.Background(), zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewSecretProvider_Unknown(t *testing.T) {
	_, err := NewSecretProvider(context.Background(), SecretsConfig{Provider: "gcp"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "gcp")

	p, err := NewSecretProvider(context.Background(), SecretsConfig{Provider: "env"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, p)
}
