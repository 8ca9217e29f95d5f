package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/internal/adapters/secrets"
)

// NewSecretProvider builds the provider named by SECRETS_PROVIDER. It returns
// nil for "env", where values come straight from the environment.
func NewSecretProvider(ctx context.Context, c SecretsConfig, logger *zap.Logger) (secrets.Provider, error) {
	switch c.Provider {
	case "", "env":
		return nil, nil
	case "local":
		return secrets.NewLocalProvider(c.LocalPath, logger), nil
	case "aws":
		awsCfg := secrets.DefaultAWSConfig(c.AWSRegion)
		awsCfg.Profile = c.AWSProfile
		awsCfg.CacheTTL = c.CacheTTL
		return secrets.NewAWSProvider(ctx, awsCfg, logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(c.VaultAddr)
		vaultCfg.AuthMethod = c.VaultAuth
		vaultCfg.Token = c.VaultToken
		vaultCfg.RoleID = c.VaultRole
		vaultCfg.SecretID = c.VaultSecretID
		vaultCfg.MountPath = c.VaultMount
		vaultCfg.CacheTTL = c.CacheTTL
		return secrets.NewVaultProvider(ctx, vaultCfg, logger)
	default:
		return nil, fmt.Errorf("unknown SECRETS_PROVIDER %q", c.Provider)
	}
}

// ResolveSecrets overwrites config values whose *_SECRET_PATH is set with the
// value read from p. A nil provider leaves the config unchanged.
func (c *Config) ResolveSecrets(ctx context.Context, p secrets.Provider) error {
	if p == nil {
		return nil
	}
	return secrets.Resolve(ctx, p, c.secretBindings())
}

func (c *Config) secretBindings() []secrets.Binding {
	return []secrets.Binding{
		{Name: "JWT_SECRET", Path: c.Secrets.JWTSecretPath, Target: &c.Auth.JWTSecret},
		{Name: "CRON_SECRET", Path: c.Secrets.CronSecretPath, Target: &c.Cron.Secret},
		{Name: "DATABASE_URL", Path: c.Secrets.DatabaseURLPath, Target: &c.Storage.DatabaseURL},
		{Name: "SMTP_PASSWORD", Path: c.Secrets.SMTPPasswordPath, Target: &c.Email.SMTPPassword},
		{Name: "MAIL_RELAY_API_KEY", Path: c.Secrets.RelayAPIKeyPath, Target: &c.Email.RelayAPIKey},
	}
}

// Load reads the environment, resolves secrets through the configured provider
// and validates the result
func Load(ctx context.Context, logger *zap.Logger, envFiles ...string) (*Config, error) {
	cfg, err := LoadFromEnv(envFiles...)
	if err != nil {
		return nil, err
	}

	provider, err := NewSecretProvider(ctx, cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("init secret provider: %w", err)
	}
	if err := cfg.ResolveSecrets(ctx, provider); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
