package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// VaultConfig configures the Vault KV provider
type VaultConfig struct {
	Address string

	// "token" or "approle"
	AuthMethod string
	Token      string
	RoleID     string
	SecretID   string

	// Vault Enterprise namespace
	Namespace string

	// KV mount (default "secret") and engine version "v1" or "v2"
	MountPath string
	KVVersion string

	CacheTTL      time.Duration
	TLSSkipVerify bool
}

// DefaultVaultConfig returns token auth against a KV v2 mount named "secret"
func DefaultVaultConfig(address string) VaultConfig {
	return VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		KVVersion:  "v2",
		CacheTTL:   5 * time.Minute,
	}
}

// VaultProvider reads secrets from a Vault KV engine
type VaultProvider struct {
	client *vault.Client
	config VaultConfig
	cache  *secretCache
	logger *zap.Logger
}

var _ Provider = (*VaultProvider)(nil)

// NewVaultProvider creates a client and authenticates it
func NewVaultProvider(ctx context.Context, cfg VaultConfig, logger *zap.Logger) (*VaultProvider, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}
	if cfg.KVVersion == "" {
		cfg.KVVersion = "v2"
	}

	logger.Info("Vault provider initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &VaultProvider{
		client: client,
		config: cfg,
		cache:  newSecretCache(cfg.CacheTTL),
		logger: logger,
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg VaultConfig) error {
	switch cfg.AuthMethod {
	case "token", "":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret reads mount/path and returns its "value" field, or the first
// string field when there is none
func (p *VaultProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	if cached := p.cache.get(path); cached != nil {
		return cached, nil
	}

	fullPath := fmt.Sprintf("%s/%s", p.config.MountPath, path)
	if p.config.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/data/%s", p.config.MountPath, path)
	}

	resp, err := p.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		p.logger.Error("Failed to retrieve secret from Vault", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}

	data := resp.Data
	version := "1"
	if p.config.KVVersion == "v2" {
		inner, ok := resp.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid secret format from Vault at %s", path)
		}
		data = inner
		if meta, ok := resp.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := meta["version"].(json.Number); ok {
				version = v.String()
			}
		}
	}

	value, _ := data["value"].(string)
	if value == "" {
		for _, v := range data {
			if s, ok := v.(string); ok && s != "" {
				value = s
				break
			}
		}
	}
	if value == "" {
		return nil, fmt.Errorf("%w: %s has no value", ErrSecretNotFound, path)
	}

	secret := &Secret{Value: value, Version: version}
	p.cache.set(path, secret)
	return secret, nil
}
