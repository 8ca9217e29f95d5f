package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	secretsmanagertypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"
)

// AWSConfig configures the Secrets Manager provider
type AWSConfig struct {
	Region string

	// Optional shared-config profile for local development
	Profile string

	// Optional endpoint override (LocalStack)
	Endpoint string

	CacheTTL time.Duration
}

// DefaultAWSConfig returns the defaults for region
func DefaultAWSConfig(region string) AWSConfig {
	return AWSConfig{Region: region, CacheTTL: 5 * time.Minute}
}

type secretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads secrets from AWS Secrets Manager
type AWSProvider struct {
	client secretValueAPI
	cache  *secretCache
	logger *zap.Logger
}

var _ Provider = (*AWSProvider)(nil)

// NewAWSProvider loads the default credential chain and builds a client
func NewAWSProvider(ctx context.Context, cfg AWSConfig, logger *zap.Logger) (*AWSProvider, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager provider initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return newAWSProvider(secretsmanager.NewFromConfig(awsConfig, clientOptions...), cfg.CacheTTL, logger), nil
}

func newAWSProvider(client secretValueAPI, ttl time.Duration, logger *zap.Logger) *AWSProvider {
	return &AWSProvider{client: client, cache: newSecretCache(ttl), logger: logger}
}

// GetSecret fetches the current version of a secret name or ARN
func (p *AWSProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	if cached := p.cache.get(path); cached != nil {
		return cached, nil
	}

	start := time.Now()
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var notFound *secretsmanagertypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		p.logger.Error("Failed to retrieve secret", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	value := aws.ToString(out.SecretString)
	if value == "" && len(out.SecretBinary) > 0 {
		value = string(out.SecretBinary)
	}
	if value == "" {
		return nil, fmt.Errorf("%w: %s has no value", ErrSecretNotFound, path)
	}

	secret := &Secret{Value: value, Version: aws.ToString(out.VersionId)}
	p.cache.set(path, secret)

	p.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)
	return secret, nil
}
