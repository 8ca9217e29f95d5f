package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalProvider reads secrets from files under a base directory. A file holds
// either the raw value or a JSON object {"value": "...", "version": "..."}.
// Intended for development and docker-compose secrets.
type LocalProvider struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalProvider creates a file-backed provider rooted at basePath
func NewLocalProvider(basePath string, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{basePath: basePath, logger: logger}
}

var _ Provider = (*LocalProvider)(nil)

// GetSecret reads basePath/path
func (p *LocalProvider) GetSecret(ctx context.Context, path string) (*Secret, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(p.basePath, clean)

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		return nil, fmt.Errorf("failed to read secret file: %w", err)
	}

	var doc struct {
		Value   string `json:"value"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err == nil && doc.Value != "" {
		p.logger.Debug("Secret read from file", zap.String("path", path), zap.String("format", "json"))
		return &Secret{Value: doc.Value, Version: doc.Version}, nil
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrSecretNotFound, path)
	}
	p.logger.Debug("Secret read from file", zap.String("path", path), zap.String("format", "plain"))
	return &Secret{Value: value}, nil
}
