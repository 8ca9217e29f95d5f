package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSecretNotFound is returned when a path holds no secret
var ErrSecretNotFound = errors.New("secret not found")

// Secret is one resolved secret value
type Secret struct {
	Value   string
	Version string
}

// Provider reads secrets by path. Implementations cache reads for their
// configured TTL.
type Provider interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}

// Binding maps a secret path onto a config field. An empty Path leaves the
// target untouched.
type Binding struct {
	Name   string
	Path   string
	Target *string
}

// Resolve reads every bound path from p and writes the value into its target
func Resolve(ctx context.Context, p Provider, bindings []Binding) error {
	for _, b := range bindings {
		if b.Path == "" || b.Target == nil {
			continue
		}
		secret, err := p.GetSecret(ctx, b.Path)
		if err != nil {
			return fmt.Errorf("resolve %s from %s: %w", b.Name, b.Path, err)
		}
		*b.Target = secret.Value
	}
	return nil
}

type cacheEntry struct {
	secret    *Secret
	expiresAt time.Time
}

// secretCache is a TTL cache shared by the remote providers
type secretCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newSecretCache(ttl time.Duration) *secretCache {
	return &secretCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *secretCache) get(key string) *Secret {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil
	}
	return entry.secret
}

func (c *secretCache) set(key string, secret *Secret) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{secret: secret, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
