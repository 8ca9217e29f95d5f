package ports

import (
	"context"
	"time"
)

// Lease is a held lock
type Lease interface {
	Release(ctx context.Context) error
}

// SweepLocker grants at most one holder per name until release or ttl expiry
type SweepLocker interface {
	// TryAcquire returns ok=false without error when another holder has the lock
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (lease Lease, ok bool, err error)
}
