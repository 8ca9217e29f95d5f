package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain/ports"
)

// Locker is a process-local ports.SweepLocker. It only excludes sweeps
// within one process; use the Redis locker across replicas.
type Locker struct {
	mu    sync.Mutex
	held  map[string]hold
	token uint64
	now   func() time.Time
}

type hold struct {
	token   uint64
	expires time.Time
}

// NewLocker creates an empty local locker
func NewLocker() *Locker {
	return &Locker{held: make(map[string]hold), now: time.Now}
}

func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (ports.Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.held[name]; ok && now.Before(h.expires) {
		return nil, false, nil
	}
	l.token++
	l.held[name] = hold{token: l.token, expires: now.Add(ttl)}
	return &localLease{locker: l, name: name, token: l.token}, true, nil
}

type localLease struct {
	locker *Locker
	name   string
	token  uint64
}

// Release frees the lock unless it expired and was taken by someone else
func (ls *localLease) Release(ctx context.Context) error {
	ls.locker.mu.Lock()
	defer ls.locker.mu.Unlock()
	if h, ok := ls.locker.held[ls.name]; ok && h.token == ls.token {
		delete(ls.locker.held, ls.name)
	}
	return nil
}
