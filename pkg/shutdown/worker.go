package shutdown

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// BackgroundWorker runs one long-lived goroutine that stops on Shutdown
type BackgroundWorker struct {
	name   string
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewBackgroundWorker creates a new background worker
func NewBackgroundWorker(name string, logger *zap.Logger) *BackgroundWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundWorker{
		name:   name,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs work in a goroutine. work must return once ctx is done.
func (bw *BackgroundWorker) Start(work func(ctx context.Context)) {
	bw.wg.Add(1)
	go func() {
		defer bw.wg.Done()
		bw.logger.Info("Background worker started", zap.String("worker", bw.name))
		work(bw.ctx)
		bw.logger.Info("Background worker stopped", zap.String("worker", bw.name))
	}()
}

// Shutdown cancels the worker and waits for it, bounded by ctx
func (bw *BackgroundWorker) Shutdown(ctx context.Context) error {
	bw.once.Do(bw.cancel)

	done := make(chan struct{})
	go func() {
		bw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bw.logger.Warn("Background worker shutdown timeout", zap.String("worker", bw.name))
		return ctx.Err()
	}
}
