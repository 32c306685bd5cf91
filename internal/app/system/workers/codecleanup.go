// internal/app/system/workers/codecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/rosterhub/internal/app/store/otps"
	"go.uber.org/zap"
)

// CodeCleanup is a background worker that deletes expired one-time codes.
// The TTL index does the real cleanup; this worker is a backstop for
// deployments where TTL monitors are disabled.
type CodeCleanup struct {
	codes    *otps.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCodeCleanup creates a new code cleanup worker.
func NewCodeCleanup(codeStore *otps.Store, logger *zap.Logger, interval time.Duration) *CodeCleanup {
	return &CodeCleanup{
		codes:    codeStore,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *CodeCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("code cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CodeCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("code cleanup worker stopped")
}

func (w *CodeCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *CodeCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.codes.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("failed to delete expired codes", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("deleted expired codes", zap.Int64("count", count))
	}
}
