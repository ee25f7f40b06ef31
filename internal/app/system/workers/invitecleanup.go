// internal/app/system/workers/invitecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	"go.uber.org/zap"
)

// InviteCleanup is a background worker that deletes expired, never-accepted
// invitations so their tokens stop resolving and their held seats free up.
type InviteCleanup struct {
	invitations *invitationstore.Store
	log         *zap.Logger
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewInviteCleanup creates a new invitation cleanup worker.
//
// Parameters:
//   - invStore: the invitations store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 1 hour)
func NewInviteCleanup(invStore *invitationstore.Store, logger *zap.Logger, interval time.Duration) *InviteCleanup {
	return &InviteCleanup{
		invitations: invStore,
		log:         logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *InviteCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invitation cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *InviteCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("invitation cleanup worker stopped")
}

func (w *InviteCleanup) run() {
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

func (w *InviteCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.invitations.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to delete expired invitations", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("deleted expired invitations", zap.Int64("count", count))
	}
}
