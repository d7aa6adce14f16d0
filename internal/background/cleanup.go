package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiringStore is any table with rows that age out
type ExpiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically purges expired sessions, magic tokens, and
// invites from the database
type CleanupManager struct {
	stores   map[string]ExpiringStore
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager. The stores map keys are
// used as the log label for each table.
func NewCleanupManager(stores map[string]ExpiringStore, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		stores:   stores,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for name, store := range cm.stores {
		rowsDeleted, err := store.DeleteExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to cleanup expired rows",
				slog.String("store", name),
				slog.Any("error", err))
			continue
		}

		if rowsDeleted > 0 {
			cm.logger.Info("expired rows cleaned up",
				slog.String("store", name),
				slog.Int64("rows_deleted", rowsDeleted))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
