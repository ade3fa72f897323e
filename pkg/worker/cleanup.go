package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/repository"
)

// OutboxCleanupWorker purges delivered outbox events older than retention.
type OutboxCleanupWorker struct {
	repo      repository.OutboxPurger
	retention time.Duration
	logger    *logger.Logger
}

func NewOutboxCleanupWorker(repo repository.OutboxPurger, retention time.Duration, logger *logger.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		logger:    logger,
	}
}

// Run performs one cleanup pass. It is meant to be scheduled.
func (w *OutboxCleanupWorker) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	w.logger.Info("Cleaned up outbox events", "deleted", rows, "cutoff", cutoff)
	return nil
}
