package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

// OutboxStore is the part of the outbox repository pkg/worker needs.
type OutboxStore interface {
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryAt time.Time) error
	MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent, errorMessage string) error
}

// OutboxPurger deletes delivered events.
type OutboxPurger interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
