package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

// Claim records that a reminder is about to be sent. It returns false when
// another run already claimed the same appointment and kind.
func (r *reminderRepository) Claim(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) (bool, error) {
	query := `
		INSERT INTO reminder_log (appointment_id, kind, sent_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (appointment_id, kind) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, appointmentID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// Release undoes a claim whose delivery failed so the next run retries it.
func (r *reminderRepository) Release(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) error {
	query := `DELETE FROM reminder_log WHERE appointment_id = $1 AND kind = $2`
	if _, err := r.db.ExecContext(ctx, query, appointmentID, kind); err != nil {
		return fmt.Errorf("failed to release reminder: %w", err)
	}
	return nil
}
