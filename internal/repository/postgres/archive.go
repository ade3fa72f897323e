package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Add is idempotent; archiving twice leaves one row.
func (r *archiveRepository) Add(ctx context.Context, clientID, appointmentID uuid.UUID) error {
	query := `
		INSERT INTO archived_appointments (client_id, appointment_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (client_id, appointment_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, clientID, appointmentID); err != nil {
		return fmt.Errorf("failed to archive appointment: %w", err)
	}
	return nil
}

func (r *archiveRepository) ListIDs(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT appointment_id FROM archived_appointments WHERE client_id = $1`

	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to list archived appointments: %w", err)
	}
	return ids, nil
}
