package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/agenda-api/internal/model"
)

func (r *offeringRepository) Create(ctx context.Context, offering *model.ServiceOffering) error {
	query := `
		INSERT INTO agenda_services (
			id, professional_id, name, duration_minutes, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	offering.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		offering.ID,
		offering.ProfessionalID,
		offering.Name,
		offering.DurationMinutes,
		offering.Active,
		offering.CreatedAt,
		offering.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *offeringRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*model.ServiceOffering, error) {
	query := `
		SELECT id, professional_id, name, duration_minutes, active, created_at, updated_at
		FROM agenda_services
		WHERE professional_id = $1
	`
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY name"

	offerings := []*model.ServiceOffering{}
	if err := r.db.SelectContext(ctx, &offerings, query, professionalID); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return offerings, nil
}

func (r *offeringRepository) GetMany(ctx context.Context, professionalID uuid.UUID, ids []uuid.UUID) ([]*model.ServiceOffering, error) {
	query := `
		SELECT id, professional_id, name, duration_minutes, active, created_at, updated_at
		FROM agenda_services
		WHERE professional_id = $1 AND id = ANY($2)
	`
	keys := make(pq.StringArray, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	offerings := []*model.ServiceOffering{}
	if err := r.db.SelectContext(ctx, &offerings, query, professionalID, keys); err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	return offerings, nil
}
