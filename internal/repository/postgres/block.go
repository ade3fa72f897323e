package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

const blockColumns = `id, professional_id, block_date, start_time, end_time, reason, created_at, updated_at`

func (r *blockRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	query := `
		INSERT INTO availability_blocks (
			id, professional_id, block_date, start_time, end_time, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	block.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		block.ID,
		block.ProfessionalID,
		block.BlockDate,
		block.StartTime,
		block.EndTime,
		block.Reason,
		block.CreatedAt,
		block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability block: %w", err)
	}
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	query := `DELETE FROM availability_blocks WHERE id = $1 AND professional_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, professionalID)
	if err != nil {
		return fmt.Errorf("failed to delete availability block: %w", err)
	}
	return requireRow(result, "availability block")
}

func (r *blockRepository) ListByDate(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.AvailabilityBlock, error) {
	return r.ListInRange(ctx, professionalID, date, date)
}

func (r *blockRepository) ListInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM availability_blocks
		WHERE professional_id = $1
		AND block_date BETWEEN $2 AND $3
		ORDER BY block_date, start_time
	`
	blocks := []*model.AvailabilityBlock{}
	if err := r.db.SelectContext(ctx, &blocks, query, professionalID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list availability blocks: %w", err)
	}
	return blocks, nil
}
