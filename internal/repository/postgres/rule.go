package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

const ruleColumns = `id, professional_id, weekday, start_time, end_time,
	slot_interval_minutes, capacity, created_at, updated_at`

func (r *ruleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (
			id, professional_id, weekday, start_time, end_time,
			slot_interval_minutes, capacity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	rule.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.ProfessionalID,
		rule.Weekday,
		rule.StartTime,
		rule.EndTime,
		rule.SlotIntervalMinutes,
		rule.Capacity,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability rule: %w", err)
	}
	return nil
}

func (r *ruleRepository) Update(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		UPDATE availability_rules
		SET weekday = $1, start_time = $2, end_time = $3,
			slot_interval_minutes = $4, capacity = $5, updated_at = $6
		WHERE id = $7 AND professional_id = $8
	`
	rule.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		rule.Weekday,
		rule.StartTime,
		rule.EndTime,
		rule.SlotIntervalMinutes,
		rule.Capacity,
		rule.UpdatedAt,
		rule.ID,
		rule.ProfessionalID,
	)
	if err != nil {
		return fmt.Errorf("failed to update availability rule: %w", err)
	}
	return requireRow(result, "availability rule")
}

func (r *ruleRepository) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	query := `DELETE FROM availability_rules WHERE id = $1 AND professional_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, professionalID)
	if err != nil {
		return fmt.Errorf("failed to delete availability rule: %w", err)
	}
	return requireRow(result, "availability rule")
}

func (r *ruleRepository) Get(ctx context.Context, professionalID, id uuid.UUID) (*model.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE id = $1 AND professional_id = $2`

	var rule model.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id, professionalID); err != nil {
		return nil, notFoundOr(err, "availability rule", "get availability rule")
	}
	return &rule, nil
}

// ListByProfessional returns rules in a stable order so slot generation sees
// the same input on every call.
func (r *ruleRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE professional_id = $1
		ORDER BY weekday, start_time, id
	`
	rules := []*model.AvailabilityRule{}
	if err := r.db.SelectContext(ctx, &rules, query, professionalID); err != nil {
		return nil, fmt.Errorf("failed to list availability rules: %w", err)
	}
	return rules, nil
}
