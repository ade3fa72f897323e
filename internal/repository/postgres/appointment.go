package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
)

const appointmentColumns = `id, professional_id, client_id, appointment_date, start_time, end_time,
	status, chat_request_id, service_label, created_at, updated_at`

// claimAttempts bounds how often a claim is retried after losing a race for
// the same ordinal while free ordinals remain.
const claimAttempts = 3

func (r *appointmentRepository) CreateWithClaim(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error {
	apt.Touch(time.Now())

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO appointments (
				id, professional_id, client_id, appointment_date, start_time, end_time,
				status, chat_request_id, service_label, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.ProfessionalID,
			apt.ClientID,
			apt.AppointmentDate,
			apt.StartTime,
			apt.EndTime,
			apt.Status,
			apt.ChatRequestID,
			apt.ServiceLabel,
			apt.CreatedAt,
			apt.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if err := claimSlot(ctx, tx, apt, capacity); err != nil {
			return err
		}
		return insertOutboxTx(ctx, tx, event)
	})
}

// Reschedule moves apt to its new date and times. The row is locked first so
// a concurrent status change cannot slip between the check and the move.
func (r *appointmentRepository) Reschedule(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error {
	apt.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var status model.AppointmentStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, apt.ID)
		if err != nil {
			return notFoundOr(err, "appointment", "lock appointment")
		}
		if status != model.AppointmentStatusPending && status != model.AppointmentStatusConfirmed {
			return repository.ErrStatusConflict
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM slot_claims WHERE appointment_id = $1`, apt.ID); err != nil {
			return fmt.Errorf("failed to release slot claim: %w", err)
		}
		if err := claimSlot(ctx, tx, apt, capacity); err != nil {
			return err
		}

		query := `
			UPDATE appointments
			SET appointment_date = $1, start_time = $2, end_time = $3, updated_at = $4
			WHERE id = $5
		`
		if _, err := tx.ExecContext(ctx, query,
			apt.AppointmentDate,
			apt.StartTime,
			apt.EndTime,
			apt.UpdatedAt,
			apt.ID,
		); err != nil {
			return fmt.Errorf("failed to reschedule appointment: %w", err)
		}
		return insertOutboxTx(ctx, tx, event)
	})
}

// UpdateStatus is a compare-and-write: the row changes only while it still
// holds from. Leaving an occupying status frees the slot claim.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = $4
		`
		result, err := tx.ExecContext(ctx, query, to, time.Now(), id, from)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
				return fmt.Errorf("failed to check appointment: %w", err)
			}
			if !exists {
				return apperrors.NotFound("appointment", nil)
			}
			return repository.ErrStatusConflict
		}

		if !to.Occupies() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM slot_claims WHERE appointment_id = $1`, id); err != nil {
				return fmt.Errorf("failed to release slot claim: %w", err)
			}
		}
		return insertOutboxTx(ctx, tx, event)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, notFoundOr(err, "appointment", "get appointment")
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1 = 1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.ProfessionalID != nil {
			query += fmt.Sprintf(" AND professional_id = $%d", argCount)
			args = append(args, *filters.ProfessionalID)
			argCount++
		}
		if filters.ClientID != nil {
			query += fmt.Sprintf(" AND client_id = $%d", argCount)
			args = append(args, *filters.ClientID)
			argCount++
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, filters.From)
			argCount++
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, filters.To)
			argCount++
		}
		if len(filters.Statuses) > 0 {
			query += fmt.Sprintf(" AND status = ANY($%d)", argCount)
			args = append(args, statusStrings(filters.Statuses))
			argCount++
		}
	}

	query += " ORDER BY appointment_date ASC, start_time ASC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListOccupying(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.Appointment, error) {
	return r.ListOccupyingInRange(ctx, professionalID, date, date)
}

func (r *appointmentRepository) ListOccupyingInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE professional_id = $1
		AND appointment_date BETWEEN $2 AND $3
		AND status = ANY($4)
		ORDER BY appointment_date ASC, start_time ASC
	`
	appointments := []*model.Appointment{}
	err := r.db.SelectContext(ctx, &appointments, query, professionalID, from, to, statusStrings(model.OccupyingStatuses))
	if err != nil {
		return nil, fmt.Errorf("failed to list occupying appointments: %w", err)
	}
	return appointments, nil
}

// ListReminderCandidates returns pending and confirmed appointments dated
// within [from, to]. Callers narrow the result to their exact time window.
func (r *appointmentRepository) ListReminderCandidates(ctx context.Context, from, to model.Date) ([]*model.ReminderCandidate, error) {
	query := `
		SELECT a.id, a.client_id, a.professional_id, p.user_id AS professional_user_id,
			   a.appointment_date, a.start_time, a.chat_request_id, a.service_label
		FROM appointments a
		LEFT JOIN professionals p ON p.id = a.professional_id
		WHERE a.appointment_date BETWEEN $1 AND $2
		AND a.status IN ('pending', 'confirmed')
		ORDER BY a.appointment_date ASC, a.start_time ASC
	`
	candidates := []*model.ReminderCandidate{}
	if err := r.db.SelectContext(ctx, &candidates, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	return candidates, nil
}

// claimSlot takes the lowest free ordinal below capacity at the
// appointment's slot key. The count guard keeps occupancy within capacity
// even when a lowered capacity leaves gaps among the ordinals in use.
func claimSlot(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment, capacity int) error {
	query := `
		INSERT INTO slot_claims (professional_id, slot_date, start_time, ordinal, appointment_id)
		SELECT $1, $2, $3, s.ordinal, $4
		FROM generate_series(0, $5 - 1) AS s(ordinal)
		WHERE NOT EXISTS (
			SELECT 1 FROM slot_claims c
			WHERE c.professional_id = $1 AND c.slot_date = $2
			AND c.start_time = $3 AND c.ordinal = s.ordinal
		)
		AND (
			SELECT COUNT(*) FROM slot_claims c
			WHERE c.professional_id = $1 AND c.slot_date = $2 AND c.start_time = $3
		) < $5
		ORDER BY s.ordinal
		LIMIT 1
		ON CONFLICT DO NOTHING
		RETURNING ordinal
	`
	if capacity <= 0 {
		return repository.ErrSlotTaken
	}

	for attempt := 0; attempt < claimAttempts; attempt++ {
		var ordinal int
		err := tx.GetContext(ctx, &ordinal, query,
			apt.ProfessionalID, apt.AppointmentDate, apt.StartTime, apt.ID, capacity)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			if isUniqueViolation(err) {
				return repository.ErrSlotTaken
			}
			return fmt.Errorf("failed to claim slot: %w", err)
		}

		// Nothing inserted: either the slot is full or a concurrent
		// transaction won the ordinal we picked.
		var used int
		err = tx.GetContext(ctx, &used, `
			SELECT COUNT(*) FROM slot_claims
			WHERE professional_id = $1 AND slot_date = $2 AND start_time = $3
		`, apt.ProfessionalID, apt.AppointmentDate, apt.StartTime)
		if err != nil {
			return fmt.Errorf("failed to count slot claims: %w", err)
		}
		if used >= capacity {
			return repository.ErrSlotTaken
		}
	}
	return repository.ErrSlotTaken
}
