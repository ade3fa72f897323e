package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

var (
	// ErrSlotTaken means no free ordinal below capacity was left for the
	// slot key when the claim was written.
	ErrSlotTaken = errors.New("slot claim rejected")
	// ErrStatusConflict means the row no longer had the expected status.
	ErrStatusConflict = errors.New("appointment status changed concurrently")
)

// All repository interfaces in one file
type (
	// RuleRepository stores recurring weekly availability templates.
	RuleRepository interface {
		Create(ctx context.Context, rule *model.AvailabilityRule) error
		Update(ctx context.Context, rule *model.AvailabilityRule) error
		Delete(ctx context.Context, professionalID, id uuid.UUID) error
		Get(ctx context.Context, professionalID, id uuid.UUID) (*model.AvailabilityRule, error)
		ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error)
	}

	// BlockRepository stores date-scoped exclusions.
	BlockRepository interface {
		Create(ctx context.Context, block *model.AvailabilityBlock) error
		Delete(ctx context.Context, professionalID, id uuid.UUID) error
		ListByDate(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.AvailabilityBlock, error)
		ListInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error)
	}

	OfferingRepository interface {
		Create(ctx context.Context, offering *model.ServiceOffering) error
		ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*model.ServiceOffering, error)
		GetMany(ctx context.Context, professionalID uuid.UUID, ids []uuid.UUID) ([]*model.ServiceOffering, error)
	}

	// AppointmentRepository persists bookings. Every write that changes which
	// slot an appointment occupies also maintains its slot claim in the same
	// transaction, and may carry an outbox event written atomically with it.
	AppointmentRepository interface {
		CreateWithClaim(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error
		Reschedule(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListOccupying(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.Appointment, error)
		ListOccupyingInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.Appointment, error)
		ListReminderCandidates(ctx context.Context, from, to model.Date) ([]*model.ReminderCandidate, error)
	}

	// ArchiveRepository is the per-client set of hidden appointment ids.
	ArchiveRepository interface {
		Add(ctx context.Context, clientID, appointmentID uuid.UUID) error
		ListIDs(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryAt time.Time) error
		MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent, errorMessage string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// ReminderRepository dedups reminders per appointment and kind.
	ReminderRepository interface {
		Claim(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) (bool, error)
		Release(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
	}

	ConversationRepository interface {
		AppendMessage(ctx context.Context, msg *model.SystemMessage) error
	}

	ProfileRepository interface {
		GetProfiles(ctx context.Context, userIDs []uuid.UUID) ([]*model.Profile, error)
		ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error)
	}
)
