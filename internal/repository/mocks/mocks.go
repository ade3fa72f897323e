// Package mocks holds testify doubles for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/agenda-api/internal/model"
)

type RuleRepository struct {
	mock.Mock
}

func (m *RuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *RuleRepository) Update(ctx context.Context, rule *model.AvailabilityRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *RuleRepository) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	return m.Called(ctx, professionalID, id).Error(0)
}

func (m *RuleRepository) Get(ctx context.Context, professionalID, id uuid.UUID) (*model.AvailabilityRule, error) {
	args := m.Called(ctx, professionalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AvailabilityRule), args.Error(1)
}

func (m *RuleRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*model.AvailabilityRule, error) {
	args := m.Called(ctx, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AvailabilityRule), args.Error(1)
}

type BlockRepository struct {
	mock.Mock
}

func (m *BlockRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	return m.Called(ctx, block).Error(0)
}

func (m *BlockRepository) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	return m.Called(ctx, professionalID, id).Error(0)
}

func (m *BlockRepository) ListByDate(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.AvailabilityBlock, error) {
	args := m.Called(ctx, professionalID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AvailabilityBlock), args.Error(1)
}

func (m *BlockRepository) ListInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.AvailabilityBlock, error) {
	args := m.Called(ctx, professionalID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AvailabilityBlock), args.Error(1)
}

type OfferingRepository struct {
	mock.Mock
}

func (m *OfferingRepository) Create(ctx context.Context, offering *model.ServiceOffering) error {
	return m.Called(ctx, offering).Error(0)
}

func (m *OfferingRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*model.ServiceOffering, error) {
	args := m.Called(ctx, professionalID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ServiceOffering), args.Error(1)
}

func (m *OfferingRepository) GetMany(ctx context.Context, professionalID uuid.UUID, ids []uuid.UUID) ([]*model.ServiceOffering, error) {
	args := m.Called(ctx, professionalID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ServiceOffering), args.Error(1)
}

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) CreateWithClaim(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error {
	return m.Called(ctx, apt, capacity, event).Error(0)
}

func (m *AppointmentRepository) Reschedule(ctx context.Context, apt *model.Appointment, capacity int, event *model.OutboxEvent) error {
	return m.Called(ctx, apt, capacity, event).Error(0)
}

func (m *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, event *model.OutboxEvent) error {
	return m.Called(ctx, id, from, to, event).Error(0)
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *AppointmentRepository) ListOccupying(ctx context.Context, professionalID uuid.UUID, date model.Date) ([]*model.Appointment, error) {
	args := m.Called(ctx, professionalID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *AppointmentRepository) ListOccupyingInRange(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.Appointment, error) {
	args := m.Called(ctx, professionalID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *AppointmentRepository) ListReminderCandidates(ctx context.Context, from, to model.Date) ([]*model.ReminderCandidate, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReminderCandidate), args.Error(1)
}

type ArchiveRepository struct {
	mock.Mock
}

func (m *ArchiveRepository) Add(ctx context.Context, clientID, appointmentID uuid.UUID) error {
	return m.Called(ctx, clientID, appointmentID).Error(0)
}

func (m *ArchiveRepository) ListIDs(ctx context.Context, clientID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OutboxEvent), args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *OutboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, errorMessage string, retryAt time.Time) error {
	return m.Called(ctx, id, errorMessage, retryAt).Error(0)
}

func (m *OutboxRepository) MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent, errorMessage string) error {
	return m.Called(ctx, event, errorMessage).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type ReminderRepository struct {
	mock.Mock
}

func (m *ReminderRepository) Claim(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) (bool, error) {
	args := m.Called(ctx, appointmentID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *ReminderRepository) Release(ctx context.Context, appointmentID uuid.UUID, kind model.ReminderKind) error {
	return m.Called(ctx, appointmentID, kind).Error(0)
}
