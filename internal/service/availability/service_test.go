package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository/mocks"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

type fixture struct {
	svc       *Service
	rules     *mocks.RuleRepository
	blocks    *mocks.BlockRepository
	apts      *mocks.AppointmentRepository
	offerings *mocks.OfferingRepository
}

func newFixture() *fixture {
	f := &fixture{
		rules:     new(mocks.RuleRepository),
		blocks:    new(mocks.BlockRepository),
		apts:      new(mocks.AppointmentRepository),
		offerings: new(mocks.OfferingRepository),
	}
	f.svc = NewService(f.rules, f.blocks, f.apts, f.offerings,
		Config{HorizonDays: 60, MaxHorizonDays: 90, Location: time.UTC},
		logger.Nop(), metrics.NewNop())
	// Monday 2024-06-03
	f.svc.now = func() time.Time { return time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC) }
	return f
}

func tuesdayRule(pid uuid.UUID) *model.AvailabilityRule {
	return &model.AvailabilityRule{
		ProfessionalID:      pid,
		Weekday:             2,
		StartTime:           model.MustClock("09:00"),
		EndTime:             model.MustClock("12:00"),
		SlotIntervalMinutes: 60,
		Capacity:            2,
	}
}

func TestService_ResolveDay(t *testing.T) {
	ctx := context.Background()
	pid := uuid.New()
	tuesday := model.MustDate("2024-06-04")
	block := &model.AvailabilityBlock{
		ProfessionalID: pid,
		BlockDate:      tuesday,
		StartTime:      model.MustClock("10:00"),
		EndTime:        model.MustClock("10:30"),
	}

	t.Run("worked example", func(t *testing.T) {
		f := newFixture()
		pending := &model.Appointment{StartTime: model.MustClock("09:00"), Status: model.AppointmentStatusPending}
		pending.ID = uuid.New()

		f.rules.On("ListByProfessional", ctx, pid).Return([]*model.AvailabilityRule{tuesdayRule(pid)}, nil)
		f.blocks.On("ListByDate", ctx, pid, tuesday).Return([]*model.AvailabilityBlock{block}, nil)
		f.apts.On("ListOccupying", ctx, pid, tuesday).Return([]*model.Appointment{pending}, nil)

		slots, err := f.svc.ResolveDay(ctx, pid, tuesday, 60, nil)
		require.NoError(t, err)
		assert.Equal(t, []model.Slot{
			{Start: model.MustClock("09:00"), Capacity: 2, Occupied: 1, Remaining: 1},
			{Start: model.MustClock("11:00"), Capacity: 2, Occupied: 0, Remaining: 2},
		}, slots)

		// excluding the pending appointment frees its seat again
		slots, err = f.svc.ResolveDay(ctx, pid, tuesday, 60, &pending.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, slots[0].Remaining)
	})

	t.Run("no rules short-circuits", func(t *testing.T) {
		f := newFixture()
		f.rules.On("ListByProfessional", ctx, pid).Return([]*model.AvailabilityRule{}, nil)

		slots, err := f.svc.ResolveDay(ctx, pid, tuesday, 60, nil)
		require.NoError(t, err)
		assert.Empty(t, slots)
		f.blocks.AssertNotCalled(t, "ListByDate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("read failure is an error, not an empty list", func(t *testing.T) {
		f := newFixture()
		f.rules.On("ListByProfessional", ctx, pid).Return([]*model.AvailabilityRule{tuesdayRule(pid)}, nil)
		f.blocks.On("ListByDate", ctx, pid, tuesday).Return(nil, errors.New("db down"))

		slots, err := f.svc.ResolveDay(ctx, pid, tuesday, 60, nil)
		assert.Error(t, err)
		assert.Nil(t, slots)
	})

	t.Run("non-positive duration is validated before reads", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ResolveDay(ctx, pid, tuesday, 0, nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
		f.rules.AssertNotCalled(t, "ListByProfessional", mock.Anything, mock.Anything)
	})
}

func TestService_AvailableDates(t *testing.T) {
	ctx := context.Background()
	pid := uuid.New()
	today := model.MustDate("2024-06-03")

	t.Run("lists tuesdays with free slots", func(t *testing.T) {
		f := newFixture()
		end := today.AddDays(13)
		full := []*model.Appointment{
			{AppointmentDate: model.MustDate("2024-06-04"), StartTime: model.MustClock("09:00"), Status: model.AppointmentStatusConfirmed},
			{AppointmentDate: model.MustDate("2024-06-04"), StartTime: model.MustClock("09:00"), Status: model.AppointmentStatusPending},
		}
		rule := tuesdayRule(pid)
		rule.EndTime = model.MustClock("10:00")

		f.rules.On("ListByProfessional", ctx, pid).Return([]*model.AvailabilityRule{rule}, nil)
		f.blocks.On("ListInRange", ctx, pid, today, end).Return([]*model.AvailabilityBlock{}, nil)
		f.apts.On("ListOccupyingInRange", ctx, pid, today, end).Return(full, nil)

		dates, err := f.svc.AvailableDates(ctx, pid, today, 14, 60)
		require.NoError(t, err)
		assert.Equal(t, []model.Date{model.MustDate("2024-06-11")}, dates)
	})

	t.Run("past start is clamped to today", func(t *testing.T) {
		f := newFixture()
		from := model.MustDate("2024-05-31")
		f.rules.On("ListByProfessional", ctx, pid).Return([]*model.AvailabilityRule{tuesdayRule(pid)}, nil)
		f.blocks.On("ListInRange", ctx, pid, today, from.AddDays(6)).Return([]*model.AvailabilityBlock{}, nil)
		f.apts.On("ListOccupyingInRange", ctx, pid, today, from.AddDays(6)).Return([]*model.Appointment{}, nil)

		dates, err := f.svc.AvailableDates(ctx, pid, from, 7, 60)
		require.NoError(t, err)
		assert.Equal(t, []model.Date{model.MustDate("2024-06-04")}, dates)
	})

	t.Run("horizon above max", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AvailableDates(ctx, pid, today, 91, 60)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}

func TestService_ServiceDuration(t *testing.T) {
	ctx := context.Background()
	pid := uuid.New()
	cut := &model.ServiceOffering{ProfessionalID: pid, Name: "Cut", DurationMinutes: 30, Active: true}
	cut.ID = uuid.New()
	beard := &model.ServiceOffering{ProfessionalID: pid, Name: "Beard", DurationMinutes: 20, Active: true}
	beard.ID = uuid.New()
	retired := &model.ServiceOffering{ProfessionalID: pid, Name: "Old", DurationMinutes: 20, Active: false}
	retired.ID = uuid.New()

	t.Run("explicit duration", func(t *testing.T) {
		f := newFixture()
		d, label, err := f.svc.ServiceDuration(ctx, pid, 45, nil)
		require.NoError(t, err)
		assert.Equal(t, 45, d)
		assert.Nil(t, label)
	})

	t.Run("sums services in request order", func(t *testing.T) {
		f := newFixture()
		ids := []uuid.UUID{cut.ID, beard.ID}
		f.offerings.On("GetMany", ctx, pid, ids).Return([]*model.ServiceOffering{beard, cut}, nil)

		d, label, err := f.svc.ServiceDuration(ctx, pid, 0, ids)
		require.NoError(t, err)
		assert.Equal(t, 50, d)
		require.NotNil(t, label)
		assert.Equal(t, "Cut + Beard", *label)
	})

	t.Run("inactive service", func(t *testing.T) {
		f := newFixture()
		ids := []uuid.UUID{retired.ID}
		f.offerings.On("GetMany", ctx, pid, ids).Return([]*model.ServiceOffering{retired}, nil)

		_, _, err := f.svc.ServiceDuration(ctx, pid, 0, ids)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})

	t.Run("missing duration", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.svc.ServiceDuration(ctx, pid, 0, nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	})
}
