package calendar

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository/mocks"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

type MockNames struct {
	mock.Mock
}

func (m *MockNames) GetDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

type MockCanceler struct {
	mock.Mock
}

func (m *MockCanceler) CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func newService() (*Service, *mocks.AppointmentRepository, *MockNames, *MockCanceler, *metrics.Metrics) {
	apts, names, canceler := new(mocks.AppointmentRepository), new(MockNames), new(MockCanceler)
	m := metrics.NewMetrics("test", "calendar", prometheus.NewRegistry())
	return NewService(apts, names, canceler, logger.Nop(), m), apts, names, canceler, m
}

func apt(pid, client uuid.UUID, date, start string) *model.Appointment {
	a := &model.Appointment{
		ProfessionalID:  pid,
		ClientID:        client,
		AppointmentDate: model.MustDate(date),
		StartTime:       model.MustClock(start),
		EndTime:         model.MustClock(start).Add(30),
		Status:          model.AppointmentStatusConfirmed,
	}
	a.ID = uuid.New()
	return a
}

func TestService_Month(t *testing.T) {
	ctx := context.Background()
	pid, ana, bia, ghost := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("groups by day with names", func(t *testing.T) {
		svc, apts, names, _, _ := newService()
		late := apt(pid, ana, "2024-02-10", "15:00")
		early := apt(pid, bia, "2024-02-10", "09:00")
		other := apt(pid, ghost, "2024-02-29", "11:00")

		apts.On("ListOccupyingInRange", mock.Anything, pid, model.MustDate("2024-02-01"), model.MustDate("2024-02-29")).
			Return([]*model.Appointment{other, late, early}, nil)
		names.On("GetDisplayNames", mock.Anything, mock.MatchedBy(func(ids []uuid.UUID) bool { return len(ids) == 3 })).
			Return(map[uuid.UUID]string{ana: "Ana", bia: "Bia"}, nil)

		month, err := svc.Month(ctx, pid, 2024, 2)
		require.NoError(t, err)
		require.Len(t, month.Days, 29)
		assert.Equal(t, model.MustDate("2024-02-01"), month.Days[0].Date)
		assert.Empty(t, month.Days[0].Appointments)
		assert.NotNil(t, month.Days[0].Appointments)

		tenth := month.Days[9]
		require.Len(t, tenth.Appointments, 2)
		assert.Equal(t, "Bia", tenth.Appointments[0].ClientName)
		assert.Equal(t, "Ana", tenth.Appointments[1].ClientName)

		last := month.Days[28].Appointments
		require.Len(t, last, 1)
		assert.Equal(t, "Client", last[0].ClientName)
	})

	t.Run("name lookup failure", func(t *testing.T) {
		svc, apts, names, _, m := newService()
		apts.On("ListOccupyingInRange", mock.Anything, pid, mock.Anything, mock.Anything).
			Return([]*model.Appointment{apt(pid, ana, "2024-03-05", "10:00")}, nil)
		names.On("GetDisplayNames", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := svc.Month(ctx, pid, 2024, 3)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrDependencyFailure))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DependencyFailures.WithLabelValues(depIdentity)))
	})

	t.Run("empty month skips name lookup", func(t *testing.T) {
		svc, apts, names, _, _ := newService()
		apts.On("ListOccupyingInRange", mock.Anything, pid, mock.Anything, mock.Anything).Return([]*model.Appointment{}, nil)

		month, err := svc.Month(ctx, pid, 2023, 4)
		require.NoError(t, err)
		assert.Len(t, month.Days, 30)
		names.AssertNotCalled(t, "GetDisplayNames", mock.Anything, mock.Anything)
	})

	t.Run("bad month", func(t *testing.T) {
		svc, apts, _, _, _ := newService()
		_, err := svc.Month(ctx, pid, 2024, 13)
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
		apts.AssertNotCalled(t, "ListOccupyingInRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("read error is returned", func(t *testing.T) {
		svc, apts, _, _, _ := newService()
		apts.On("ListOccupyingInRange", mock.Anything, pid, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.Month(ctx, pid, 2024, 5)
		assert.Error(t, err)
	})
}

func TestService_Day(t *testing.T) {
	ctx := context.Background()
	pid, ana := uuid.New(), uuid.New()
	date := model.MustDate("2024-06-04")

	svc, apts, names, _, _ := newService()
	apts.On("ListOccupyingInRange", mock.Anything, pid, date, date).
		Return([]*model.Appointment{apt(pid, ana, "2024-06-04", "14:00"), apt(pid, ana, "2024-06-04", "08:30")}, nil)
	names.On("GetDisplayNames", mock.Anything, []uuid.UUID{ana}).Return(map[uuid.UUID]string{ana: "Ana"}, nil)

	day, err := svc.Day(ctx, pid, date)
	require.NoError(t, err)
	require.Len(t, day.Appointments, 2)
	assert.Equal(t, model.MustClock("08:30"), day.Appointments[0].StartTime)

	t.Run("blank display name falls back", func(t *testing.T) {
		svc, apts, names, _, _ := newService()
		apts.On("ListOccupyingInRange", mock.Anything, pid, date, date).
			Return([]*model.Appointment{apt(pid, ana, "2024-06-04", "09:00")}, nil)
		names.On("GetDisplayNames", mock.Anything, []uuid.UUID{ana}).Return(map[uuid.UUID]string{ana: "   "}, nil)

		day, err := svc.Day(ctx, pid, date)
		require.NoError(t, err)
		require.Len(t, day.Appointments, 1)
		assert.Equal(t, "Client", day.Appointments[0].ClientName)
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()
	pid, id := uuid.New(), uuid.New()

	t.Run("delegates with professional actor", func(t *testing.T) {
		svc, _, _, canceler, _ := newService()
		actor := model.Actor{UserID: uuid.New(), ProfessionalID: &pid}
		canceled := &model.Appointment{Status: model.AppointmentStatusCanceled}
		canceler.On("CancelAppointment", mock.Anything, id, actor).Return(canceled, nil)

		got, err := svc.Cancel(ctx, actor, id)
		require.NoError(t, err)
		assert.Same(t, canceled, got)
	})

	t.Run("non professional", func(t *testing.T) {
		svc, _, _, canceler, _ := newService()
		_, err := svc.Cancel(ctx, model.Actor{UserID: uuid.New()}, id)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
		canceler.AssertNotCalled(t, "CancelAppointment", mock.Anything, mock.Anything, mock.Anything)
	})
}
