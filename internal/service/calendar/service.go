package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

const (
	depIdentity = "identity"

	// fallbackClientName is shown when the identity service has no usable name.
	fallbackClientName = "Client"
)

// Names resolves client display names.
type Names interface {
	GetDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Canceler is the booking operation the calendar delegates to.
type Canceler interface {
	CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error)
}

type Service struct {
	appointments repository.AppointmentRepository
	names        Names
	canceler     Canceler
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(appointments repository.AppointmentRepository, names Names, canceler Canceler, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		appointments: appointments,
		names:        names,
		canceler:     canceler,
		logger:       logger,
		metrics:      metrics,
	}
}

// Month groups the professional's active appointments by date. Every day of
// the month is present, in order.
func (s *Service) Month(ctx context.Context, professionalID uuid.UUID, year, month int) (*model.CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.Validation("month must be between 1 and 12", nil)
	}
	if year < 1970 || year > 9999 {
		return nil, apperrors.Validation("year is out of range", nil)
	}

	first, last := model.NewDate(year, time.Month(month), 1).MonthBounds()
	entries, err := s.load(ctx, professionalID, first, last)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]*model.CalendarEntry)
	for _, e := range entries {
		key := e.AppointmentDate.String()
		byDate[key] = append(byDate[key], e)
	}

	out := &model.CalendarMonth{ProfessionalID: professionalID, Year: year, Month: month}
	for d := first; !d.After(last); d = d.AddDays(1) {
		day := byDate[d.String()]
		if day == nil {
			day = []*model.CalendarEntry{}
		}
		out.Days = append(out.Days, &model.CalendarDay{Date: d, Appointments: day})
	}
	return out, nil
}

func (s *Service) Day(ctx context.Context, professionalID uuid.UUID, date model.Date) (*model.CalendarDay, error) {
	if date.IsZero() {
		return nil, apperrors.Validation("date is required", nil)
	}
	entries, err := s.load(ctx, professionalID, date, date)
	if err != nil {
		return nil, err
	}
	return &model.CalendarDay{Date: date, Appointments: entries}, nil
}

// Cancel cancels an appointment from the calendar on behalf of its professional.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, appointmentID uuid.UUID) (*model.Appointment, error) {
	if actor.ProfessionalID == nil {
		return nil, apperrors.Forbidden("only professionals manage a calendar")
	}
	return s.canceler.CancelAppointment(ctx, appointmentID, actor)
}

// load reads the range ordered by date then start and attaches client names.
func (s *Service) load(ctx context.Context, professionalID uuid.UUID, from, to model.Date) ([]*model.CalendarEntry, error) {
	apts, err := s.appointments.ListOccupyingInRange(ctx, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar: %w", err)
	}
	sort.SliceStable(apts, func(i, j int) bool {
		if !apts[i].AppointmentDate.Equal(apts[j].AppointmentDate) {
			return apts[i].AppointmentDate.Before(apts[j].AppointmentDate)
		}
		return apts[i].StartTime < apts[j].StartTime
	})

	entries := make([]*model.CalendarEntry, 0, len(apts))
	if len(apts) == 0 {
		return entries, nil
	}

	ids := make([]uuid.UUID, 0, len(apts))
	seen := make(map[uuid.UUID]struct{}, len(apts))
	for _, a := range apts {
		if _, ok := seen[a.ClientID]; !ok {
			seen[a.ClientID] = struct{}{}
			ids = append(ids, a.ClientID)
		}
	}
	names, err := s.names.GetDisplayNames(ctx, ids)
	if err != nil {
		s.metrics.DependencyFailures.WithLabelValues(depIdentity).Inc()
		s.logger.Error(err, "display name lookup failed", "professional_id", professionalID.String())
		return nil, apperrors.DependencyFailure(depIdentity, err)
	}

	for _, a := range apts {
		entries = append(entries, &model.CalendarEntry{Appointment: a, ClientName: clientName(names, a.ClientID)})
	}
	return entries, nil
}

func clientName(names map[uuid.UUID]string, id uuid.UUID) string {
	if name := strings.TrimSpace(names[id]); name != "" {
		return name
	}
	return fallbackClientName
}
