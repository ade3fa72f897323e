package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

type Config struct {
	HorizonDays    int
	MaxHorizonDays int
	// Location decides which calendar date is "today".
	Location *time.Location
}

type Service struct {
	rules        repository.RuleRepository
	blocks       repository.BlockRepository
	appointments repository.AppointmentRepository
	offerings    repository.OfferingRepository
	config       Config
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(
	rules repository.RuleRepository,
	blocks repository.BlockRepository,
	appointments repository.AppointmentRepository,
	offerings repository.OfferingRepository,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if config.HorizonDays <= 0 {
		config.HorizonDays = 60
	}
	if config.MaxHorizonDays < config.HorizonDays {
		config.MaxHorizonDays = config.HorizonDays
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Service{
		rules:        rules,
		blocks:       blocks,
		appointments: appointments,
		offerings:    offerings,
		config:       config,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Today is the current calendar date in the configured location.
func (s *Service) Today() model.Date {
	return model.DateOf(s.now().In(s.config.Location))
}

// ResolveDay returns the bookable slots of one date for a service of the
// given duration. exclude names an appointment whose own occupancy is
// ignored, as when it is being rescheduled.
func (s *Service) ResolveDay(ctx context.Context, professionalID uuid.UUID, date model.Date, durationMinutes int, exclude *uuid.UUID) ([]model.Slot, error) {
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, apperrors.Validation("date is required", nil)
	}

	timer := prometheus.NewTimer(s.metrics.SlotResolveLatency)
	defer timer.ObserveDuration()

	rules, err := s.rules.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability rules: %w", err)
	}
	if len(rules) == 0 {
		return []model.Slot{}, nil
	}
	blocks, err := s.blocks.ListByDate(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability blocks: %w", err)
	}
	appointments, err := s.appointments.ListOccupying(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	capacities := GenerateSlots(rules, blocks, date.Weekday(), durationMinutes)
	return Resolve(capacities, appointments, exclude), nil
}

// AvailableDates lists the dates in [from, from+days) that have at least one
// bookable slot. Dates before today are skipped. days <= 0 uses the default
// horizon.
func (s *Service) AvailableDates(ctx context.Context, professionalID uuid.UUID, from model.Date, days, durationMinutes int) ([]model.Date, error) {
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.config.HorizonDays
	}
	if days > s.config.MaxHorizonDays {
		return nil, apperrors.Validation(fmt.Sprintf("days must be at most %d", s.config.MaxHorizonDays), nil)
	}

	today := s.Today()
	if from.IsZero() {
		from = today
	}
	end := from.AddDays(days - 1)
	if from.Before(today) {
		from = today
	}
	out := []model.Date{}
	if end.Before(from) {
		return out, nil
	}

	rules, err := s.rules.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability rules: %w", err)
	}
	if len(rules) == 0 {
		return out, nil
	}
	blocks, err := s.blocks.ListInRange(ctx, professionalID, from, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability blocks: %w", err)
	}
	appointments, err := s.appointments.ListOccupyingInRange(ctx, professionalID, from, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	blocksByDate := make(map[string][]*model.AvailabilityBlock)
	for _, b := range blocks {
		blocksByDate[b.BlockDate.String()] = append(blocksByDate[b.BlockDate.String()], b)
	}
	aptsByDate := make(map[string][]*model.Appointment)
	for _, a := range appointments {
		aptsByDate[a.AppointmentDate.String()] = append(aptsByDate[a.AppointmentDate.String()], a)
	}

	for d := from; !d.After(end); d = d.AddDays(1) {
		key := d.String()
		capacities := GenerateSlots(rules, blocksByDate[key], d.Weekday(), durationMinutes)
		if len(capacities) == 0 {
			continue
		}
		if len(Resolve(capacities, aptsByDate[key], nil)) > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListOfferings returns the active services of a professional.
func (s *Service) ListOfferings(ctx context.Context, professionalID uuid.UUID) ([]*model.ServiceOffering, error) {
	return s.offerings.ListByProfessional(ctx, professionalID, true)
}

// ServiceDuration resolves the booked duration. With serviceIDs it sums the
// durations of those active offerings and returns their joined names as the
// label; otherwise durationMinutes is used as given.
func (s *Service) ServiceDuration(ctx context.Context, professionalID uuid.UUID, durationMinutes int, serviceIDs []uuid.UUID) (int, *string, error) {
	if len(serviceIDs) == 0 {
		if err := validateDuration(durationMinutes); err != nil {
			return 0, nil, err
		}
		return durationMinutes, nil, nil
	}

	offerings, err := s.offerings.GetMany(ctx, professionalID, serviceIDs)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load services: %w", err)
	}
	byID := make(map[uuid.UUID]*model.ServiceOffering, len(offerings))
	for _, o := range offerings {
		byID[o.ID] = o
	}

	total := 0
	names := make([]string, 0, len(serviceIDs))
	for _, id := range serviceIDs {
		o, ok := byID[id]
		if !ok || !o.Active {
			return 0, nil, apperrors.Validation(fmt.Sprintf("service %s is not offered", id), nil)
		}
		total += o.DurationMinutes
		names = append(names, o.Name)
	}
	if err := validateDuration(total); err != nil {
		return 0, nil, err
	}
	label := strings.Join(names, " + ")
	return total, &label, nil
}

func validateDuration(minutes int) error {
	if minutes <= 0 {
		return apperrors.Validation("duration must be positive", nil)
	}
	if minutes > model.MinutesPerDay {
		return apperrors.Validation("duration must fit in one day", nil)
	}
	return nil
}
