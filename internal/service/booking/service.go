package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	"github.com/jwalitptl/agenda-api/internal/service/availability"
	"github.com/jwalitptl/agenda-api/internal/service/event"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/locker"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

const (
	defaultLockTTL     = 10 * time.Second
	defaultHorizonDays = 60
)

// Availability is the read side booking validates against.
type Availability interface {
	ResolveDay(ctx context.Context, professionalID uuid.UUID, date model.Date, durationMinutes int, exclude *uuid.UUID) ([]model.Slot, error)
	ServiceDuration(ctx context.Context, professionalID uuid.UUID, durationMinutes int, serviceIDs []uuid.UUID) (int, *string, error)
	Today() model.Date
}

// Dispatcher delivers post-commit side effects without failing the caller.
type Dispatcher interface {
	SystemMessage(ctx context.Context, threadID, senderID uuid.UUID, text string)
	Notification(ctx context.Context, userID uuid.UUID, title, body, link string)
}

// Directory maps a professional to the user account behind it.
type Directory interface {
	ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error)
}

type Config struct {
	// SlotLockTTL bounds how long a slot lock may be held.
	SlotLockTTL time.Duration
	// AppURL prefixes notification links.
	AppURL string
	// HorizonDays is how far past today a date may be booked.
	HorizonDays int
}

type CreateAppointmentInput struct {
	ProfessionalID  uuid.UUID
	ClientID        uuid.UUID
	Date            model.Date
	StartTime       model.Clock
	DurationMinutes int
	ServiceIDs      []uuid.UUID
	ChatRequestID   *uuid.UUID
}

type Service struct {
	appointments repository.AppointmentRepository
	archive      repository.ArchiveRepository
	availability Availability
	dispatcher   Dispatcher
	directory    Directory
	locker       locker.Locker
	config       Config
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// NewService builds the booking service. slotLocker may be nil, in which
// case only the slot claims in Postgres guard capacity.
func NewService(
	appointments repository.AppointmentRepository,
	archive repository.ArchiveRepository,
	availability Availability,
	dispatcher Dispatcher,
	directory Directory,
	slotLocker locker.Locker,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if config.SlotLockTTL <= 0 {
		config.SlotLockTTL = defaultLockTTL
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = defaultHorizonDays
	}
	return &Service{
		appointments: appointments,
		archive:      archive,
		availability: availability,
		dispatcher:   dispatcher,
		directory:    directory,
		locker:       slotLocker,
		config:       config,
		logger:       logger,
		metrics:      metrics,
	}
}

// CreateAppointment books a pending appointment at an available slot.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*model.Appointment, error) {
	if in.ProfessionalID == uuid.Nil || in.ClientID == uuid.Nil {
		return nil, apperrors.Validation("professional and client are required", nil)
	}
	if in.DurationMinutes <= 0 && len(in.ServiceIDs) == 0 {
		return nil, apperrors.Validation("duration_minutes or service_ids is required", nil)
	}
	if err := s.validateStart(in.Date, in.StartTime); err != nil {
		return nil, err
	}

	duration, label, err := s.availability.ServiceDuration(ctx, in.ProfessionalID, in.DurationMinutes, in.ServiceIDs)
	if err != nil {
		return nil, err
	}
	if in.StartTime.Add(duration) > model.MinutesPerDay {
		return nil, apperrors.Validation("appointment must end by midnight", nil)
	}

	apt := &model.Appointment{
		ProfessionalID:  in.ProfessionalID,
		ClientID:        in.ClientID,
		AppointmentDate: in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.StartTime.Add(duration),
		Status:          model.AppointmentStatusPending,
		ChatRequestID:   in.ChatRequestID,
		ServiceLabel:    label,
	}
	apt.ID = uuid.New()

	unlock, err := s.lockSlot(ctx, apt.SlotKey())
	if err != nil {
		return nil, err
	}
	defer unlock()

	slot, err := s.findSlot(ctx, apt, nil)
	if err != nil {
		return nil, err
	}

	evt, err := event.NewAppointmentEvent(model.EventAppointmentCreated, apt, in.ClientID, event.Change{})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.appointments.CreateWithClaim(ctx, apt, slot.Capacity, evt); err != nil {
		return nil, s.writeError(err, apt, "create")
	}
	s.metrics.BookingsCreated.Inc()

	s.logger.Info("appointment created",
		"appointment_id", apt.ID.String(),
		"professional_id", apt.ProfessionalID.String(),
		"slot", apt.SlotKey().String())

	when := describeSlot(apt)
	if apt.ChatRequestID != nil {
		s.dispatcher.SystemMessage(ctx, *apt.ChatRequestID, in.ClientID, msgRequested(apt, when))
	}
	s.notifyProfessional(ctx, apt, "New appointment request", serviceName(apt)+" - "+when)
	return apt, nil
}

// RescheduleAppointment moves an appointment to another date and start,
// keeping its duration and status.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, actor model.Actor, date model.Date, start model.Clock) (*model.Appointment, error) {
	if err := s.validateStart(date, start); err != nil {
		return nil, err
	}

	apt, err := s.loadForActor(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if apt.Status != model.AppointmentStatusPending && apt.Status != model.AppointmentStatusConfirmed {
		return nil, apperrors.InvalidTransition(string(apt.Status), "rescheduled")
	}

	duration := apt.DurationMinutes()
	if start.Add(duration) > model.MinutesPerDay {
		return nil, apperrors.Validation("appointment must end by midnight", nil)
	}

	prevDate, prevStart := apt.AppointmentDate, apt.StartTime
	moved := *apt
	moved.AppointmentDate = date
	moved.StartTime = start
	moved.EndTime = start.Add(duration)

	unlock, err := s.lockSlot(ctx, moved.SlotKey())
	if err != nil {
		return nil, err
	}
	defer unlock()

	slot, err := s.findSlot(ctx, &moved, &moved.ID)
	if err != nil {
		return nil, err
	}

	evt, err := event.NewAppointmentEvent(model.EventAppointmentRescheduled, &moved, actor.UserID, event.Change{
		PreviousDate:  &prevDate,
		PreviousStart: &prevStart,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.appointments.Reschedule(ctx, &moved, slot.Capacity, evt); err != nil {
		return nil, s.writeError(err, &moved, "reschedule")
	}

	s.logger.Info("appointment rescheduled",
		"appointment_id", moved.ID.String(),
		"from", apt.SlotKey().String(),
		"to", moved.SlotKey().String())

	when := describeSlot(&moved)
	if moved.ChatRequestID != nil {
		s.dispatcher.SystemMessage(ctx, *moved.ChatRequestID, actor.UserID, msgRescheduled(when))
	}
	s.notifyCounterparty(ctx, &moved, actor, "Appointment rescheduled", serviceName(&moved)+" moved to "+when)
	return &moved, nil
}

// CancelAppointment cancels a pending or confirmed appointment on behalf of
// either party.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.transition(ctx, id, actor, model.AppointmentStatusCanceled, false)
	if err != nil {
		return nil, err
	}

	byProfessional := actor.IsProfessional(apt.ProfessionalID)
	if apt.ChatRequestID != nil {
		s.dispatcher.SystemMessage(ctx, *apt.ChatRequestID, actor.UserID, msgCanceled(byProfessional))
	}
	body := "The client canceled the appointment on " + describeSlot(apt) + "."
	if byProfessional {
		body = "The professional canceled your appointment on " + describeSlot(apt) + "."
	}
	s.notifyCounterparty(ctx, apt, actor, "Appointment canceled", body)
	return apt, nil
}

func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.transition(ctx, id, actor, model.AppointmentStatusConfirmed, true)
	if err != nil {
		return nil, err
	}
	if apt.ChatRequestID != nil {
		s.dispatcher.SystemMessage(ctx, *apt.ChatRequestID, actor.UserID, msgConfirmed(describeSlot(apt)))
	}
	s.dispatcher.Notification(ctx, apt.ClientID, "Appointment confirmed",
		serviceName(apt)+" - "+describeSlot(apt), s.link(apt))
	return apt, nil
}

func (s *Service) RejectAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.transition(ctx, id, actor, model.AppointmentStatusRejected, true)
	if err != nil {
		return nil, err
	}
	if apt.ChatRequestID != nil {
		s.dispatcher.SystemMessage(ctx, *apt.ChatRequestID, actor.UserID, msgRejected)
	}
	s.dispatcher.Notification(ctx, apt.ClientID, "Appointment declined",
		"The professional could not take your appointment on "+describeSlot(apt)+".", s.link(apt))
	return apt, nil
}

func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return s.transition(ctx, id, actor, model.AppointmentStatusDone, true)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return s.transition(ctx, id, actor, model.AppointmentStatusNoShow, true)
}

// ArchiveAppointment hides a finished appointment from the client's own
// listing. The appointment itself is not modified.
func (s *Service) ArchiveAppointment(ctx context.Context, id, clientID uuid.UUID) error {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if apt.ClientID != clientID {
		return apperrors.NotFound("appointment", nil)
	}
	if !apt.Status.Terminal() {
		return apperrors.Validation("only finished appointments can be archived", nil)
	}
	return s.archive.Add(ctx, clientID, id)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	return s.loadForActor(ctx, id, actor)
}

// ListClientAppointments lists a client's appointments, hiding archived ones
// unless includeArchived is set.
func (s *Service) ListClientAppointments(ctx context.Context, clientID uuid.UUID, includeArchived bool) ([]*model.Appointment, error) {
	apts, err := s.appointments.List(ctx, &model.AppointmentFilters{ClientID: &clientID})
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return apts, nil
	}

	ids, err := s.archive.ListIDs(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return apts, nil
	}
	hidden := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		hidden[id] = struct{}{}
	}
	out := make([]*model.Appointment, 0, len(apts))
	for _, a := range apts {
		if _, ok := hidden[a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// transition applies one lifecycle edge with a compare-and-write update.
func (s *Service) transition(ctx context.Context, id uuid.UUID, actor model.Actor, to model.AppointmentStatus, professionalOnly bool) (*model.Appointment, error) {
	apt, err := s.loadForActor(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if professionalOnly && !actor.IsProfessional(apt.ProfessionalID) {
		return nil, apperrors.Forbidden("only the professional can change this appointment to " + string(to))
	}
	from := apt.Status
	if !model.CanTransition(from, to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	apt.Status = to
	evt, err := event.NewAppointmentEvent(model.EventAppointmentStatusChanged, apt, actor.UserID, event.Change{PreviousStatus: from})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.appointments.UpdateStatus(ctx, id, from, to, evt); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperrors.InvalidTransition(string(from), string(to))
		}
		return nil, err
	}
	apt.UpdatedAt = time.Now()
	s.metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()

	s.logger.Info("appointment status changed",
		"appointment_id", id.String(),
		"from", string(from),
		"to", string(to))
	return apt, nil
}

// loadForActor hides appointments from anyone who is not a party to them.
func (s *Service) loadForActor(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.ClientID != actor.UserID && !actor.IsProfessional(apt.ProfessionalID) {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (s *Service) validateStart(date model.Date, start model.Clock) error {
	if date.IsZero() {
		return apperrors.Validation("date is required", nil)
	}
	today := s.availability.Today()
	if date.Before(today) {
		return apperrors.Validation("date is in the past", nil)
	}
	if date.After(today.AddDays(s.config.HorizonDays)) {
		return apperrors.Validation(fmt.Sprintf("date must be within %d days", s.config.HorizonDays), nil)
	}
	if !start.Valid() || start >= model.MinutesPerDay {
		return apperrors.Validation("start_time is out of range", nil)
	}
	return nil
}

// findSlot re-resolves the day and returns the slot apt wants.
func (s *Service) findSlot(ctx context.Context, apt *model.Appointment, exclude *uuid.UUID) (model.Slot, error) {
	slots, err := s.availability.ResolveDay(ctx, apt.ProfessionalID, apt.AppointmentDate, apt.DurationMinutes(), exclude)
	if err != nil {
		return model.Slot{}, err
	}
	slot, ok := availability.Find(slots, apt.StartTime)
	if !ok {
		s.metrics.BookingRejections.WithLabelValues("unavailable").Inc()
		return model.Slot{}, apperrors.SlotUnavailable("", nil)
	}
	return slot, nil
}

func (s *Service) writeError(err error, apt *model.Appointment, op string) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		s.metrics.BookingRejections.WithLabelValues("claim_conflict").Inc()
		s.logger.Warn("slot claim lost", "op", op, "slot", apt.SlotKey().String())
		return apperrors.SlotUnavailable("", err)
	case errors.Is(err, repository.ErrStatusConflict):
		return apperrors.InvalidTransition(string(apt.Status), "rescheduled")
	default:
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return fmt.Errorf("failed to %s appointment: %w", op, err)
	}
}

// lockSlot takes the optional distributed lock for key. Redis errors fall
// back to the claim guard alone; contention is reported as unavailable.
func (s *Service) lockSlot(ctx context.Context, key model.SlotKey) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	name := "slot:" + key.String()
	ok, token, err := s.locker.TryLock(ctx, name, s.config.SlotLockTTL)
	if err != nil {
		s.logger.Warn("slot lock unavailable, relying on claims", "slot", key.String(), "error", err.Error())
		return noop, nil
	}
	if !ok {
		s.metrics.SlotLockContentions.Inc()
		s.metrics.BookingRejections.WithLabelValues("locked").Inc()
		return nil, apperrors.SlotUnavailable("slot is being booked by someone else, please try again", nil)
	}
	return func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), name, token); err != nil {
			s.logger.Warn("failed to release slot lock", "slot", key.String(), "error", err.Error())
		}
	}, nil
}

func (s *Service) notifyProfessional(ctx context.Context, apt *model.Appointment, title, body string) {
	userID, err := s.directory.ProfessionalUserID(ctx, apt.ProfessionalID)
	if err != nil {
		s.logger.Error(err, "failed to resolve professional user", "professional_id", apt.ProfessionalID.String())
		return
	}
	s.dispatcher.Notification(ctx, userID, title, body, s.link(apt))
}

func (s *Service) notifyCounterparty(ctx context.Context, apt *model.Appointment, actor model.Actor, title, body string) {
	if actor.IsProfessional(apt.ProfessionalID) {
		s.dispatcher.Notification(ctx, apt.ClientID, title, body, s.link(apt))
		return
	}
	s.notifyProfessional(ctx, apt, title, body)
}

// link points at the conversation when there is one.
func (s *Service) link(apt *model.Appointment) string {
	if apt.ChatRequestID != nil {
		return s.config.AppURL + "/messages/" + apt.ChatRequestID.String()
	}
	return s.config.AppURL + "/my-appointments"
}
