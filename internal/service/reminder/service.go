package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

// Notifier is the notification collaborator. Reminders call it directly so
// a failed delivery can release its dedup row and be retried next run.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error
}

type Config struct {
	Windows []model.ReminderWindow
	// Location maps appointment dates and times to instants.
	Location *time.Location
	AppURL   string
}

type Service struct {
	appointments repository.AppointmentRepository
	log          repository.ReminderRepository
	notifier     Notifier
	config       Config
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(appointments repository.AppointmentRepository, log repository.ReminderRepository, notifier Notifier, config Config, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	if len(config.Windows) == 0 {
		config.Windows = model.DefaultReminderWindows
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Service{
		appointments: appointments,
		log:          log,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Run sends every reminder due now and returns how many were delivered.
// Each (appointment, kind) pair is claimed before sending, so overlapping
// runs never notify twice.
func (s *Service) Run(ctx context.Context) (int, error) {
	now := s.now().In(s.config.Location)

	earliest, latest := s.config.Windows[0].From, s.config.Windows[0].To
	for _, w := range s.config.Windows[1:] {
		if w.From < earliest {
			earliest = w.From
		}
		if w.To > latest {
			latest = w.To
		}
	}
	from := model.DateOf(now.Add(earliest))
	to := model.DateOf(now.Add(latest))

	candidates, err := s.appointments.ListReminderCandidates(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	sent := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		start := c.AppointmentDate.At(c.StartTime, s.config.Location)
		for _, w := range s.config.Windows {
			if start.Before(now.Add(w.From)) || start.After(now.Add(w.To)) {
				continue
			}
			ok, err := s.send(ctx, c, w.Kind)
			if err != nil {
				s.logger.Error(err, "reminder failed",
					"appointment_id", c.AppointmentID.String(),
					"kind", string(w.Kind))
				continue
			}
			if ok {
				sent++
			}
		}
	}

	s.logger.Info("reminder run finished", "candidates", len(candidates), "sent", sent)
	return sent, nil
}

// send claims and delivers one reminder. It reports false when another run
// already claimed it.
func (s *Service) send(ctx context.Context, c *model.ReminderCandidate, kind model.ReminderKind) (bool, error) {
	claimed, err := s.log.Claim(ctx, c.AppointmentID, kind)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	title, body := text(c, kind)
	link := s.link(c)
	if err := s.notifier.Notify(ctx, c.ClientID, title, body, link); err != nil {
		if rerr := s.log.Release(context.WithoutCancel(ctx), c.AppointmentID, kind); rerr != nil {
			s.logger.Error(rerr, "failed to release reminder claim", "appointment_id", c.AppointmentID.String())
		}
		return false, err
	}
	if c.ProfessionalUserID != nil {
		if err := s.notifier.Notify(ctx, *c.ProfessionalUserID, title, body, s.config.AppURL+"/agenda"); err != nil {
			s.logger.Warn("professional reminder not delivered",
				"appointment_id", c.AppointmentID.String(),
				"error", err.Error())
		}
	}
	s.metrics.RemindersSent.WithLabelValues(string(kind)).Inc()
	return true, nil
}

func (s *Service) link(c *model.ReminderCandidate) string {
	if c.ChatRequestID != nil {
		return s.config.AppURL + "/messages/" + c.ChatRequestID.String()
	}
	return s.config.AppURL + "/my-appointments"
}

func text(c *model.ReminderCandidate, kind model.ReminderKind) (string, string) {
	name := "Appointment"
	if c.ServiceLabel != nil && *c.ServiceLabel != "" {
		name = *c.ServiceLabel
	}
	if kind == model.Reminder1h {
		return "Reminder: appointment in 1 hour", fmt.Sprintf("%s today at %s.", name, c.StartTime)
	}
	d := c.AppointmentDate
	return "Reminder: appointment in 24h",
		fmt.Sprintf("%s on %02d/%02d/%d at %s.", name, d.Day(), int(d.Month()), d.Year(), c.StartTime)
}
