package notification

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/mailer"
	"github.com/jwalitptl/agenda-api/pkg/messaging"
)

const (
	// EventNotificationCreated is published for realtime clients.
	EventNotificationCreated = "notification.created"

	typeAgenda = "agenda"
)

// EmailLookup resolves delivery addresses.
type EmailLookup interface {
	GetEmails(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type Service struct {
	repo      repository.NotificationRepository
	emails    EmailLookup
	mailer    mailer.Mailer
	publisher messaging.Publisher
	logger    *logger.Logger
}

// NewService builds the notifier. mailer and publisher are optional.
func NewService(
	repo repository.NotificationRepository,
	emails EmailLookup,
	mailer mailer.Mailer,
	publisher messaging.Publisher,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		emails:    emails,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify stores an in-app notification and fans it out. Only the in-app
// insert decides the result; realtime and e-mail delivery are logged.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("notification recipient is required")
	}

	n := &model.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Link:   link,
		Type:   typeAgenda,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.publisher != nil {
		payload, err := json.Marshal(n)
		if err == nil {
			err = s.publisher.Publish(ctx, EventNotificationCreated, payload)
		}
		if err != nil {
			s.logger.Warn("failed to publish notification event", "user_id", userID.String(), "error", err.Error())
		}
	}

	if s.mailer != nil && s.emails != nil {
		s.sendEmail(ctx, n)
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, n *model.Notification) {
	emails, err := s.emails.GetEmails(ctx, []uuid.UUID{n.UserID})
	if err != nil {
		s.logger.Warn("failed to look up e-mail", "user_id", n.UserID.String(), "error", err.Error())
		return
	}
	to, ok := emails[n.UserID]
	if !ok {
		return
	}

	body := n.Body
	if n.Link != "" {
		body += "\n\n" + n.Link
	}
	if err := s.mailer.Send(ctx, to, n.Title, body); err != nil {
		s.logger.Warn("failed to send notification e-mail", "user_id", n.UserID.String(), "error", err.Error())
	}
}
