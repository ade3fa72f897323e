package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/messaging"
)

// EventMessageCreated is published for realtime clients after a message is
// stored.
const EventMessageCreated = "conversation.message_created"

type Service struct {
	repo      repository.ConversationRepository
	publisher messaging.Publisher
	logger    *logger.Logger
}

// NewService builds the adapter. publisher may be nil.
func NewService(repo repository.ConversationRepository, publisher messaging.Publisher, logger *logger.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// AppendSystemMessage stores text in the thread. The realtime publish is
// best effort; the stored row is what clients reload from.
func (s *Service) AppendSystemMessage(ctx context.Context, threadID, senderID uuid.UUID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message text is empty")
	}

	msg := &model.SystemMessage{ThreadID: threadID, SenderID: senderID, Content: text}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return err
	}

	if s.publisher != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			err = s.publisher.Publish(ctx, EventMessageCreated, payload)
		}
		if err != nil {
			s.logger.Warn("failed to publish message event", "thread_id", threadID.String(), "error", err.Error())
		}
	}
	return nil
}
