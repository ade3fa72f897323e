package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
)

func (r *conversationRepository) AppendMessage(ctx context.Context, msg *model.SystemMessage) error {
	query := `
		INSERT INTO chat_messages (id, request_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.ThreadID, msg.SenderID, msg.Content, msg.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("conversation %s does not exist: %w", msg.ThreadID, err)
		}
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}
