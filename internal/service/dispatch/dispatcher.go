package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/service/event"
	"github.com/jwalitptl/agenda-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/agenda-api/pkg/errors"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

const (
	depConversation = "conversation"
	depNotification = "notification"
)

// Messenger appends system lines to conversation threads.
type Messenger interface {
	AppendSystemMessage(ctx context.Context, threadID, senderID uuid.UUID, text string) error
}

// Notifier delivers user notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error
}

// OutboxWriter persists retry events.
type OutboxWriter interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
}

// Dispatcher sends post-commit side effects. A failed delivery never reaches
// the caller: it is logged, counted and queued for the worker to replay.
type Dispatcher struct {
	messenger Messenger
	notifier  Notifier
	outbox    OutboxWriter
	msgCB     *circuitbreaker.CircuitBreaker
	notifyCB  *circuitbreaker.CircuitBreaker
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewDispatcher(messenger Messenger, notifier Notifier, outbox OutboxWriter, logger *logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		notifier:  notifier,
		outbox:    outbox,
		msgCB:     circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultSettings(depConversation)),
		notifyCB:  circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultSettings(depNotification)),
		logger:    logger,
		metrics:   metrics,
	}
}

// SystemMessage appends text to threadID.
func (d *Dispatcher) SystemMessage(ctx context.Context, threadID, senderID uuid.UUID, text string) {
	payload := model.MessagePayload{ThreadID: threadID, SenderID: senderID, Text: text}
	err := d.msgCB.ExecuteContext(ctx, func(ctx context.Context) error {
		return d.messenger.AppendSystemMessage(ctx, threadID, senderID, text)
	})
	if err != nil {
		d.enqueueRetry(ctx, depConversation, model.EventDependencyMessage, payload, err)
	}
}

// Notification notifies userID.
func (d *Dispatcher) Notification(ctx context.Context, userID uuid.UUID, title, body, link string) {
	payload := model.NotificationPayload{UserID: userID, Title: title, Body: body, Link: link}
	err := d.notifyCB.ExecuteContext(ctx, func(ctx context.Context) error {
		return d.notifier.Notify(ctx, userID, title, body, link)
	})
	if err != nil {
		d.enqueueRetry(ctx, depNotification, model.EventDependencyNotification, payload, err)
	}
}

// ReplayMessage is the worker handler for dependency.message events.
func (d *Dispatcher) ReplayMessage(ctx context.Context, evt *model.OutboxEvent) error {
	var p model.MessagePayload
	if err := event.Decode(evt, &p); err != nil {
		return err
	}
	return d.msgCB.ExecuteContext(ctx, func(ctx context.Context) error {
		return d.messenger.AppendSystemMessage(ctx, p.ThreadID, p.SenderID, p.Text)
	})
}

// ReplayNotification is the worker handler for dependency.notification events.
func (d *Dispatcher) ReplayNotification(ctx context.Context, evt *model.OutboxEvent) error {
	var p model.NotificationPayload
	if err := event.Decode(evt, &p); err != nil {
		return err
	}
	return d.notifyCB.ExecuteContext(ctx, func(ctx context.Context) error {
		return d.notifier.Notify(ctx, p.UserID, p.Title, p.Body, p.Link)
	})
}

func (d *Dispatcher) enqueueRetry(ctx context.Context, dependency, eventType string, payload interface{}, cause error) {
	failure := apperrors.DependencyFailure(dependency, cause)
	d.metrics.DependencyFailures.WithLabelValues(dependency).Inc()
	d.logger.Error(failure, "collaborator call failed, queueing retry", "dependency", dependency)

	evt, err := event.New(eventType, payload)
	if err != nil {
		d.logger.Error(err, "failed to build retry event", "dependency", dependency)
		return
	}
	// the request may already be canceled; the retry must still be stored
	if err := d.outbox.Create(context.WithoutCancel(ctx), evt); err != nil {
		d.logger.Error(err, "failed to queue retry event", "dependency", dependency)
	}
}
