package dispatch

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
	"github.com/jwalitptl/agenda-api/internal/service/event"
	"github.com/jwalitptl/agenda-api/pkg/logger"
	"github.com/jwalitptl/agenda-api/pkg/metrics"
)

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) AppendSystemMessage(ctx context.Context, threadID, senderID uuid.UUID, text string) error {
	return m.Called(ctx, threadID, senderID, text).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body, link string) error {
	return m.Called(ctx, userID, title, body, link).Error(0)
}

type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) Create(ctx context.Context, e *model.OutboxEvent) error {
	return m.Called(ctx, e).Error(0)
}

func newDispatcher() (*Dispatcher, *MockMessenger, *MockNotifier, *MockOutbox, *metrics.Metrics) {
	msg, notif, outbox := new(MockMessenger), new(MockNotifier), new(MockOutbox)
	m := metrics.NewMetrics("test", "dispatch", prometheus.NewRegistry())
	return NewDispatcher(msg, notif, outbox, logger.Nop(), m), msg, notif, outbox, m
}

func TestDispatcher_SystemMessage(t *testing.T) {
	ctx := context.Background()
	thread, sender := uuid.New(), uuid.New()

	t.Run("delivered directly", func(t *testing.T) {
		d, msg, _, outbox, _ := newDispatcher()
		msg.On("AppendSystemMessage", mock.Anything, thread, sender, "hello").Return(nil)

		d.SystemMessage(ctx, thread, sender, "hello")
		msg.AssertExpectations(t)
		outbox.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failure queues retry event", func(t *testing.T) {
		d, msg, _, outbox, m := newDispatcher()
		msg.On("AppendSystemMessage", mock.Anything, thread, sender, "hello").Return(errors.New("db down"))

		var queued *model.OutboxEvent
		outbox.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			queued = args.Get(1).(*model.OutboxEvent)
		}).Return(nil)

		d.SystemMessage(ctx, thread, sender, "hello")

		require.NotNil(t, queued)
		assert.Equal(t, model.EventDependencyMessage, queued.EventType)
		var p model.MessagePayload
		require.NoError(t, event.Decode(queued, &p))
		assert.Equal(t, model.MessagePayload{ThreadID: thread, SenderID: sender, Text: "hello"}, p)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DependencyFailures.WithLabelValues(depConversation)))
	})
}

func TestDispatcher_Notification(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	d, _, notif, outbox, _ := newDispatcher()
	notif.On("Notify", mock.Anything, user, "t", "b", "l").Return(errors.New("down"))
	outbox.On("Create", mock.Anything, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		return e.EventType == model.EventDependencyNotification
	})).Return(errors.New("outbox down too"))

	// must not panic or surface the error
	d.Notification(ctx, user, "t", "b", "l")
	outbox.AssertExpectations(t)
}

func TestDispatcher_Replay(t *testing.T) {
	ctx := context.Background()
	thread, sender, user := uuid.New(), uuid.New(), uuid.New()

	t.Run("message", func(t *testing.T) {
		d, msg, _, _, _ := newDispatcher()
		evt, err := event.New(model.EventDependencyMessage, model.MessagePayload{ThreadID: thread, SenderID: sender, Text: "x"})
		require.NoError(t, err)
		msg.On("AppendSystemMessage", mock.Anything, thread, sender, "x").Return(nil)

		assert.NoError(t, d.ReplayMessage(ctx, evt))
	})

	t.Run("notification error propagates for retry", func(t *testing.T) {
		d, _, notif, _, _ := newDispatcher()
		evt, err := event.New(model.EventDependencyNotification, model.NotificationPayload{UserID: user, Title: "t", Body: "b"})
		require.NoError(t, err)
		notif.On("Notify", mock.Anything, user, "t", "b", "").Return(errors.New("still down"))

		assert.Error(t, d.ReplayNotification(ctx, evt))
	})

	t.Run("bad payload", func(t *testing.T) {
		d, _, _, _, _ := newDispatcher()
		assert.Error(t, d.ReplayMessage(ctx, &model.OutboxEvent{Payload: []byte("nope")}))
	})
}
