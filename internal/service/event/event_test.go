package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/model"
)

func TestNewAppointmentEvent(t *testing.T) {
	apt := &model.Appointment{
		ProfessionalID:  uuid.New(),
		ClientID:        uuid.New(),
		AppointmentDate: model.MustDate("2024-06-04"),
		StartTime:       model.MustClock("09:00"),
		EndTime:         model.MustClock("10:00"),
		Status:          model.AppointmentStatusConfirmed,
	}
	apt.ID = uuid.New()
	actor := uuid.New()
	prevDate := model.MustDate("2024-06-03")

	evt, err := NewAppointmentEvent(model.EventAppointmentRescheduled, apt, actor, Change{PreviousDate: &prevDate})
	require.NoError(t, err)
	assert.Equal(t, model.EventAppointmentRescheduled, evt.EventType)
	assert.Equal(t, model.OutboxStatusPending, evt.Status)

	var payload model.AppointmentEvent
	require.NoError(t, Decode(evt, &payload))
	assert.Equal(t, apt.ID, payload.AppointmentID)
	assert.Equal(t, "2024-06-04", payload.Date.String())
	assert.Equal(t, "09:00", payload.StartTime.String())
	require.NotNil(t, payload.ActorID)
	assert.Equal(t, actor, *payload.ActorID)
	require.NotNil(t, payload.PreviousDate)
	assert.Equal(t, "2024-06-03", payload.PreviousDate.String())
	assert.Nil(t, payload.PreviousStart)
}

func TestDecodeInvalidPayload(t *testing.T) {
	evt := &model.OutboxEvent{EventType: "x", Payload: []byte("{")}
	var v map[string]interface{}
	assert.Error(t, Decode(evt, &v))
}
