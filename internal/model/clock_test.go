package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	t.Run("accepts storage and wire formats", func(t *testing.T) {
		c, err := ParseClock("09:30")
		require.NoError(t, err)
		assert.Equal(t, Clock(570), c)

		c, err = ParseClock("09:30:00")
		require.NoError(t, err)
		assert.Equal(t, Clock(570), c)

		c, err = ParseClock("24:00")
		require.NoError(t, err)
		assert.Equal(t, Clock(MinutesPerDay), c)
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for _, in := range []string{"", "9", "9:5", "24:01", "12:60", "ab:cd", "10:00:30", "-1:00"} {
			_, err := ParseClock(in)
			assert.Error(t, err, in)
		}
	})
}

func TestClock_Scan(t *testing.T) {
	var c Clock
	require.NoError(t, c.Scan(time.Date(0, 1, 1, 14, 45, 0, 0, time.UTC)))
	assert.Equal(t, "14:45", c.String())

	require.NoError(t, c.Scan([]byte("08:15:00")))
	assert.Equal(t, "08:15", c.String())

	assert.Error(t, c.Scan(nil))
}

func TestClock_JSON(t *testing.T) {
	var payload struct {
		Start Clock `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"07:05"}`), &payload))
	assert.Equal(t, Clock(425), payload.Start)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"07:05"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":425}`), &payload))
}

func TestDate(t *testing.T) {
	d := MustDate("2024-06-04")
	assert.Equal(t, 2, d.Weekday(), "2024-06-04 is a Tuesday")

	first, last := d.MonthBounds()
	assert.Equal(t, "2024-06-01", first.String())
	assert.Equal(t, "2024-06-30", last.String())

	loc := time.FixedZone("BRT", -3*3600)
	at := d.At(MustClock("10:00"), loc)
	assert.Equal(t, time.Date(2024, 6, 4, 13, 0, 0, 0, time.UTC), at.UTC())

	_, err := ParseDate("2024-02-30")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]AppointmentStatus]bool{
		{AppointmentStatusPending, AppointmentStatusConfirmed}:  true,
		{AppointmentStatusPending, AppointmentStatusCanceled}:   true,
		{AppointmentStatusPending, AppointmentStatusRejected}:   true,
		{AppointmentStatusConfirmed, AppointmentStatusDone}:     true,
		{AppointmentStatusConfirmed, AppointmentStatusCanceled}: true,
		{AppointmentStatusConfirmed, AppointmentStatusNoShow}:   true,
	}
	all := []AppointmentStatus{
		AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusDone,
		AppointmentStatusCanceled, AppointmentStatusRejected, AppointmentStatusNoShow,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]AppointmentStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
