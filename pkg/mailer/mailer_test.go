package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPMailerSend(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{from: "agenda@example.com", dialer: d}

	require.NoError(t, m.Send(context.Background(), "ana@example.com", "Reminder", "See you soon"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Reminder"}, d.sent[0].GetHeader("Subject"))
}

func TestSMTPMailerSendError(t *testing.T) {
	d := &fakeDialer{err: errors.New("refused")}
	m := &SMTPMailer{from: "agenda@example.com", dialer: d}

	err := m.Send(context.Background(), "ana@example.com", "s", "b")
	assert.ErrorContains(t, err, "refused")
}

func TestSMTPMailerCanceledContext(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{from: "agenda@example.com", dialer: d}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, "a@b.c", "s", "b"), context.Canceled)
	assert.Empty(t, d.sent)
}
