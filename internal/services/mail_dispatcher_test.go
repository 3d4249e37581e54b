package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/storefront/pkg/mail"
)

func TestMailDispatcherDeliversInBackground(t *testing.T) {
	mailer := &captureMailer{}

	dispatcher, err := NewMailDispatcher(mailer)
	require.NoError(t, err)

	dispatcher.Enqueue(mail.Message{
		To:      []string{"shopper@example.com"},
		Subject: "Welcome",
		Body:    "hello",
	})
	dispatcher.Enqueue(mail.Message{
		To:      []string{"other@example.com"},
		Subject: "Welcome",
		Body:    "hello",
	})

	// Close drains the queue before returning.
	dispatcher.Close()

	require.Len(t, mailer.sent(), 2)
}

func TestMailDispatcherToleratesFailures(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp unavailable")}

	dispatcher, err := NewMailDispatcher(mailer, WithDispatchTimeout(time.Second))
	require.NoError(t, err)

	dispatcher.Enqueue(mail.Message{To: []string{"shopper@example.com"}, Subject: "Welcome"})
	dispatcher.Close()

	// Delivery was attempted even though it failed.
	require.Len(t, mailer.sent(), 1)
}

func TestMailDispatcherCloseIsIdempotent(t *testing.T) {
	dispatcher, err := NewMailDispatcher(&captureMailer{})
	require.NoError(t, err)

	dispatcher.Close()
	dispatcher.Close()
}
