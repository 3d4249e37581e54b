package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/storefront/pkg/logger"
	"github.com/charlesng35/storefront/pkg/mail"
	"github.com/charlesng35/storefront/pkg/metrics"
)

const (
	defaultDispatchBuffer  = 64
	defaultDispatchTimeout = 30 * time.Second
)

// MailDispatcher delivers email in the background so HTTP responses never
// wait on SMTP. Delivery is best effort: failures are logged and counted but
// never retried or surfaced to the caller.
type MailDispatcher struct {
	mailer  mail.Mailer
	queue   chan mail.Message
	timeout time.Duration
	log     *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// DispatcherOption customises the MailDispatcher.
type DispatcherOption func(*MailDispatcher)

// WithDispatchBuffer sets the queue capacity.
func WithDispatchBuffer(size int) DispatcherOption {
	return func(d *MailDispatcher) {
		if size > 0 {
			d.queue = make(chan mail.Message, size)
		}
	}
}

// WithDispatchTimeout bounds each delivery attempt.
func WithDispatchTimeout(timeout time.Duration) DispatcherOption {
	return func(d *MailDispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewMailDispatcher starts a single background worker draining the queue.
func NewMailDispatcher(mailer mail.Mailer, opts ...DispatcherOption) (*MailDispatcher, error) {
	if mailer == nil {
		return nil, errors.New("mail dispatcher: mailer is required")
	}

	d := &MailDispatcher{
		mailer:  mailer,
		queue:   make(chan mail.Message, defaultDispatchBuffer),
		timeout: defaultDispatchTimeout,
		log:     logger.WithModule("mail"),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	go d.run()

	return d, nil
}

// Enqueue hands a message to the background worker without blocking. When the
// queue is saturated the message is dropped and the failure recorded.
func (d *MailDispatcher) Enqueue(msg mail.Message) {
	select {
	case d.queue <- msg:
	default:
		metrics.MailDispatches.WithLabelValues("failure").Inc()
		d.log.Warn("mail queue full, dropping message",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
}

// Close stops the worker after draining queued messages.
func (d *MailDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *MailDispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.mailer.Send(ctx, msg)
		cancel()

		if err != nil {
			if errors.Is(err, mail.ErrSMTPDisabled) {
				d.log.Debug("smtp disabled, skipping delivery", zap.Strings("to", msg.To))
				continue
			}
			metrics.MailDispatches.WithLabelValues("failure").Inc()
			d.log.Error("mail delivery failed",
				zap.Strings("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			continue
		}

		metrics.MailDispatches.WithLabelValues("success").Inc()
	}
}
