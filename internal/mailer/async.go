package mailer

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/logger"
	"fintrack/internal/metrics"
)

// Dispatcher sends messages in the background. Callers never wait on delivery
// and never see its errors; failures are logged and counted.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewDispatcher wraps sender. Each send gets its own timeout.
func NewDispatcher(sender Sender, timeout time.Duration, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: timeout, metrics: m}
}

// Dispatch starts sending msg and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	if d == nil || d.sender == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, msg); err != nil {
			logger.Named("mailer").Errorw("email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
			d.metrics.EmailSent(false)
			d.metrics.SideEffectFailed("email")
			return
		}
		d.metrics.EmailSent(true)
	}()
}

// Wait blocks until all dispatched sends have finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
