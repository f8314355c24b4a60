package notify

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"bloodlink/internal/domain"
	"bloodlink/internal/platform/metrics"
)

//go:generate mockgen -source=dispatcher.go -destination=mocks/mocks.go -package=mocks

// EmailSender delivers the primary channel. Implementations live outside the
// core (see notify/smtp).
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MessageSender delivers the secondary channel (see notify/whatsapp).
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// SendError lets adapters attach a failure classification to a send error.
type SendError struct {
	Reason domain.FailureReason
	Err    error
}

func (e *SendError) Error() string { return string(e.Reason) + ": " + e.Err.Error() }
func (e *SendError) Unwrap() error { return e.Err }

// Dispatcher sends a notification to a donor through the configured
// channels. It holds no per-call state, so retries can be driven externally
// by re-invoking Notify; failures are recorded in the outcome map, never
// raised.
type Dispatcher struct {
	email   EmailSender   // nil means email channel unconfigured
	message MessageSender // nil means secondary channel unconfigured
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewDispatcher(email EmailSender, message MessageSender, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{email: email, message: message, timeout: timeout, metrics: m, logger: logger}
}

// Notify attempts every channel independently and concurrently. Each channel
// yields exactly one outcome; a failure on one channel never prevents the
// other from being attempted. Unconfigured channels are skipped, not failed.
func (d *Dispatcher) Notify(ctx context.Context, donor domain.Donor, req domain.BloodRequest) domain.DeliveryOutcomes {
	outcomes := make(domain.DeliveryOutcomes, 2)
	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(ch domain.Channel, outcome domain.DeliveryOutcome, elapsed time.Duration) {
		mu.Lock()
		outcomes[ch] = outcome
		mu.Unlock()
		if d.metrics != nil {
			d.metrics.ObserveNotification(string(ch), string(outcome.Status), elapsed)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if d.email == nil {
			record(domain.ChannelEmail, domain.DeliveryOutcome{Status: domain.DeliverySkipped}, 0)
			return
		}
		start := time.Now()
		err := d.attempt(ctx, func(ctx context.Context) error {
			return d.email.Send(ctx, donor.Email, emailSubject(req), emailBody(donor, req))
		})
		record(domain.ChannelEmail, d.outcomeFor(ctx, donor, domain.ChannelEmail, err), time.Since(start))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if d.message == nil || donor.Phone == "" {
			record(domain.ChannelWhatsApp, domain.DeliveryOutcome{Status: domain.DeliverySkipped}, 0)
			return
		}
		start := time.Now()
		err := d.attempt(ctx, func(ctx context.Context) error {
			return d.message.Send(ctx, donor.Phone, messageBody(donor, req))
		})
		record(domain.ChannelWhatsApp, d.outcomeFor(ctx, donor, domain.ChannelWhatsApp, err), time.Since(start))
	}()

	wg.Wait()
	return outcomes
}

// attempt bounds a single channel attempt so a stalled provider never blocks
// other candidates.
func (d *Dispatcher) attempt(ctx context.Context, send func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return send(ctx)
}

func (d *Dispatcher) outcomeFor(ctx context.Context, donor domain.Donor, ch domain.Channel, err error) domain.DeliveryOutcome {
	if err == nil {
		return domain.DeliveryOutcome{Status: domain.DeliverySent}
	}
	reason := classify(err)
	d.logger.WarnContext(ctx, "notification failed",
		"channel", string(ch),
		"donor_id", donor.ID,
		"reason", string(reason),
		"error", err,
	)
	return domain.DeliveryOutcome{Status: domain.DeliveryFailed, Reason: reason}
}

// classify maps transport errors to the operator-facing failure reasons.
func classify(err error) domain.FailureReason {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ReasonTimeout
	}
	return domain.ReasonTransientNetwork
}
