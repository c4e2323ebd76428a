package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

const (
	DefaultAttempts   = 3
	DefaultBackoffMin = 50 * time.Millisecond
	DefaultBackoffMax = 250 * time.Millisecond
)

var ErrTransmitFailed = errors.New("transmission failed")

// RetryPolicy bounds the attempts made for one packet
type RetryPolicy struct {
	Attempts   int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, BackoffMin: DefaultBackoffMin, BackoffMax: DefaultBackoffMax}
}

// Backoff draws a delay uniformly from [BackoffMin, BackoffMax]
func (r RetryPolicy) Backoff() time.Duration {
	if r.BackoffMax <= r.BackoffMin {
		return r.BackoffMin
	}
	return r.BackoffMin + rand.N(r.BackoffMax-r.BackoffMin+1)
}

// WithTransmitterLogger sets the logger for the transmitter
func WithTransmitterLogger(logger *slog.Logger) func(t *Transmitter) {
	return func(t *Transmitter) {
		t.logger = logger
	}
}

// WithMetrics reports attempts and power selection
func WithMetrics(m *Metrics) func(t *Transmitter) {
	return func(t *Transmitter) {
		t.metrics = m
	}
}

// Transmitter sends packets with bounded retry and per-attempt power selection
type Transmitter struct {
	radio   link.Transceiver
	retry   RetryPolicy
	power   PowerPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *Metrics
	logger  *slog.Logger
}

func NewTransmitter(radio link.Transceiver, retry RetryPolicy, power PowerPolicy, options ...func(t *Transmitter)) *Transmitter {
	if retry.Attempts <= 0 {
		retry.Attempts = DefaultAttempts
	}

	t := Transmitter{
		radio:  radio,
		retry:  retry,
		power:  power,
		sleep:  sleepContext,
		logger: config.DiscardLogger(),
	}

	for _, option := range options {
		option(&t)
	}

	return &t
}

// Send transmits frame, retrying with a random backoff between attempts. It
// returns ErrTransmitFailed once every attempt has failed, or the context error
// if cancelled while backing off.
func (t *Transmitter) Send(ctx context.Context, frame []byte) error {
	var errs []error

	for attempt := 1; attempt <= t.retry.Attempts; attempt++ {
		rssi := t.radio.LastRSSI()
		power := t.power.Select(rssi)
		t.metrics.attempt(rssi, power)

		err := t.radio.Transmit(frame, power)
		if err == nil {
			return nil
		}

		errs = append(errs, err)
		t.logger.Warn("transmission attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("power", power),
			slog.String("error", err.Error()))

		if attempt == t.retry.Attempts {
			break
		}
		if err = t.sleep(ctx, t.retry.Backoff()); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrTransmitFailed, t.retry.Attempts, errors.Join(errs...))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
