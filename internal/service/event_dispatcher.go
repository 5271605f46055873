package service

import (
	"context"
	"sync"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// eventRetryIntervals are the waits between publish attempts.
var eventRetryIntervals = []time.Duration{
	time.Second,
	5 * time.Second,
	15 * time.Second,
	time.Minute,
}

// EventDispatcher hands committed ledger events to the publisher in the
// background, retrying failed deliveries.
type EventDispatcher struct {
	publisher ports.EventPublisher
	intervals []time.Duration
	wg        sync.WaitGroup
	log       zerolog.Logger
}

// NewEventDispatcher creates a dispatcher over publisher.
func NewEventDispatcher(publisher ports.EventPublisher, log zerolog.Logger) *EventDispatcher {
	return &EventDispatcher{
		publisher: publisher,
		intervals: eventRetryIntervals,
		log:       log,
	}
}

// Publish never blocks the caller; delivery errors are logged.
func (d *EventDispatcher) Publish(_ context.Context, event *domain.LedgerEvent) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverWithRetries(event)
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx expires.
func (d *EventDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *EventDispatcher) deliverWithRetries(event *domain.LedgerEvent) {
	for attempt := 0; attempt <= len(d.intervals); attempt++ {
		if attempt > 0 {
			time.Sleep(d.intervals[attempt-1])
		}

		err := d.publisher.Publish(context.Background(), event)
		if err == nil {
			d.log.Debug().
				Str("event_id", event.ID.String()).
				Str("type", string(event.Type)).
				Int("attempt", attempt+1).
				Msg("event published")
			return
		}

		d.log.Warn().Err(err).
			Str("event_id", event.ID.String()).
			Int("attempt", attempt+1).
			Msg("event publish failed")
	}

	d.log.Error().
		Str("event_id", event.ID.String()).
		Str("type", string(event.Type)).
		Str("trader_id", event.TraderID).
		Msg("event dropped: all retry attempts exhausted")
}
