// Package sink delivers session events to consumers outside the process.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// Sink receives stamped events.
type Sink interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Envelope is the wire form of an event.
type Envelope struct {
	ID    uuid.UUID   `json:"id"`
	Seq   uint64      `json:"seq"`
	Type  event.Type  `json:"type"`
	Time  time.Time   `json:"time"`
	Event event.Event `json:"event"`
}

// UnmarshalJSON decodes the event through event.Unmarshal.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    uuid.UUID       `json:"id"`
		Seq   uint64          `json:"seq"`
		Type  event.Type      `json:"type"`
		Time  time.Time       `json:"time"`
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ev, err := event.Unmarshal(raw.Event)
	if err != nil {
		return fmt.Errorf("envelope %s: %w", raw.ID, err)
	}
	*e = Envelope{ID: raw.ID, Seq: raw.Seq, Type: raw.Type, Time: raw.Time, Event: ev}
	return nil
}

// Stamper assigns envelope ids and a per-stream sequence starting at 1.
type Stamper struct {
	seq atomic.Uint64
	now func() time.Time
}

// Stamp wraps ev in a new envelope.
func (s *Stamper) Stamp(ev event.Event) Envelope {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return Envelope{
		ID:    uuid.New(),
		Seq:   s.seq.Add(1),
		Type:  ev.Type(),
		Time:  now().UTC(),
		Event: ev,
	}
}

// Multi publishes to every sink in order.
type Multi []Sink

// Publish returns the joined errors of all sinks; one failing sink does
// not stop the others.
func (m Multi) Publish(ctx context.Context, env Envelope) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Forward stamps and publishes events until the channel closes or ctx is
// done. Publish failures are logged, not fatal.
func Forward(ctx context.Context, events <-chan event.Event, s Sink, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var stamper Stamper
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			env := stamper.Stamp(ev)
			if err := s.Publish(ctx, env); err != nil {
				logger.Warn("publish failed", "seq", env.Seq, "type", env.Type, "error", err)
			}
		}
	}
}
