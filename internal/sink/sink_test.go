package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

type recordingSink struct {
	mu     sync.Mutex
	envs   []Envelope
	err    error
	closed bool
}

func (r *recordingSink) Publish(ctx context.Context, env Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return r.err
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.err
}

func (r *recordingSink) published() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.envs...)
}

func TestStamper(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := Stamper{now: func() time.Time { return fixed }}

	a := s.Stamp(event.MulliganStart{})
	b := s.Stamp(event.TurnStart{Number: 1, Player: event.Player{Name: "Alice"}})

	if a.Seq != 1 || b.Seq != 2 {
		t.Errorf("seq = %d, %d, want 1, 2", a.Seq, b.Seq)
	}
	if a.ID == b.ID {
		t.Error("envelope ids should differ")
	}
	if a.Type != event.TypeMulliganStart || b.Type != event.TypeTurnStart {
		t.Errorf("types = %s, %s", a.Type, b.Type)
	}
	if !a.Time.Equal(fixed) {
		t.Errorf("time = %v, want %v", a.Time, fixed)
	}
}

func TestEnvelope_JSON(t *testing.T) {
	var s Stamper
	env := s.Stamp(event.ZoneChange{CardName: "Fireball", CardID: 42, Team: event.Friendly, Zone: "HAND"})

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Envelope
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ID != env.ID || got.Seq != env.Seq || got.Type != env.Type {
		t.Errorf("header = %+v, want %+v", got, env)
	}
	zc, ok := got.Event.(event.ZoneChange)
	if !ok {
		t.Fatalf("event is %T, want event.ZoneChange", got.Event)
	}
	if zc.CardName != "Fireball" || zc.CardID != 42 {
		t.Errorf("event = %+v", zc)
	}
}

func TestEnvelope_UnmarshalErrors(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"seq":1,"event":{}}`), &env); err == nil {
		t.Error("expected error for event without type")
	}
	if err := json.Unmarshal([]byte(`[]`), &env); err == nil {
		t.Error("expected error for non-object")
	}
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingSink{}
	bad := &recordingSink{err: boom}
	m := Multi{bad, ok}

	var s Stamper
	err := m.Publish(context.Background(), s.Stamp(event.MulliganStart{}))
	if !errors.Is(err, boom) {
		t.Errorf("Publish error = %v, want boom", err)
	}
	if len(ok.published()) != 1 {
		t.Error("a failing sink should not stop the others")
	}

	if err := m.Close(); !errors.Is(err, boom) {
		t.Errorf("Close error = %v, want boom", err)
	}
	if !ok.closed || !bad.closed {
		t.Error("Close should reach every sink")
	}
}

func TestForward(t *testing.T) {
	events := make(chan event.Event, 3)
	events <- event.MulliganStart{}
	events <- event.TurnStart{Number: 1}
	events <- event.GameOver{}
	close(events)

	rec := &recordingSink{err: errors.New("ignored")}
	if err := Forward(context.Background(), events, rec, nil); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	got := rec.published()
	if len(got) != 3 {
		t.Fatalf("published %d envelopes, want 3", len(got))
	}
	for i, env := range got {
		if env.Seq != uint64(i+1) {
			t.Errorf("envelope %d seq = %d", i, env.Seq)
		}
	}
	if got[2].Type != event.TypeGameOver {
		t.Errorf("last type = %s", got[2].Type)
	}
}

func TestForward_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Forward(ctx, make(chan event.Event), &recordingSink{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Forward error = %v, want context.Canceled", err)
	}
}
