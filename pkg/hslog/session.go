package hslog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hslog/hslog-go/internal/parser"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// Session reduces log lines into match events.
//
// A Session holds the state of the match in progress: players, teams, turn
// number and phase. Lines must be fed in log order; a GameOver event resets
// the session so the next match starts from scratch.
//
// Session methods are safe to call from multiple goroutines, but event order
// only means something when a single caller feeds lines in order.
type Session struct {
	cfg sessionConfig
	log *slog.Logger

	mu    sync.Mutex
	state sessionState
}

// NewSession creates a session with a pristine state.
func NewSession(opts ...SessionOption) (*Session, error) {
	cfg := applySessionOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Session{
		cfg: *cfg,
		log: log.With("component", "session"),
	}, nil
}

// Feed splits payload on the configured line break and reduces every line in
// order. Lines that match nothing are skipped.
//
// The returned error is nil or the errors.Join of one *IdentityError per
// dropped event; it never stops the remaining lines from being reduced, so
// callers should use the events even when err != nil.
func (s *Session) Feed(payload []byte) ([]event.Event, error) {
	return s.FeedString(string(payload))
}

// FeedString is Feed for text.
func (s *Session) FeedString(text string) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []event.Event
	var errs []error
	for _, line := range strings.Split(text, s.cfg.lineBreak) {
		evs, _, err := s.reduce(line)
		events = append(events, evs...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return events, errors.Join(errs...)
}

// ReduceLine reduces a single line.
func (s *Session) ReduceLine(line string) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, _, err := s.reduce(line)
	return events, err
}

// ParseLine implements the Parser interface so a Session can drive a Watcher
// or sit in a ParserChain. Matched is true when the line matched any pattern,
// even if no event resulted.
func (s *Session) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, matched, err := s.reduce(line)
	return ParseResult{Events: events, Matched: matched}, err
}

// State returns a copy of the current match state.
func (s *Session) State() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.export()
}

// Reset discards the match in progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.reset()
}

// TurnOnePolicy returns the configured turn-1 policy.
func (s *Session) TurnOnePolicy() TurnOnePolicy {
	return s.cfg.turnOnePolicy
}

// reduce applies every record of line in classification order.
// Caller must hold s.mu.
func (s *Session) reduce(line string) ([]event.Event, bool, error) {
	records := parser.Classify(line)
	if len(records) == 0 {
		return nil, false, nil
	}

	var events []event.Event
	var errs []error
	for _, rec := range records {
		ev, err := s.apply(rec)
		if err != nil {
			var idErr *IdentityError
			if errors.As(err, &idErr) {
				idErr.Line = line
			}
			s.log.Debug("record dropped", "kind", rec.Kind.String(), "error", err)
			errs = append(errs, err)
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, true, errors.Join(errs...)
}

// apply mutates the state for one record and returns the event it caused, if any.
func (s *Session) apply(rec parser.Record) (event.Event, error) {
	st := &s.state

	switch rec.Kind {
	case parser.KindZoneChange:
		s.log.Debug("zone change", "card", rec.CardName, "team", rec.Team, "zone", rec.Zone)
		return event.ZoneChange{
			CardName: rec.CardName,
			CardID:   rec.CardID,
			Team:     rec.Team,
			Zone:     rec.Zone,
		}, nil

	case parser.KindTurnValue:
		// The turn never goes backwards within a match.
		if rec.Number > st.turn {
			st.turn = rec.Number
		}
		return nil, nil

	case parser.KindTurnStart:
		return s.turnStart(rec)

	case parser.KindPlayerEntered:
		if st.turn >= 2 {
			return nil, nil
		}
		if st.register(rec.Entity) == nil {
			s.log.Debug("ignoring extra player", "name", rec.Entity)
		}
		return nil, nil

	case parser.KindTeamID:
		if st.turn >= 2 {
			return nil, nil
		}
		p := st.register(rec.Entity)
		if p == nil {
			var err error
			if p, err = st.resolvePlayer(rec.Entity, rec.Kind.String()); err != nil {
				return nil, err
			}
		}
		id := rec.Number
		p.TeamID = &id
		return nil, nil

	case parser.KindFirstPlayer:
		if st.turn >= 2 {
			return nil, nil
		}
		p, err := st.resolvePlayer(rec.Entity, rec.Kind.String())
		if err != nil {
			return nil, err
		}
		st.first = p
		return nil, nil

	case parser.KindMulliganChoice:
		if st.turn >= 2 || st.phase != PhaseInit {
			return nil, nil
		}
		return s.startGame(rec.Number), nil

	case parser.KindMulliganWaiting:
		if s.cfg.turnOnePolicy != TurnOneOnMulliganWait ||
			st.phase != PhaseMulligan || st.turn != 1 ||
			st.friendly == nil || rec.Entity != st.friendly.Name {
			return nil, nil
		}
		return s.startTurnOne(st.first)

	case parser.KindPlayState:
		return s.playState(rec)

	case parser.KindGameCreated:
		// A new match while the previous one never finished (watcher attached
		// mid-match, client restarted). The engine may print the marker twice
		// per match, so a state still in setup is left alone.
		if st.phase != PhaseInit || st.turn >= 2 {
			s.log.Debug("abandoning unfinished match", "turn", st.turn, "phase", st.phase.String())
			st.reset()
		}
		return nil, nil
	}

	return nil, nil
}

// startGame partitions the players by the local team id and emits GameStart.
func (s *Session) startGame(localTeamID int) event.Event {
	st := &s.state
	for _, p := range st.players {
		if p.TeamID != nil && *p.TeamID == localTeamID {
			p.Team = event.Friendly
			st.friendly = p
		} else {
			p.Team = event.Opposing
			st.opposing = p
		}
	}
	st.phase = PhaseMulligan

	ev := event.GameStart{Players: st.snapshot()}
	s.log.Debug("game started", "players", len(ev.Players), "friendly", nameOf(st.friendly))
	return ev
}

// turnStart handles a TURN_START marker.
func (s *Session) turnStart(rec parser.Record) (event.Event, error) {
	st := &s.state

	if rec.Entity == parser.GameEntity {
		if st.turn != 1 || st.phase == PhasePlaying || st.mulliganSeen {
			return nil, nil
		}
		st.mulliganSeen = true
		s.log.Debug("mulligan started")
		return event.MulliganStart{}, nil
	}

	switch st.phase {
	case PhaseMulligan:
		if st.turn >= 2 {
			// The mulligan wait line never arrived but play has begun.
			s.log.Debug("turn one marker missing", "turn", st.turn)
			st.phase = PhasePlaying
			return s.emitTurn(rec)
		}
		if s.cfg.turnOnePolicy != TurnOneOnFirstTurnStart || st.turn != 1 {
			return nil, nil
		}
		p, err := st.resolvePlayer(rec.Entity, rec.Kind.String())
		if err != nil {
			return nil, err
		}
		return s.startTurnOne(p)

	case PhasePlaying:
		return s.emitTurn(rec)
	}

	return nil, nil
}

// emitTurn reports the current turn once, for the player rec names.
func (s *Session) emitTurn(rec parser.Record) (event.Event, error) {
	st := &s.state
	if st.turn <= st.lastTurnStarted {
		return nil, nil
	}
	p, err := st.resolvePlayer(rec.Entity, rec.Kind.String())
	if err != nil {
		return nil, err
	}
	st.lastTurnStarted = st.turn
	ev := event.TurnStart{Number: st.turn, Player: p.Clone()}
	s.log.Debug("turn started", "number", ev.Number, "player", p.Name, "team", p.Team)
	return ev, nil
}

// startTurnOne ends the mulligan. The match moves on even when the first
// player is unknown; only the event is dropped.
func (s *Session) startTurnOne(first *event.Player) (event.Event, error) {
	st := &s.state
	st.phase = PhasePlaying
	st.lastTurnStarted = 1

	if first == nil {
		return nil, &IdentityError{Op: parser.KindFirstPlayer.String()}
	}
	ev := event.TurnStart{Number: 1, Player: first.Clone()}
	s.log.Debug("turn started", "number", 1, "player", first.Name, "team", first.Team)
	return ev, nil
}

// playState records a terminal play state and ends the match once both
// players have one.
func (s *Session) playState(rec parser.Record) (event.Event, error) {
	st := &s.state

	p, err := st.resolvePlayer(rec.Entity, rec.Kind.String())
	if err != nil {
		return nil, err
	}
	if p.Status == "" {
		st.gameOverCount++
	}
	p.Status = rec.Status

	if st.gameOverCount < maxPlayers {
		return nil, nil
	}

	ev := event.GameOver{Players: st.snapshot()}
	s.log.Debug("game over", "players", len(ev.Players))
	st.reset()
	return ev, nil
}
