package hslog

import (
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// Phase is the lifecycle phase of the current match.
type Phase int

const (
	// PhaseInit collects players and team ids until teams are resolved.
	PhaseInit Phase = iota
	// PhaseMulligan runs from GameStart until turn 1 starts.
	PhaseMulligan
	// PhasePlaying covers every turn after the mulligan.
	PhasePlaying
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseMulligan:
		return "mulligan"
	case PhasePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// maxPlayers is the number of players in a match.
const maxPlayers = 2

// sessionState is the per-match reduction target.
// The zero value is the pristine state; reset restores it.
type sessionState struct {
	players []*event.Player          // insertion order = first seen in the log
	byName  map[string]*event.Player // same records as players

	// Lookup-only references into players.
	friendly *event.Player
	opposing *event.Player
	first    *event.Player

	turn          int
	gameOverCount int

	phase           Phase
	mulliganSeen    bool
	lastTurnStarted int
}

func (s *sessionState) reset() {
	*s = sessionState{}
}

// pristine reports whether nothing has been observed since the last reset.
func (s *sessionState) pristine() bool {
	return len(s.players) == 0 && s.turn == 0 && s.phase == PhaseInit && !s.mulliganSeen
}

// register returns the player with name, creating it if the match has room.
// Returns nil when name is unknown and both seats are taken.
func (s *sessionState) register(name string) *event.Player {
	if p, ok := s.byName[name]; ok {
		return p
	}
	if len(s.players) >= maxPlayers {
		return nil
	}
	if s.byName == nil {
		s.byName = make(map[string]*event.Player, maxPlayers)
	}
	p := &event.Player{Name: name}
	s.players = append(s.players, p)
	s.byName[name] = p
	return p
}

// snapshot deep-copies the players in insertion order.
func (s *sessionState) snapshot() []event.Player {
	if len(s.players) == 0 {
		return nil
	}
	out := make([]event.Player, len(s.players))
	for i, p := range s.players {
		out[i] = p.Clone()
	}
	return out
}

// StateSnapshot is a read-only copy of a Session's state.
// The zero value describes a pristine session.
type StateSnapshot struct {
	Players       []event.Player
	Friendly      string // player names; empty when unset
	Opposing      string
	First         string
	Turn          int
	GameOverCount int
	Phase         Phase
}

func (s *sessionState) export() StateSnapshot {
	return StateSnapshot{
		Players:       s.snapshot(),
		Friendly:      nameOf(s.friendly),
		Opposing:      nameOf(s.opposing),
		First:         nameOf(s.first),
		Turn:          s.turn,
		GameOverCount: s.gameOverCount,
		Phase:         s.phase,
	}
}

func nameOf(p *event.Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}
