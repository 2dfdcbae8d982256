// Package event defines the events produced from card game logs.
//
// Each event kind is its own struct implementing [Event]. Consumers switch on
// the concrete type (or on [Event.Type] when only the kind matters):
//
//	switch ev := e.(type) {
//	case event.GameStart:
//	    fmt.Println("players:", len(ev.Players))
//	case event.TurnStart:
//	    fmt.Println("turn", ev.Number, "for", ev.Player.Name)
//	}
package event

import (
	"encoding/json"
	"errors"
)

// Type identifies the kind of an event.
type Type string

// Event types produced by the session state machine.
const (
	TypeGameStart     Type = "game_start"
	TypeMulliganStart Type = "mulligan_start"
	TypeTurnStart     Type = "turn_start"
	TypeZoneChange    Type = "zone_change"
	TypeGameOver      Type = "game_over"
)

// Event is implemented by every event value.
type Event interface {
	Type() Type
}

// Team is the side a player or card belongs to.
type Team string

const (
	Friendly Team = "FRIENDLY"
	Opposing Team = "OPPOSING"
)

// Status is a player's final match outcome.
type Status string

const (
	Won  Status = "WON"
	Lost Status = "LOST"
	Tied Status = "TIED"
)

// Player is a match participant.
// TeamID, Team and Status are unset (nil or empty) until the log resolves them.
type Player struct {
	Name   string `json:"name"`
	TeamID *int   `json:"team_id,omitempty"`
	Team   Team   `json:"team,omitempty"`
	Status Status `json:"status,omitempty"`
}

// Clone returns a copy that shares no memory with p.
func (p Player) Clone() Player {
	if p.TeamID != nil {
		id := *p.TeamID
		p.TeamID = &id
	}
	return p
}

// GameStart is emitted once teams are resolved, before the mulligan.
type GameStart struct {
	Players []Player `json:"players"`
}

// MulliganStart marks the start of the mulligan phase.
type MulliganStart struct{}

// TurnStart is emitted when a numbered turn begins.
type TurnStart struct {
	Number int    `json:"number"`
	Player Player `json:"player"`
}

// ZoneChange is emitted when a card moves to a zone.
type ZoneChange struct {
	CardName string `json:"card_name"`
	CardID   int    `json:"card_id"`
	Team     Team   `json:"team"`
	Zone     string `json:"zone"`
}

// GameOver is emitted after both players reached a terminal play state.
type GameOver struct {
	Players []Player `json:"players"`
}

// Custom is produced by user pattern files and plugins, never by the session.
type Custom struct {
	Name string            `json:"name"`
	Data map[string]string `json:"data,omitempty"`
}

func (GameStart) Type() Type     { return TypeGameStart }
func (MulliganStart) Type() Type { return TypeMulliganStart }
func (TurnStart) Type() Type     { return TypeTurnStart }
func (ZoneChange) Type() Type    { return TypeZoneChange }
func (GameOver) Type() Type      { return TypeGameOver }

// Type returns the custom event name.
func (c Custom) Type() Type { return Type(c.Name) }

// MarshalJSON adds the "type" field.
func (e GameStart) MarshalJSON() ([]byte, error) {
	type plain GameStart
	return marshalTyped(e.Type(), plain(e))
}

// MarshalJSON adds the "type" field.
func (e MulliganStart) MarshalJSON() ([]byte, error) {
	return marshalTyped(e.Type(), struct{}{})
}

// MarshalJSON adds the "type" field.
func (e TurnStart) MarshalJSON() ([]byte, error) {
	type plain TurnStart
	return marshalTyped(e.Type(), plain(e))
}

// MarshalJSON adds the "type" field.
func (e ZoneChange) MarshalJSON() ([]byte, error) {
	type plain ZoneChange
	return marshalTyped(e.Type(), plain(e))
}

// MarshalJSON adds the "type" field.
func (e GameOver) MarshalJSON() ([]byte, error) {
	type plain GameOver
	return marshalTyped(e.Type(), plain(e))
}

// MarshalJSON adds the "type" field.
func (e Custom) MarshalJSON() ([]byte, error) {
	type plain Custom
	return marshalTyped(e.Type(), plain(e))
}

// marshalTyped encodes payload as a JSON object and prepends the "type" field.
func marshalTyped(t Type, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(head)+len(body)+8)
	out = append(out, `{"type":`...)
	out = append(out, head...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}

// Unmarshal decodes an event encoded by MarshalJSON.
// Unknown types decode as Custom.
func Unmarshal(data []byte) (Event, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeGameStart:
		return decode[GameStart](data)
	case TypeMulliganStart:
		return MulliganStart{}, nil
	case TypeTurnStart:
		return decode[TurnStart](data)
	case TypeZoneChange:
		return decode[ZoneChange](data)
	case TypeGameOver:
		return decode[GameOver](data)
	case "":
		return nil, errors.New("event: missing type")
	default:
		ev, err := decode[Custom](data)
		if err != nil {
			return nil, err
		}
		c := ev.(Custom)
		if c.Name == "" {
			c.Name = string(head.Type)
		}
		return c, nil
	}
}

func decode[T Event](data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
