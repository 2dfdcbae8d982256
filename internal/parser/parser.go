// Package parser classifies card game engine log lines into typed records.
package parser

import (
	"strconv"
	"strings"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// Kind identifies which pattern produced a Record.
type Kind int

const (
	KindZoneChange Kind = iota + 1
	KindTurnValue
	KindTurnStart
	KindPlayerEntered
	KindTeamID
	KindFirstPlayer
	KindMulliganChoice
	KindMulliganWaiting
	KindPlayState
	KindGameCreated
)

var kindNames = map[Kind]string{
	KindZoneChange:      "zone_change",
	KindTurnValue:       "turn_value",
	KindTurnStart:       "turn_start",
	KindPlayerEntered:   "player_entered",
	KindTeamID:          "team_id",
	KindFirstPlayer:     "first_player",
	KindMulliganChoice:  "mulligan_choice",
	KindMulliganWaiting: "mulligan_waiting",
	KindPlayState:       "play_state",
	KindGameCreated:     "game_created",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Record is one extraction from a log line.
// Only the fields relevant to Kind are set.
type Record struct {
	Kind Kind

	// Entity is the entity or player name (TurnStart, PlayerEntered, TeamID,
	// FirstPlayer, MulliganWaiting, PlayState).
	Entity string

	// Number holds the turn (TurnValue) or team id (TeamID, MulliganChoice).
	Number int

	// Status is set for PlayState.
	Status event.Status

	// Zone change fields.
	CardName string
	CardID   int
	Team     event.Team
	Zone     string
}

// Classify returns every record the line matches, in pattern order.
// A line may match several unrelated patterns; all of them are returned.
// Returns nil for lines matching nothing.
func Classify(line string) []Record {
	// Trim trailing CR for Windows CRLF compatibility
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return nil
	}

	var records []Record
	for _, classify := range classifiers {
		if rec, ok := classify(line); ok {
			records = append(records, rec)
		}
	}
	return records
}

// classifiers are evaluated independently, in this order.
var classifiers = []func(string) (Record, bool){
	parseZoneChange,
	parseTurnValue,
	parseTurnStart,
	parsePlayerEntered,
	parseTeamID,
	parseFirstPlayer,
	parseMulliganChoice,
	parseMulliganWaiting,
	parsePlayState,
	parseGameCreated,
}

func parseZoneChange(line string) (Record, bool) {
	match := zoneChangePattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	id, ok := atoi(match[2])
	if !ok {
		return Record{}, false
	}
	return Record{
		Kind:     KindZoneChange,
		CardName: match[1],
		CardID:   id,
		Team:     event.Team(match[3]),
		Zone:     match[4],
	}, true
}

func parseTurnValue(line string) (Record, bool) {
	match := turnValuePattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	turn, ok := atoi(match[1])
	if !ok {
		return Record{}, false
	}
	return Record{Kind: KindTurnValue, Number: turn}, true
}

func parseTurnStart(line string) (Record, bool) {
	match := turnStartPattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	return Record{Kind: KindTurnStart, Entity: match[1]}, true
}

func parsePlayerEntered(line string) (Record, bool) {
	match := playerEnteredPattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	return Record{Kind: KindPlayerEntered, Entity: match[1]}, true
}

func parseTeamID(line string) (Record, bool) {
	match := teamIDPattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	id, ok := atoi(match[2])
	if !ok {
		return Record{}, false
	}
	return Record{Kind: KindTeamID, Entity: match[1], Number: id}, true
}

func parseFirstPlayer(line string) (Record, bool) {
	match := firstPlayerPattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	return Record{Kind: KindFirstPlayer, Entity: match[1]}, true
}

func parseMulliganChoice(line string) (Record, bool) {
	match := mulliganChoicePattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	id, ok := atoi(match[1])
	if !ok {
		return Record{}, false
	}
	return Record{Kind: KindMulliganChoice, Number: id}, true
}

func parseMulliganWaiting(line string) (Record, bool) {
	match := mulliganWaitingPattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	return Record{Kind: KindMulliganWaiting, Entity: match[1]}, true
}

func parsePlayState(line string) (Record, bool) {
	match := playStatePattern.FindStringSubmatch(line)
	if match == nil {
		return Record{}, false
	}
	return Record{Kind: KindPlayState, Entity: match[1], Status: event.Status(match[2])}, true
}

func parseGameCreated(line string) (Record, bool) {
	if !gameCreatedPattern.MatchString(line) {
		return Record{}, false
	}
	return Record{Kind: KindGameCreated}, true
}

// atoi rejects values that overflow int; the patterns guarantee digits only.
func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
