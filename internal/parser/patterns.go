package parser

import "regexp"

// Compiled regex patterns for record extraction.
// Every pattern is tried against every line; see Classify.
var (
	// Matches: "... name=Fireball id=42 ... to FRIENDLY HAND"
	// Captures: (1) card name, (2) card id, (3) team, (4) zone
	zoneChangePattern = regexp.MustCompile(
		`name=(.*) id=(\d+).*to (FRIENDLY|OPPOSING) (.*)$`,
	)

	// Matches: "GameEntity tag=TURN value=3"
	// Captures: (1) turn number
	turnValuePattern = regexp.MustCompile(
		`GameEntity tag=TURN value=(\d+)$`,
	)

	// Matches: "Entity=Alice tag=TURN_START value=1445"
	// Not anchored: the value suffix varies.
	// Captures: (1) entity name
	turnStartPattern = regexp.MustCompile(
		`Entity=(.+) tag=TURN_START`,
	)

	// Matches: "Entity=Alice tag=PLAYSTATE value=PLAYING"
	// Captures: (1) entity name
	playerEnteredPattern = regexp.MustCompile(
		`Entity=(.*) tag=PLAYSTATE value=PLAYING$`,
	)

	// Matches: "Entity=Alice tag=TEAM_ID value=2"
	// Captures: (1) entity name, (2) team id
	teamIDPattern = regexp.MustCompile(
		`Entity=(.*) tag=TEAM_ID value=(\d+)$`,
	)

	// Matches: "Entity=Alice tag=FIRST_PLAYER value=1"
	// Captures: (1) entity name
	firstPlayerPattern = regexp.MustCompile(
		`Entity=(.*) tag=FIRST_PLAYER value=1$`,
	)

	// Matches: "id=2 ChoiceType=MULLIGAN Cancelable=False CountMin=0 CountMax=3"
	// Only printed for the local side.
	// Captures: (1) team id
	mulliganChoicePattern = regexp.MustCompile(
		`id=(\d+) ChoiceType=MULLIGAN Cancelable=False CountMin=0 CountMax=\d+$`,
	)

	// Matches: "Entity=[id=2 name=Alice] tag=MULLIGAN_STATE value=WAITING"
	// Captures: (1) player name
	mulliganWaitingPattern = regexp.MustCompile(
		`.*name=([^\]]*)\] tag=MULLIGAN_STATE value=WAITING`,
	)

	// Matches: "Entity=Alice tag=PLAYSTATE value=WON"
	// Captures: (1) entity name, (2) status
	playStatePattern = regexp.MustCompile(
		`Entity=(.*) tag=PLAYSTATE value=(WON|LOST|TIED)$`,
	)

	// Matches: "GameState.DebugPrintPower() - CREATE_GAME"
	gameCreatedPattern = regexp.MustCompile(
		`\bCREATE_GAME$`,
	)
)

// GameEntity is the entity name the engine uses for the game itself.
const GameEntity = "GameEntity"
