// Package pattern surfaces extra engine log lines as custom events.
// Users describe the lines in a YAML file with regular expressions;
// named capture groups become the event data.
package pattern

// PatternFile represents the structure of a YAML pattern file.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  - id: hero_power
//	    event_type: hero_power_used
//	    regex: 'Entity=(?P<player>.+) tag=NUM_TIMES_HERO_POWER_USED_THIS_GAME value=(?P<count>\d+)'
//	  - id: arena_draft
//	    event_type: arena_pick
//	    regex: '\[Arena\] .* Client chooses: (?P<card>.+) \((?P<card_id>\w+)\)'
type PatternFile struct {
	// Version is the pattern file format version. Currently only version 1 is supported.
	Version int `yaml:"version"`

	// Patterns is the list of pattern definitions.
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern is a single log pattern definition.
type Pattern struct {
	// ID uniquely identifies the pattern within its file.
	ID string `yaml:"id"`

	// EventType becomes the Name of the emitted event.Custom.
	EventType string `yaml:"event_type"`

	// Regex is matched against each log line.
	// Named capture groups (?P<name>...) are extracted into event.Custom.Data.
	Regex string `yaml:"regex"`
}
