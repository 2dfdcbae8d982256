package hslog

import "github.com/hslog/hslog-go/pkg/hslog/event"

// Event is a match event. It is an alias so callers rarely need to import
// the event package directly.
type Event = event.Event

// EventType identifies the kind of an Event.
type EventType = event.Type

// Built-in event types.
const (
	EventGameStart     = event.TypeGameStart
	EventMulliganStart = event.TypeMulliganStart
	EventTurnStart     = event.TypeTurnStart
	EventZoneChange    = event.TypeZoneChange
	EventGameOver      = event.TypeGameOver
)

// BuiltinEventTypes lists the event types a Session emits, in match order.
func BuiltinEventTypes() []EventType {
	return []EventType{
		EventGameStart,
		EventMulliganStart,
		EventTurnStart,
		EventZoneChange,
		EventGameOver,
	}
}
