package hslog

import (
	"io"
	"log/slog"
)

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// compiledFilter is an event type filter built from include/exclude lists.
// An empty include set allows every type not excluded.
type compiledFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

func newCompiledFilter(include, exclude []EventType) *compiledFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return &compiledFilter{
		include: typeSet(include),
		exclude: typeSet(exclude),
	}
}

func typeSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Allows reports whether events of type t pass the filter.
// A nil filter allows everything.
func (f *compiledFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}
	if _, ok := f.exclude[t]; ok {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	_, ok := f.include[t]
	return ok
}
