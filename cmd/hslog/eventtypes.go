package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hslog/hslog-go/pkg/hslog"
)

// ValidEventTypes maps CLI names to the built-in event types.
var ValidEventTypes = func() map[string]hslog.EventType {
	m := make(map[string]hslog.EventType)
	for _, t := range hslog.BuiltinEventTypes() {
		m[string(t)] = t
	}
	return m
}()

// customTypeName matches event types a pattern file or plugin may produce.
var customTypeName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidEventTypeNames returns the built-in type names, sorted.
func ValidEventTypeNames() []string {
	names := make([]string, 0, len(ValidEventTypes))
	for name := range ValidEventTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeEventTypes trims, lowercases and deduplicates --types values.
// Unknown names are rejected unless allowCustom is set, in which case any
// lowercase identifier is accepted for pattern and plugin events.
func NormalizeEventTypes(input []string, allowCustom bool) ([]hslog.EventType, error) {
	if len(input) == 0 {
		return nil, nil
	}

	seen := make(map[hslog.EventType]bool)
	var result []hslog.EventType
	for _, raw := range input {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}

		t, ok := ValidEventTypes[name]
		if !ok {
			if !allowCustom || !customTypeName.MatchString(name) {
				return nil, fmt.Errorf("unknown event type %q (valid: %s)",
					raw, strings.Join(ValidEventTypeNames(), ", "))
			}
			t = hslog.EventType(name)
		}
		if !seen[t] {
			seen[t] = true
			result = append(result, t)
		}
	}
	return result, nil
}
