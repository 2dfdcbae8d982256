package pattern

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// RegexParser is a Parser that emits an event.Custom for every pattern that
// matches a line. A line matching several patterns yields several events,
// in file order.
//
// RegexParser keeps no state and is safe for concurrent use.
type RegexParser struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	id        string
	eventType string
	regex     *regexp.Regexp
	named     bool
}

// NewRegexParser compiles every pattern of pf.
// Returns a *PatternError for the first invalid regular expression.
func NewRegexParser(pf *PatternFile) (*RegexParser, error) {
	if pf == nil {
		return nil, fmt.Errorf("pattern file is nil")
	}

	patterns := make([]compiledPattern, 0, len(pf.Patterns))
	for i, p := range pf.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}

		named := false
		for _, name := range re.SubexpNames()[1:] {
			if name != "" {
				named = true
				break
			}
		}

		patterns = append(patterns, compiledPattern{
			id:        p.ID,
			eventType: p.EventType,
			regex:     re,
			named:     named,
		})
	}

	return &RegexParser{patterns: patterns}, nil
}

// NewRegexParserFromFile loads a pattern file and compiles it.
func NewRegexParserFromFile(path string) (*RegexParser, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegexParser(pf)
}

// Len returns the number of compiled patterns.
func (p *RegexParser) Len() int {
	return len(p.patterns)
}

// ParseLine implements hslog.Parser.
func (p *RegexParser) ParseLine(ctx context.Context, line string) (hslog.ParseResult, error) {
	var events []event.Event

	for _, cp := range p.patterns {
		matches := cp.regex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		ev := event.Custom{Name: cp.eventType}
		// Without named groups Data stays nil rather than an empty map.
		if cp.named {
			ev.Data = make(map[string]string)
			for i, name := range cp.regex.SubexpNames() {
				if i > 0 && name != "" {
					ev.Data[name] = matches[i]
				}
			}
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		return hslog.ParseResult{Matched: false}, nil
	}
	return hslog.ParseResult{Events: events, Matched: true}, nil
}

var _ hslog.Parser = (*RegexParser)(nil)
