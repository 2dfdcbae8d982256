package hslog

import (
	"context"
	"errors"
	"fmt"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// ParseResult is what a Parser made of one line.
type ParseResult struct {
	Events []event.Event

	// Matched reports that the line was recognized. Most setup lines match
	// without producing an event; they only move the session state.
	Matched bool
}

// Parser turns log lines into events.
//
// Session is the built-in implementation. pattern.RegexParser and wasm
// plugins add custom events and are usually combined with a Session in a
// ParserChain.
//
// An unrecognized line is not an error. Errors are reserved for lines that
// were recognized but could not be applied, and for runtime failures.
type Parser interface {
	ParseLine(ctx context.Context, line string) (ParseResult, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, line string) (ParseResult, error)

func (f ParserFunc) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	return f(ctx, line)
}

// ChainMode selects how a ParserChain combines its parsers.
type ChainMode int

const (
	// ChainAll runs every parser and concatenates their events. The first
	// error aborts the line. This is the zero value.
	ChainAll ChainMode = iota

	// ChainFirst stops after the first parser that matches.
	ChainFirst

	// ChainContinueOnError runs every parser even when some fail. Events
	// returned next to an error are kept; the errors are joined.
	ChainContinueOnError
)

func (m ChainMode) String() string {
	switch m {
	case ChainAll:
		return "all"
	case ChainFirst:
		return "first"
	case ChainContinueOnError:
		return "continue-on-error"
	default:
		return fmt.Sprintf("ChainMode(%d)", int(m))
	}
}

// ParserChain runs several parsers over each line, in order.
// Nil entries are skipped.
type ParserChain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine runs the chain. A cancelled context ends the line early with
// the events gathered so far.
//
// A Session returns the events it produced together with an IdentityError
// for the ones it dropped. Only ChainContinueOnError keeps both, so chains
// that hold a Session normally use that mode.
func (c *ParserChain) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	var out ParseResult
	var errs []error

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if p == nil {
			continue
		}

		res, err := p.ParseLine(ctx, line)
		if err != nil && c.Mode != ChainContinueOnError {
			return ParseResult{}, err
		}
		if err != nil {
			errs = append(errs, err)
		} else if !res.Matched {
			continue
		}

		out.Events = append(out.Events, res.Events...)
		out.Matched = out.Matched || res.Matched
		if c.Mode == ChainFirst {
			break
		}
	}

	return out, errors.Join(errs...)
}

var _ Parser = (*Session)(nil)
