package hslog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hslog/hslog-go/internal/safefile"
)

// maxLineBytes bounds a single log line. Power log lines with large entity
// dumps stay far below this.
const maxLineBytes = 1 << 20

// ParseReader reduces every line of r in order and yields the resulting
// events.
//
// The input is UTF-8 unless it starts with a byte order mark; UTF-16 logs
// with a BOM are decoded transparently. LF and CRLF line endings are both
// accepted; WithParseLineBreak selects any other record separator.
//
// Errors from the parser are yielded as *ParseError with a nil event and
// iteration continues, unless WithParseStopOnError(true) is set. Read
// errors and context cancellation always end the iteration.
//
// Example:
//
//	for ev, err := range hslog.ParseReader(ctx, r) {
//	    if err != nil {
//	        log.Printf("skipped: %v", err)
//	        continue
//	    }
//	    fmt.Println(ev.Type())
//	}
func ParseReader(ctx context.Context, r io.Reader, opts ...ParseOption) iter.Seq2[Event, error] {
	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		p := cfg.parser
		if p == nil {
			s, err := NewSession(cfg.sessionOpts...)
			if err != nil {
				yield(nil, err)
				return
			}
			p = s
		}

		decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		scanner := bufio.NewScanner(decoded)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		scanner.Split(scanRecords(resolveLineBreak(cfg.lineBreak, cfg.sessionOpts)))

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			line := scanner.Text()
			result, err := p.ParseLine(ctx, line)

			for _, ev := range result.Events {
				if !cfg.filter.Allows(ev.Type()) {
					continue
				}
				if !yield(ev, nil) {
					return
				}
			}

			if err != nil {
				if !yield(nil, &ParseError{Line: line, Err: err}) {
					return
				}
				if cfg.stopOnError {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("reading log: %w", err))
		}
	}
}

// ParseFile opens path and parses it with ParseReader.
// Only regular files are accepted; symlinks and devices are rejected.
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		f, _, err := safefile.OpenRegular(path)
		if err != nil {
			yield(nil, fmt.Errorf("opening %s: %w", path, err))
			return
		}
		defer f.Close()

		for ev, err := range ParseReader(ctx, f, opts...) {
			if !yield(ev, err) {
				return
			}
		}
	}
}

// ParseFileAll parses a whole file and returns every event.
//
// Per-line errors do not discard events: they are joined and returned next
// to the events. A failure to open or read the file returns nil events.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]Event, error) {
	var events []Event
	var lineErrs []error

	for ev, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				return nil, err
			}
			lineErrs = append(lineErrs, err)
			continue
		}
		events = append(events, ev)
	}

	return events, errors.Join(lineErrs...)
}
