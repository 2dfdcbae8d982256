package hslog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hslog/hslog-go/internal/logfinder"
	"github.com/hslog/hslog-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
const watcherErrBuffer = 16

// Watcher tails the engine log and turns appended lines into events.
type Watcher struct {
	cfg     watchConfig // internal configuration (immutable after creation)
	log     *slog.Logger
	parser  Parser
	session *Session // nil when a custom parser is configured

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// WatchWithOptions creates a watcher using functional options and starts watching.
//
// The watcher stops when ctx is cancelled. For synchronous shutdown use
// NewWatcherWithOptions and Watcher.Close.
//
// Example:
//
//	events, errs, err := hslog.WatchWithOptions(ctx,
//	    hslog.WithIncludeTypes(hslog.EventTurnStart, hslog.EventGameOver),
//	    hslog.WithLogger(logger),
//	)
func WatchWithOptions(ctx context.Context, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcherWithOptions(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// NewWatcherWithOptions creates a watcher using functional options.
// Validates options and, unless WithWaitForLogs(true) is set, checks that the
// log file exists. Does NOT start goroutines (cheap to call).
func NewWatcherWithOptions(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if !cfg.waitForLogs {
		path, err := logfinder.FindLogFile(cfg.logFile)
		if err != nil {
			return nil, fmt.Errorf("finding log file: %w", err)
		}
		cfg.logFile = path
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	cfg.lineBreak = resolveLineBreak(cfg.lineBreak, cfg.sessionOpts)

	w := &Watcher{
		cfg:    *cfg, // copy to ensure immutability
		log:    log,
		parser: cfg.parser,
	}

	if w.parser == nil {
		sessionOpts := append([]SessionOption{WithSessionLogger(cfg.logger)}, cfg.sessionOpts...)
		s, err := NewSession(sessionOpts...)
		if err != nil {
			return nil, err
		}
		w.session = s
		w.parser = s
	}

	return w, nil
}

// Session returns the session driving the watcher, or nil when a custom
// parser was configured. Its State may be read while watching.
func (w *Watcher) Session() *Session {
	return w.session
}

// Watch starts watching and returns channels.
// Both channels close on ctx.Done(), Close, or a fatal error.
// Watch can only be called once per Watcher instance.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan Event)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	logFile, err := w.findLogFileWithWait(ctx, errCh)
	if err != nil {
		return
	}
	w.log.Debug("found log file", "path", logFile)

	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.replay == ReplayFromStart
	cfg.Poll = w.cfg.poll

	t, err := tailer.New(ctx, logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: logFile, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Debug("started tailing", "path", logFile, "from_start", cfg.FromStart)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			for _, rec := range splitRecords(line, w.cfg.lineBreak) {
				w.processLine(ctx, rec, eventCh, errCh)
			}
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: logFile, Err: err})
		}
	}
}

// findLogFileWithWait finds the log file, optionally waiting until it exists.
// The error is also sent to errCh.
func (w *Watcher) findLogFileWithWait(ctx context.Context, errCh chan<- error) (string, error) {
	logFile, err := logfinder.FindLogFile(w.cfg.logFile)
	if err == nil {
		return logFile, nil
	}
	if !errors.Is(err, ErrLogFileNotFound) || !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFind, Path: w.cfg.logFile, Err: err})
		return "", err
	}

	w.log.Debug("log file not found, waiting for it to appear", "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Context is already cancelled, so sendError would drop this.
			err := ctx.Err()
			select {
			case errCh <- &WatchError{Op: WatchOpFind, Path: w.cfg.logFile, Err: err}:
			default:
			}
			return "", err
		case <-ticker.C:
			logFile, err := logfinder.FindLogFile(w.cfg.logFile)
			if err == nil {
				w.log.Debug("log file appeared", "path", logFile)
				return logFile, nil
			}
			if !errors.Is(err, ErrLogFileNotFound) {
				sendError(ctx, errCh, &WatchError{Op: WatchOpFind, Path: w.cfg.logFile, Err: err})
				return "", err
			}
		}
	}
}

// processLine parses one line and delivers its events, then its error.
// Events are delivered even when the parser also reported an error: a
// Session drops only the events it cannot attribute.
func (w *Watcher) processLine(ctx context.Context, line string, eventCh chan<- Event, errCh chan<- error) {
	result, err := w.parser.ParseLine(ctx, line)

	for _, ev := range result.Events {
		if !w.cfg.filter.Allows(ev.Type()) {
			continue
		}
		select {
		case eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}

	if err != nil {
		sendError(ctx, errCh, &ParseError{Line: line, Err: err})
	}
}

// sendError sends an error to the error channel.
// Errors are only dropped if the buffer is full or during shutdown.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}
