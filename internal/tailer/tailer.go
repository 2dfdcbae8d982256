// Package tailer follows a growing log file line by line.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config configures a Tailer.
type Config struct {
	// FromStart reads the whole file before following it.
	// When false, only lines appended after New are delivered.
	FromStart bool

	// Poll uses stat polling instead of filesystem notifications.
	Poll bool
}

// DefaultConfig returns the default configuration: follow from the end of
// the file using filesystem notifications.
func DefaultConfig() Config {
	return Config{}
}

// Tailer delivers lines appended to a file.
// The file is reopened when it is truncated or recreated, which happens
// every time the game client restarts.
type Tailer struct {
	t      *tail.Tail
	lines  chan string
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once
	stopErr  error
}

// New starts following path. The file must exist.
// The tailer stops when ctx is cancelled or Stop is called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	whence := io.SeekEnd
	if cfg.FromStart {
		whence = io.SeekStart
	}

	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		ReOpen:    true,
		MustExist: true,
		Follow:    true,
		Poll:      cfg.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan string),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go tl.run(ctx)
	return tl, nil
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.errs)
	defer close(tl.lines)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				if err := tl.t.Err(); err != nil {
					select {
					case tl.errs <- err:
					default:
					}
				}
				return
			}
			if line.Err != nil {
				select {
				case tl.errs <- line.Err:
				case <-ctx.Done():
					return
				default:
				}
				continue
			}
			select {
			case tl.lines <- strings.TrimRight(line.Text, "\r"):
			case <-ctx.Done():
				return
			}
		}
	}
}

// Lines returns the channel of lines, without line terminators.
// It is closed when the tailer stops.
func (tl *Tailer) Lines() <-chan string {
	return tl.lines
}

// Errors returns the channel of tail errors.
// It is closed when the tailer stops.
func (tl *Tailer) Errors() <-chan error {
	return tl.errs
}

// Stop stops following the file and waits for the delivery goroutine.
// Safe to call multiple times.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		tl.cancel()
		<-tl.done
		// Unblock a pending send inside tail; it closes Lines when it exits.
		go func() {
			for range tl.t.Lines {
			}
		}()
		tl.stopErr = tl.t.Stop()
		tl.t.Cleanup()
	})
	return tl.stopErr
}
