package hslog

import (
	"errors"
	"fmt"

	"github.com/hslog/hslog-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrLogFileNotFound is returned when no engine log file can be located.
	ErrLogFileNotFound = logfinder.ErrLogFileNotFound

	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("already watching")

	// ErrUnresolvedIdentity is reported when an entity name matches no player
	// and there is no opposing player to fall back to.
	ErrUnresolvedIdentity = errors.New("unresolved player identity")
)

// WatchOp identifies the watcher operation that failed.
type WatchOp string

const (
	WatchOpFind WatchOp = "find"
	WatchOpTail WatchOp = "tail"
)

// WatchError wraps an error from the watcher with the failing operation.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// ParseError wraps an error produced while parsing one line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IdentityError reports an event dropped because its player could not be
// resolved. Name is empty when the player reference itself was never set
// (for example, turn 1 starting before the first player is known).
type IdentityError struct {
	Op   string // record kind that needed the player, e.g. "play_state"
	Name string
	Line string
}

func (e *IdentityError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v: player reference not set", e.Op, ErrUnresolvedIdentity)
	}
	return fmt.Sprintf("%s: %v: %q", e.Op, ErrUnresolvedIdentity, e.Name)
}

func (e *IdentityError) Unwrap() error {
	return ErrUnresolvedIdentity
}
