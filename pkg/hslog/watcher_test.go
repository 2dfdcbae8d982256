package hslog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

func writeLogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output_log.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(content)
	require.NoError(t, err)
}

func recvEvent(t *testing.T, ctx context.Context, events <-chan Event, errs <-chan error) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "events channel closed")
		return ev
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
	return nil
}

func TestWatcher_ReplayFromStart(t *testing.T) {
	path := writeLogFile(t, strings.Join(teamLines, "\n")+"\n")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
		WithReplayFromStart(),
	)
	require.NoError(t, err)
	defer watcher.Close()
	require.NotNil(t, watcher.Session())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	ev := recvEvent(t, ctx, events, errs)
	gs, ok := ev.(event.GameStart)
	require.True(t, ok, "got %T, want event.GameStart", ev)
	assert.Len(t, gs.Players, 2)
	assert.Equal(t, PhaseMulligan, watcher.Session().State().Phase)
}

func TestWatcher_CustomLineBreak(t *testing.T) {
	// Records separated by "|" still arrive on newline-terminated lines.
	path := writeLogFile(t, strings.Join(teamLines, "|")+"\n")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
		WithReplayFromStart(),
		WithSessionOptions(WithLineBreak("|")),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	ev := recvEvent(t, ctx, events, errs)
	gs, ok := ev.(event.GameStart)
	require.True(t, ok, "got %T, want event.GameStart", ev)
	assert.Len(t, gs.Players, 2)
}

func TestSplitRecords(t *testing.T) {
	assert.Equal(t, []string{"a|b"}, splitRecords("a|b", "\n"))
	assert.Equal(t, []string{"a|b"}, splitRecords("a|b", "\r\n"))
	assert.Equal(t, []string{"a", "b"}, splitRecords("a|b|", "|"))
	assert.Equal(t, []string{"plain"}, splitRecords("plain", "|"))
}

func TestResolveLineBreak(t *testing.T) {
	assert.Equal(t, "\n", resolveLineBreak("", nil))
	assert.Equal(t, "|", resolveLineBreak("", []SessionOption{WithLineBreak("|")}))
	assert.Equal(t, "#", resolveLineBreak("#", []SessionOption{WithLineBreak("|")}))
}

func TestWatcher_FollowsAppends(t *testing.T) {
	path := writeLogFile(t, "name=Old id=1 ... to FRIENDLY HAND\n")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	// Let the tailer seek to the end before appending.
	time.Sleep(200 * time.Millisecond)
	appendLog(t, path, "name=Fireball id=42 ... to OPPOSING PLAY\n")

	ev := recvEvent(t, ctx, events, errs)
	assert.Equal(t, event.ZoneChange{CardName: "Fireball", CardID: 42, Team: event.Opposing, Zone: "PLAY"}, ev)
}

func TestWatcher_Filter(t *testing.T) {
	content := strings.Join([]string{
		"name=Fireball id=42 ... to FRIENDLY HAND",
		teamLines[0], teamLines[1], teamLines[2], teamLines[3],
	}, "\n") + "\n"
	path := writeLogFile(t, content)

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
		WithReplayFromStart(),
		WithIncludeTypes(EventGameStart),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	ev := recvEvent(t, ctx, events, errs)
	assert.Equal(t, EventGameStart, ev.Type(), "zone change should be filtered out")
}

func TestWatcher_ReportsIdentityErrors(t *testing.T) {
	path := writeLogFile(t, "Entity=Alice tag=PLAYSTATE value=WON\n")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
		WithReplayFromStart(),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event: %+v", ev)
	case err := <-errs:
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "Entity=Alice tag=PLAYSTATE value=WON", perr.Line)
		assert.ErrorIs(t, err, ErrUnresolvedIdentity)
	case <-ctx.Done():
		t.Fatal("timeout waiting for error")
	}
}

func TestWatcher_CustomParser(t *testing.T) {
	path := writeLogFile(t, "hello\n")

	p := ParserFunc(func(ctx context.Context, line string) (ParseResult, error) {
		return ParseResult{Events: []event.Event{event.Custom{Name: "greeting", Data: map[string]string{"line": line}}}, Matched: true}, nil
	})

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithPolling(true),
		WithReplayFromStart(),
		WithParser(p),
	)
	require.NoError(t, err)
	defer watcher.Close()
	assert.Nil(t, watcher.Session())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	ev := recvEvent(t, ctx, events, errs)
	assert.Equal(t, event.Custom{Name: "greeting", Data: map[string]string{"line": "hello"}}, ev)
}

func TestWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcherWithOptions(WithLogFile(filepath.Join(t.TempDir(), "missing.txt")))
	assert.ErrorIs(t, err, ErrLogFileNotFound)
}

func TestWatcher_InvalidOptions(t *testing.T) {
	path := writeLogFile(t, "")

	_, err := NewWatcherWithOptions(WithLogFile(path), WithPollInterval(0))
	assert.Error(t, err)

	_, err = NewWatcherWithOptions(WithLogFile(path), WithReplay(ReplayMode(7)))
	assert.Error(t, err)

	_, err = NewWatcherWithOptions(WithLogFile(path), WithSessionOptions(WithLineBreak("")))
	assert.Error(t, err)
}

func TestWatcher_WaitForLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithWaitForLogs(true),
		WithPollInterval(50*time.Millisecond),
		WithPolling(true),
		WithReplayFromStart(),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("name=Fireball id=42 ... to FRIENDLY HAND\n"), 0644))

	ev := recvEvent(t, ctx, events, errs)
	assert.Equal(t, EventZoneChange, ev.Type())
}

func TestWatcher_WaitForLogs_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")

	watcher, err := NewWatcherWithOptions(
		WithLogFile(path),
		WithWaitForLogs(true),
		WithPollInterval(50*time.Millisecond),
	)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := watcher.Watch(ctx)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err, ok := <-errs:
		if ok {
			var werr *WatchError
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, WatchOpFind, werr.Op)
			assert.True(t, errors.Is(err, context.Canceled))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}

	// Channels close after cancellation.
	for range events {
	}
}

func TestWatcher_WatchTwice(t *testing.T) {
	path := writeLogFile(t, "")

	watcher, err := NewWatcherWithOptions(WithLogFile(path), WithPolling(true))
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _, err = watcher.Watch(ctx)
	require.NoError(t, err)

	_, _, err = watcher.Watch(ctx)
	assert.ErrorIs(t, err, ErrAlreadyWatching)
}

func TestWatcher_WatchAfterClose(t *testing.T) {
	path := writeLogFile(t, "")

	watcher, err := NewWatcherWithOptions(WithLogFile(path))
	require.NoError(t, err)

	require.NoError(t, watcher.Close())
	require.NoError(t, watcher.Close()) // idempotent

	_, _, err = watcher.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWatcherClosed)
}

func TestWatcher_CloseClosesChannels(t *testing.T) {
	path := writeLogFile(t, "")

	watcher, err := NewWatcherWithOptions(WithLogFile(path), WithPolling(true))
	require.NoError(t, err)

	events, errs, err := watcher.Watch(context.Background())
	require.NoError(t, err)

	require.NoError(t, watcher.Close())

	_, ok := <-events
	assert.False(t, ok)
	for range errs {
	}
}
