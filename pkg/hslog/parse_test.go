package hslog_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

const parseLog = `Entity=Alice tag=TEAM_ID value=2
Entity=Bob tag=TEAM_ID value=3
Entity=Alice tag=FIRST_PLAYER value=1
GameEntity tag=TURN value=1
id=2 ChoiceType=MULLIGAN Cancelable=False CountMin=0 CountMax=3
Entity=[id=2 name=Alice] tag=MULLIGAN_STATE value=WAITING
name=Fireball id=42 ... to FRIENDLY HAND
Entity=Alice tag=PLAYSTATE value=WON
Entity=Bob tag=PLAYSTATE value=LOST
`

func collect(t *testing.T, seq func(func(hslog.Event, error) bool)) ([]hslog.Event, []error) {
	t.Helper()
	var events []hslog.Event
	var errs []error
	for ev, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs
}

func eventTypes(events []hslog.Event) []hslog.EventType {
	out := make([]hslog.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type()
	}
	return out
}

func TestParseReader(t *testing.T) {
	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(parseLog)))

	assert.Empty(t, errs)
	assert.Equal(t, []hslog.EventType{
		hslog.EventGameStart,
		hslog.EventTurnStart,
		hslog.EventZoneChange,
		hslog.EventGameOver,
	}, eventTypes(events))
}

func TestParseReader_CRLF(t *testing.T) {
	crlf := strings.ReplaceAll(parseLog, "\n", "\r\n")

	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(crlf)))

	assert.Empty(t, errs)
	assert.Len(t, events, 4)
}

func TestParseReader_CustomLineBreak(t *testing.T) {
	piped := strings.ReplaceAll(parseLog, "\n", "|")

	tests := []struct {
		name string
		opts []hslog.ParseOption
	}{
		{"session option", []hslog.ParseOption{hslog.WithParseSessionOptions(hslog.WithLineBreak("|"))}},
		{"parse option", []hslog.ParseOption{hslog.WithParseLineBreak("|")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(piped), tt.opts...))

			assert.Empty(t, errs)
			require.Len(t, events, 4)
			gs, ok := events[0].(event.GameStart)
			require.True(t, ok, "got %T, want event.GameStart", events[0])
			assert.Len(t, gs.Players, 2)
		})
	}
}

func TestParseReader_CustomLineBreakAroundNewlines(t *testing.T) {
	// A trailing newline after each separator stays out of the record.
	piped := strings.ReplaceAll(parseLog, "\n", "#~\n")

	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(piped),
		hslog.WithParseLineBreak("#~"),
	))

	assert.Empty(t, errs)
	assert.Equal(t, []hslog.EventType{
		hslog.EventGameStart,
		hslog.EventTurnStart,
		hslog.EventZoneChange,
		hslog.EventGameOver,
	}, eventTypes(events))
}

func TestParseReader_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.String(parseLog)
	require.NoError(t, err)

	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(encoded)))

	assert.Empty(t, errs)
	assert.Len(t, events, 4)
}

func TestParseReader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name=Fireball id=42 ... to FRIENDLY HAND\n")...)

	events, errs := collect(t, hslog.ParseReader(context.Background(), bytes.NewReader(input)))

	assert.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, "Fireball", events[0].(event.ZoneChange).CardName)
}

func TestParseReader_Filter(t *testing.T) {
	events, _ := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(parseLog),
		hslog.WithParseExcludeTypes(hslog.EventZoneChange),
	))
	assert.NotContains(t, eventTypes(events), hslog.EventZoneChange)
	assert.Len(t, events, 3)

	events, _ = collect(t, hslog.ParseReader(context.Background(), strings.NewReader(parseLog),
		hslog.WithParseIncludeTypes(hslog.EventTurnStart),
	))
	assert.Equal(t, []hslog.EventType{hslog.EventTurnStart}, eventTypes(events))
}

func TestParseReader_ErrorsDoNotAbort(t *testing.T) {
	input := "Entity=Alice tag=PLAYSTATE value=WON\nname=Fireball id=42 ... to FRIENDLY HAND\n"

	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(input)))

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], hslog.ErrUnresolvedIdentity)
	var perr *hslog.ParseError
	require.ErrorAs(t, errs[0], &perr)
	assert.Equal(t, "Entity=Alice tag=PLAYSTATE value=WON", perr.Line)
	assert.Len(t, events, 1)
}

func TestParseReader_StopOnError(t *testing.T) {
	input := "Entity=Alice tag=PLAYSTATE value=WON\nname=Fireball id=42 ... to FRIENDLY HAND\n"

	events, errs := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(input),
		hslog.WithParseStopOnError(true),
	))

	assert.Len(t, errs, 1)
	assert.Empty(t, events)
}

func TestParseReader_EarlyBreak(t *testing.T) {
	count := 0
	for _, err := range hslog.ParseReader(context.Background(), strings.NewReader(parseLog)) {
		require.NoError(t, err)
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestParseReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events, errs := collect(t, hslog.ParseReader(ctx, strings.NewReader(parseLog)))

	assert.Empty(t, events)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestParseReader_SessionOptions(t *testing.T) {
	// Under the first-turn-start policy, turn 1 needs a player TURN_START.
	events, _ := collect(t, hslog.ParseReader(context.Background(), strings.NewReader(parseLog),
		hslog.WithParseSessionOptions(hslog.WithTurnOnePolicy(hslog.TurnOneOnFirstTurnStart)),
	))
	assert.NotContains(t, eventTypes(events), hslog.EventTurnStart)
}

func TestParseFileAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")
	require.NoError(t, os.WriteFile(path, []byte(parseLog), 0644))

	events, err := hslog.ParseFileAll(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestParseFileAll_LineErrorsKeepEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_log.txt")
	input := "Entity=Alice tag=PLAYSTATE value=WON\nname=Fireball id=42 ... to FRIENDLY HAND\n"
	require.NoError(t, os.WriteFile(path, []byte(input), 0644))

	events, err := hslog.ParseFileAll(context.Background(), path)
	assert.ErrorIs(t, err, hslog.ErrUnresolvedIdentity)
	assert.Len(t, events, 1)
}

func TestParseFile_NotFound(t *testing.T) {
	events, err := hslog.ParseFileAll(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.Nil(t, events)
}

func TestParseFile_RejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test requires Unix")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.WriteFile(target, []byte(parseLog), 0644))
	require.NoError(t, os.Symlink(target, link))

	_, err := hslog.ParseFileAll(context.Background(), link)
	assert.Error(t, err)
}
