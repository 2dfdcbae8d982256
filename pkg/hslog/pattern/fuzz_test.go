package pattern

import (
	"context"
	"testing"
)

func FuzzRegexParser_ParseLine(f *testing.F) {
	parser, err := NewRegexParser(&PatternFile{
		Version: 1,
		Patterns: []Pattern{
			{ID: "basic", EventType: "basic", Regex: `CREATE_GAME`},
			{ID: "named", EventType: "named", Regex: `Entity=(?P<player>.+) tag=(?P<tag>\w+) value=(?P<value>\w+)`},
		},
	})
	if err != nil {
		f.Fatalf("Failed to create parser: %v", err)
	}

	f.Add("D 20:10:01.1234567 GameState.DebugPrintPower() - CREATE_GAME")
	f.Add("TAG_CHANGE Entity=Alice tag=ARMOR value=5")
	f.Add("")
	f.Add(string([]byte{0xff, 0xfe, 0xfd}))
	f.Add(string(make([]byte, 2048)))

	ctx := context.Background()

	f.Fuzz(func(t *testing.T, line string) {
		result, err := parser.ParseLine(ctx, line)
		if err != nil {
			t.Errorf("ParseLine returned error: %v", err)
		}
		if result.Matched != (len(result.Events) > 0) {
			t.Errorf("Matched = %v with %d events", result.Matched, len(result.Events))
		}
	})
}
