package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hslog/hslog-go/internal/config"
	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	config.FormatJSONL:  true,
	config.FormatPretty: true,
}

var (
	friendlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	opposingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, ev hslog.Event, out io.Writer) error {
	switch format {
	case config.FormatJSONL:
		return OutputJSON(ev, out)
	case config.FormatPretty:
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as one JSON line.
func OutputJSON(ev hslog.Event, out io.Writer) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable format.
func OutputPretty(ev hslog.Event, out io.Writer) error {
	var err error
	switch ev := ev.(type) {
	case event.GameStart:
		_, err = fmt.Fprintf(out, "%s %s\n", headerStyle.Render("== Game started:"), formatPlayers(ev.Players, false))
	case event.MulliganStart:
		_, err = fmt.Fprintln(out, headerStyle.Render("== Mulligan"))
	case event.TurnStart:
		_, err = fmt.Fprintf(out, "> Turn %d: %s\n", ev.Number, formatPlayer(ev.Player, false))
	case event.ZoneChange:
		_, err = fmt.Fprintf(out, "  %s %s %s\n", ev.CardName, dimStyle.Render(fmt.Sprintf("#%d ->", ev.CardID)),
			teamStyle(ev.Team).Render(string(ev.Team)+" "+ev.Zone))
	case event.GameOver:
		_, err = fmt.Fprintf(out, "%s %s\n", headerStyle.Render("== Game over:"), formatPlayers(ev.Players, true))
	case event.Custom:
		if len(ev.Data) > 0 {
			_, err = fmt.Fprintf(out, "* %s: %s\n", ev.Name, formatData(ev.Data))
		} else {
			_, err = fmt.Fprintf(out, "* %s\n", ev.Name)
		}
	default:
		_, err = fmt.Fprintf(out, "* %s\n", ev.Type())
	}
	return err
}

func formatPlayers(players []event.Player, withStatus bool) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		parts = append(parts, formatPlayer(p, withStatus))
	}
	sep := ", "
	if !withStatus {
		sep = " vs "
	}
	return strings.Join(parts, sep)
}

func formatPlayer(p event.Player, withStatus bool) string {
	s := teamStyle(p.Team).Render(p.Name)
	if withStatus && p.Status != "" {
		return s + " " + string(p.Status)
	}
	if p.Team != "" {
		s += dimStyle.Render(" (" + strings.ToLower(string(p.Team)) + ")")
	}
	return s
}

func teamStyle(t event.Team) lipgloss.Style {
	switch t {
	case event.Friendly:
		return friendlyStyle
	case event.Opposing:
		return opposingStyle
	default:
		return lipgloss.NewStyle()
	}
}

// formatData formats a map as sorted key=value pairs.
// Values are quoted if they contain spaces, equals signs, quotes, or control characters.
func formatData(data map[string]string) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(data))
	for _, k := range keys {
		parts = append(parts, quoteIfNeeded(k)+"="+quoteIfNeeded(data[k]))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains special characters or control characters.
// Returns the value unchanged if no quoting is needed.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}
	if !strings.ContainsFunc(v, func(c rune) bool {
		return c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F
	}) {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
