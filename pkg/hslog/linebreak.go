package hslog

import (
	"bufio"
	"bytes"
	"strings"
)

// isNewlineBreak reports whether lineBreak ends records at "\n", which the
// tailer and bufio.ScanLines already handle.
func isNewlineBreak(lineBreak string) bool {
	return lineBreak == "\n" || lineBreak == "\r\n"
}

// resolveLineBreak picks the record separator: an explicit value first,
// then the one configured on the session options, then "\n".
func resolveLineBreak(explicit string, sessionOpts []SessionOption) string {
	if explicit != "" {
		return explicit
	}
	if lb := applySessionOptions(sessionOpts).lineBreak; lb != "" {
		return lb
	}
	return "\n"
}

// scanRecords returns a split function that ends records at lineBreak.
// Newlines around a custom separator are trimmed from each record.
func scanRecords(lineBreak string) bufio.SplitFunc {
	if isNewlineBreak(lineBreak) {
		return bufio.ScanLines
	}
	sep := []byte(lineBreak)
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, sep); i >= 0 {
			return i + len(sep), bytes.Trim(data[:i], "\r\n"), nil
		}
		if atEOF {
			return len(data), bytes.Trim(data, "\r\n"), nil
		}
		return 0, nil, nil
	}
}

// splitRecords breaks a tailed line into records. A newline break leaves
// the line whole.
func splitRecords(line, lineBreak string) []string {
	if isNewlineBreak(lineBreak) || !strings.Contains(line, lineBreak) {
		return []string{line}
	}
	parts := strings.Split(line, lineBreak)
	records := parts[:0]
	for _, p := range parts {
		if p = strings.Trim(p, "\r\n"); p != "" {
			records = append(records, p)
		}
	}
	return records
}
