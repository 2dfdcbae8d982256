package pattern

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hslog/hslog-go/internal/safefile"
	"github.com/hslog/hslog-go/pkg/hslog"
)

const (
	// MaxPatternFileSize is the maximum allowed size for a pattern file (1MB).
	MaxPatternFileSize = 1 * 1024 * 1024

	// MaxPatternLength is the maximum length of one regex (512 bytes).
	MaxPatternLength = 512

	// MaxPatternCount is the maximum number of patterns in a file.
	MaxPatternCount = 1000

	// SupportedVersion is the currently supported pattern file format version.
	SupportedVersion = 1
)

// sanitizePathError drops the path from an *os.PathError so messages shown
// to users do not leak file system layout.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

// Load reads and validates a pattern file.
// Only regular files are accepted, and reads are capped at MaxPatternFileSize.
//
// Example:
//
//	pf, err := pattern.Load("patterns.yaml")
//	if err != nil {
//	    log.Fatalf("failed to load pattern file: %v", err)
//	}
func Load(path string) (*PatternFile, error) {
	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, errors.New("pattern file must be a regular file (not a symlink, FIFO, device, or directory)")
		}
		return nil, fmt.Errorf("failed to open pattern file: %w", sanitizePathError(err))
	}
	defer f.Close()

	if info.Size() == 0 {
		return nil, errors.New("pattern file is empty")
	}
	if info.Size() > MaxPatternFileSize {
		return nil, fmt.Errorf("pattern file too large: %d bytes (max %d)", info.Size(), MaxPatternFileSize)
	}

	// Read one byte past the limit to detect growth since the stat.
	data, err := io.ReadAll(io.LimitReader(f, MaxPatternFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", sanitizePathError(err))
	}

	return LoadBytes(data)
}

// LoadBytes parses and validates a pattern file held in memory.
func LoadBytes(data []byte) (*PatternFile, error) {
	if len(data) == 0 {
		return nil, errors.New("pattern file is empty")
	}
	if len(data) > MaxPatternFileSize {
		return nil, fmt.Errorf("pattern file too large: %d bytes (max %d)", len(data), MaxPatternFileSize)
	}

	var pf PatternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := pf.Validate(); err != nil {
		return nil, err
	}

	return &pf, nil
}

// Validate checks the version, the pattern count, required fields, id
// uniqueness, regex length and that no event_type shadows a built-in event.
// Regexes are compiled by NewRegexParser.
func (pf *PatternFile) Validate() error {
	if err := pf.validateHeader(); err != nil {
		return err
	}

	seenIDs := make(map[string]int, len(pf.Patterns))
	for i, p := range pf.Patterns {
		if err := p.validate(i); err != nil {
			return err
		}
		if prev, exists := seenIDs[p.ID]; exists {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at pattern[%d])", prev),
			}
		}
		seenIDs[p.ID] = i
	}
	return nil
}

func (pf *PatternFile) validateHeader() error {
	switch {
	case pf.Version != SupportedVersion:
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", pf.Version, SupportedVersion),
		}
	case len(pf.Patterns) == 0:
		return &ValidationError{Field: "patterns", Message: "at least one pattern is required"}
	case len(pf.Patterns) > MaxPatternCount:
		return &ValidationError{
			Field:   "patterns",
			Message: fmt.Sprintf("too many patterns (%d), maximum allowed is %d", len(pf.Patterns), MaxPatternCount),
		}
	}
	return nil
}

// validate checks one pattern in isolation; i is its position in the file.
func (p Pattern) validate(i int) error {
	switch {
	case p.ID == "":
		return &PatternError{Index: i, Field: "id", Message: "id is required"}
	case p.EventType == "":
		return &PatternError{Index: i, ID: p.ID, Field: "event_type", Message: "event_type is required"}
	case p.Regex == "":
		return &PatternError{Index: i, ID: p.ID, Field: "regex", Message: "regex is required"}
	case len(p.Regex) > MaxPatternLength:
		return &PatternError{
			Index:   i,
			ID:      p.ID,
			Field:   "regex",
			Message: fmt.Sprintf("pattern too long: %d bytes (max %d)", len(p.Regex), MaxPatternLength),
		}
	}
	for _, builtin := range hslog.BuiltinEventTypes() {
		if p.EventType == string(builtin) {
			return &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "event_type",
				Message: fmt.Sprintf("%q is a built-in event type", p.EventType),
				Cause:   ErrReservedEventType,
			}
		}
	}
	return nil
}
