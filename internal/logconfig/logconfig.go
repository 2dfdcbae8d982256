// Package logconfig installs the engine logging configuration that makes the
// client write zone and power records to its log file.
package logconfig

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hslog/hslog-go/internal/safefile"
)

//go:embed log.config
var defaultConfig []byte

// Default returns a copy of the embedded configuration.
func Default() []byte {
	return bytes.Clone(defaultConfig)
}

// Status describes an engine config file relative to the embedded default.
type Status int

const (
	// StatusMissing means no file exists at the path.
	StatusMissing Status = iota
	// StatusCurrent means the file matches the embedded default.
	StatusCurrent
	// StatusDifferent means the file exists with other content.
	StatusDifferent
)

func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusCurrent:
		return "current"
	case StatusDifferent:
		return "different"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Check reports whether path holds the embedded configuration.
func Check(path string) (Status, error) {
	f, _, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StatusMissing, nil
		}
		return StatusMissing, err
	}
	defer f.Close()

	got, err := io.ReadAll(io.LimitReader(f, int64(len(defaultConfig))+1))
	if err != nil {
		return StatusMissing, err
	}
	if bytes.Equal(got, defaultConfig) {
		return StatusCurrent, nil
	}
	return StatusDifferent, nil
}

// Provision writes the embedded configuration to path, replacing any
// existing file. Parent directories are created. Symlinks and non-regular
// files are refused.
func Provision(path string) error {
	if err := safefile.WriteRegular(path, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("provision engine config %s: %w", path, err)
	}
	return nil
}
