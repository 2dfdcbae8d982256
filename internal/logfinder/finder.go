// Package logfinder locates the card game engine's log file and log
// configuration for the current platform.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Environment variable names for overriding the platform defaults.
const (
	EnvLogFile      = "HSLOG_LOG_FILE"
	EnvEngineConfig = "HSLOG_ENGINE_CONFIG"
)

// Sentinel errors.
var (
	ErrLogFileNotFound      = errors.New("log file not found")
	ErrEngineConfigNotFound = errors.New("engine config location unknown")
)

// DefaultLineBreak returns the line break the engine writes on goos.
func DefaultLineBreak(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}

// DefaultLogFiles returns candidate engine log files for goos in priority order.
func DefaultLogFiles(goos string) []string {
	return defaultLogFiles(goos, os.Getenv)
}

func defaultLogFiles(goos string, getenv func(string) string) []string {
	switch goos {
	case "windows":
		var candidates []string
		for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
			if dir := getenv(env); dir != "" {
				candidates = append(candidates, filepath.Join(dir, "Hearthstone", "Hearthstone_Data", "output_log.txt"))
			}
		}
		if len(candidates) == 0 {
			candidates = append(candidates,
				filepath.Join(`C:\`, "Program Files (x86)", "Hearthstone", "Hearthstone_Data", "output_log.txt"),
				filepath.Join(`C:\`, "Program Files", "Hearthstone", "Hearthstone_Data", "output_log.txt"),
			)
		}
		return candidates
	case "darwin":
		home := getenv("HOME")
		if home == "" {
			return nil
		}
		return []string{filepath.Join(home, "Library", "Logs", "Unity", "Player.log")}
	default:
		return nil
	}
}

// DefaultEngineConfig returns where the engine reads its log.config on goos.
func DefaultEngineConfig(goos string) (string, error) {
	return defaultEngineConfig(goos, os.Getenv)
}

func defaultEngineConfig(goos string, getenv func(string) string) (string, error) {
	switch goos {
	case "windows":
		if dir := getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "Blizzard", "Hearthstone", "log.config"), nil
		}
	case "darwin":
		if home := getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Preferences", "Blizzard", "Hearthstone", "log.config"), nil
		}
	}
	return "", fmt.Errorf("%w on %s", ErrEngineConfigNotFound, goos)
}

// FindLogFile returns the engine log file.
//
// Priority:
//  1. explicit (if non-empty)
//  2. HSLOG_LOG_FILE environment variable
//  3. Auto-detect from DefaultLogFiles(runtime.GOOS)
//
// Returns an error wrapping ErrLogFileNotFound if the chosen file does not
// exist (yet) or is not a regular file. The returned path has symlinks
// resolved for consistency.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveLogFile(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s", ErrLogFileNotFound, explicit)
	}

	if envFile := os.Getenv(EnvLogFile); envFile != "" {
		if resolved := resolveLogFile(envFile); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to %s", ErrLogFileNotFound, EnvLogFile, envFile)
	}

	for _, path := range DefaultLogFiles(runtime.GOOS) {
		if resolved := resolveLogFile(path); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogFileNotFound
}

// FindEngineConfig returns the engine log.config path, honoring
// HSLOG_ENGINE_CONFIG. The file itself does not have to exist.
func FindEngineConfig(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if envFile := os.Getenv(EnvEngineConfig); envFile != "" {
		return envFile, nil
	}
	return DefaultEngineConfig(runtime.GOOS)
}

// resolveLogFile resolves symlinks and validates the file.
// Returns the resolved path if valid, empty string otherwise.
func resolveLogFile(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return resolved
}
