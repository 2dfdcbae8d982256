package hslog

import (
	"fmt"
	"log/slog"
	"time"
)

// TurnOnePolicy selects which log line starts turn 1.
//
// The engine logs the first player's TURN_START marker before the cards
// swapped during the mulligan have been printed, so the marker is not always
// a reliable start of turn 1. Both observed strategies are available.
type TurnOnePolicy int

const (
	// TurnOneOnMulliganWait starts turn 1 when the friendly player's
	// MULLIGAN_STATE becomes WAITING. This is the default.
	TurnOneOnMulliganWait TurnOnePolicy = iota

	// TurnOneOnFirstTurnStart starts turn 1 at the first TURN_START marker
	// of a player entity after the game started.
	TurnOneOnFirstTurnStart
)

var turnOnePolicyNames = map[TurnOnePolicy]string{
	TurnOneOnMulliganWait:   "mulligan-wait",
	TurnOneOnFirstTurnStart: "first-turn-start",
}

func (p TurnOnePolicy) String() string {
	if name, ok := turnOnePolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("TurnOnePolicy(%d)", int(p))
}

// ParseTurnOnePolicy parses "mulligan-wait" or "first-turn-start".
// The empty string yields the default policy.
func ParseTurnOnePolicy(s string) (TurnOnePolicy, error) {
	if s == "" {
		return TurnOneOnMulliganWait, nil
	}
	for p, name := range turnOnePolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown turn one policy %q (want mulligan-wait or first-turn-start)", s)
}

// DefaultLineBreak separates lines in Feed payloads unless WithLineBreak is used.
// A trailing "\r" is always trimmed, so CRLF text works with the default.
const DefaultLineBreak = "\n"

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// sessionConfig holds internal configuration for a session.
type sessionConfig struct {
	lineBreak     string
	turnOnePolicy TurnOnePolicy
	logger        *slog.Logger
}

func defaultSessionConfig() *sessionConfig {
	return &sessionConfig{
		lineBreak:     DefaultLineBreak,
		turnOnePolicy: TurnOneOnMulliganWait,
	}
}

func applySessionOptions(opts []SessionOption) *sessionConfig {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *sessionConfig) validate() error {
	if c.lineBreak == "" {
		return fmt.Errorf("line break must not be empty")
	}
	if _, ok := turnOnePolicyNames[c.turnOnePolicy]; !ok {
		return fmt.Errorf("unknown turn one policy %d", int(c.turnOnePolicy))
	}
	return nil
}

// WithLineBreak sets the sequence Feed splits payloads on.
// Platform defaults are the caller's business; see logfinder.DefaultLineBreak.
func WithLineBreak(lineBreak string) SessionOption {
	return func(c *sessionConfig) {
		c.lineBreak = lineBreak
	}
}

// WithTurnOnePolicy sets how turn 1 is detected.
func WithTurnOnePolicy(p TurnOnePolicy) SessionOption {
	return func(c *sessionConfig) {
		c.turnOnePolicy = p
	}
}

// WithSessionLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// ReplayMode specifies how to handle lines already in the log file.
type ReplayMode int

const (
	// ReplayNone only watches for new lines (default, tail -f behavior).
	ReplayNone ReplayMode = iota
	// ReplayFromStart reads from the beginning of the file, which rebuilds
	// the state of a match already in progress.
	ReplayFromStart
)

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logFile      string
	pollInterval time.Duration
	replay       ReplayMode
	waitForLogs  bool
	poll         bool
	logger       *slog.Logger
	filter       *compiledFilter
	parser       Parser // nil means a new Session built from sessionOpts
	sessionOpts  []SessionOption
	lineBreak    string // "" means the session's line break
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		pollInterval: 2 * time.Second,
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.replay != ReplayNone && c.replay != ReplayFromStart {
		return fmt.Errorf("unknown replay mode %d", int(c.replay))
	}
	return nil
}

// WithLogFile sets the engine log file to watch.
// If not set, the HSLOG_LOG_FILE environment variable and then the
// platform default location are used.
func WithLogFile(path string) WatchOption {
	return func(c *watchConfig) {
		c.logFile = path
	}
}

// WithPollInterval sets how often to check for the log file while waiting
// for it to appear. Default: 2 seconds.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithWaitForLogs configures whether to wait for the log file to appear.
// When true, the watcher polls at pollInterval until the file exists
// (useful for starting the watcher before the game launches).
// When false (default), ErrLogFileNotFound is reported immediately.
func WithWaitForLogs(wait bool) WatchOption {
	return func(c *watchConfig) {
		c.waitForLogs = wait
	}
}

// WithPolling makes the tailer poll the file instead of using filesystem
// notifications. Useful on network drives and in virtual machines.
func WithPolling(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.poll = poll
	}
}

// WithReplayFromStart reads the log from the beginning before tailing.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayFromStart
	}
}

// WithReplay sets the replay mode.
func WithReplay(mode ReplayMode) WatchOption {
	return func(c *watchConfig) {
		c.replay = mode
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithSessionOptions configures the Session the watcher creates when no
// custom parser is set.
func WithSessionOptions(opts ...SessionOption) WatchOption {
	return func(c *watchConfig) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// WithWatchLineBreak sets the record separator for tailed lines. The tailer
// always ends lines at "\n"; any other separator further splits each line.
// Defaults to the line break of WithSessionOptions.
func WithWatchLineBreak(lineBreak string) WatchOption {
	return func(c *watchConfig) {
		c.lineBreak = lineBreak
	}
}

// WithParser sets a custom parser for log line parsing.
// If p is nil, this option has no effect (a new Session remains the default).
func WithParser(p Parser) WatchOption {
	return func(c *watchConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParsers combines multiple parsers using ChainAll mode.
// At least one parser is required.
func WithParsers(parsers ...Parser) WatchOption {
	return func(c *watchConfig) {
		if len(parsers) > 0 {
			c.parser = &ParserChain{
				Mode:    ChainAll,
				Parsers: parsers,
			}
		}
	}
}

// WithIncludeTypes filters events to only include the specified types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithExcludeTypes filters out events of the specified types.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithFilter sets both include and exclude type filters.
// Exclude takes precedence over include.
func WithFilter(include, exclude []EventType) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// ParseOption configures ParseReader/ParseFile behavior.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	filter      *compiledFilter
	stopOnError bool
	parser      Parser
	sessionOpts []SessionOption
	lineBreak   string
}

// applyParseOptions applies functional options to a parseConfig.
func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseIncludeTypes filters events to only include the specified types.
func WithParseIncludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithParseExcludeTypes filters out events of the specified types.
func WithParseExcludeTypes(types ...EventType) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithParseParser sets a custom parser for ParseReader/ParseFile.
// If p is nil, this option has no effect (a new Session remains the default).
func WithParseParser(p Parser) ParseOption {
	return func(c *parseConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParseSessionOptions configures the Session created when no custom
// parser is set.
func WithParseSessionOptions(opts ...SessionOption) ParseOption {
	return func(c *parseConfig) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// WithParseLineBreak sets the record separator of the input.
// Defaults to the line break of WithParseSessionOptions, which is "\n".
func WithParseLineBreak(lineBreak string) ParseOption {
	return func(c *parseConfig) {
		c.lineBreak = lineBreak
	}
}

// WithParseStopOnError stops parsing on the first error instead of skipping.
// Default: false (report the error and continue).
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}
