package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hslog/hslog-go/internal/config"
	"github.com/hslog/hslog-go/internal/sink"
	"github.com/hslog/hslog-go/pkg/hslog"
)

// watchFlags are shared by the commands that tail the log.
type watchFlags struct {
	logFile       string
	lineBreak     string
	turnOnePolicy string
	types         []string
	patterns      []string
	plugins       []string
	pluginTimeout time.Duration
	replay        bool
	wait          bool
	poll          bool
	redisAddr     string
	redisChannel  string
}

func (f *watchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.logFile, "log-file", "l", "",
		"Engine log file (auto-detected if not specified)")
	fs.StringVar(&f.lineBreak, "line-break", "",
		`Line break of the log: lf, crlf or a literal (default: platform)`)
	fs.StringVar(&f.turnOnePolicy, "turn-one-policy", "",
		"Turn 1 detection: mulligan-wait, first-turn-start")
	fs.StringSliceVarP(&f.types, "types", "t", nil,
		"Event types to show (comma-separated: game_start,turn_start,...)")
	fs.StringSliceVar(&f.patterns, "patterns", nil,
		"YAML pattern files for custom events")
	fs.StringSliceVar(&f.plugins, "plugins", nil,
		"Wasm plugin files for custom events")
	fs.DurationVar(&f.pluginTimeout, "plugin-timeout", 0,
		"Per-line plugin timeout (default 50ms)")
	fs.BoolVar(&f.replay, "replay", false,
		"Read the log from the start to rebuild a match in progress")
	fs.BoolVar(&f.wait, "wait", false,
		"Wait for the log file to appear")
	fs.BoolVar(&f.poll, "poll", false,
		"Poll the log file instead of using filesystem notifications")
	fs.StringVar(&f.redisAddr, "redis-addr", "",
		"Also publish events to Redis at this address")
	fs.StringVar(&f.redisChannel, "redis-channel", "",
		"Redis channel (default hslog:events)")
}

// apply overrides c with every flag set on the command line.
func (f *watchFlags) apply(cmd *cobra.Command, c *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("log-file") {
		c.LogFile = f.logFile
	}
	if fs.Changed("line-break") {
		c.LineBreak = f.lineBreak
	}
	if fs.Changed("turn-one-policy") {
		c.TurnOnePolicy = f.turnOnePolicy
	}
	if fs.Changed("patterns") {
		c.Patterns = f.patterns
	}
	if fs.Changed("plugins") {
		c.Plugins = f.plugins
	}
	if fs.Changed("poll") {
		c.Poll = f.poll
	}
	if fs.Changed("redis-addr") {
		c.Redis.Addr = f.redisAddr
	}
	if fs.Changed("redis-channel") {
		c.Redis.Channel = f.redisChannel
	}
	return c.Validate()
}

// watchSession is a running watcher and the resources it holds.
type watchSession struct {
	watcher *hslog.Watcher
	events  <-chan hslog.Event
	errs    <-chan error
	cleanup func()
}

func (s *watchSession) Close() {
	_ = s.watcher.Close()
	s.cleanup()
}

// start builds the parser chain and starts watching.
func (f *watchFlags) start(ctx context.Context, c *config.Config, log *slog.Logger) (*watchSession, error) {
	sessionOpts, err := c.SessionOptions()
	if err != nil {
		return nil, err
	}

	extras := len(c.Patterns) > 0 || len(c.Plugins) > 0
	types, err := NormalizeEventTypes(f.types, extras)
	if err != nil {
		return nil, err
	}

	parser, cleanup, err := buildParser(ctx, sessionOpts, c.Patterns, c.Plugins, f.pluginTimeout, log)
	if err != nil {
		return nil, err
	}

	opts := []hslog.WatchOption{
		hslog.WithLogFile(c.LogFile),
		hslog.WithParser(parser),
		hslog.WithWatchLineBreak(c.SessionLineBreak()),
		hslog.WithLogger(log),
		hslog.WithPolling(c.Poll),
		hslog.WithWaitForLogs(f.wait),
	}
	if f.replay {
		opts = append(opts, hslog.WithReplayFromStart())
	}
	if len(types) > 0 {
		opts = append(opts, hslog.WithIncludeTypes(types...))
	}

	w, err := hslog.NewWatcherWithOptions(opts...)
	if err != nil {
		cleanup()
		return nil, err
	}
	events, errs, err := w.Watch(ctx)
	if err != nil {
		_ = w.Close()
		cleanup()
		return nil, err
	}
	return &watchSession{watcher: w, events: events, errs: errs, cleanup: cleanup}, nil
}

// dialRedis returns the Redis sink when an address is configured.
func dialRedis(ctx context.Context, c *config.Config, log *slog.Logger) (*sink.Redis, error) {
	if c.Redis.Addr == "" {
		return nil, nil
	}
	r, err := sink.DialRedis(ctx, sink.RedisOptions{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Channel:  c.Redis.Channel,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return r, nil
}

// isFatal reports whether err ends the watch: the log file could not be
// found, so the watcher is about to close its channels.
func isFatal(err error) bool {
	var werr *hslog.WatchError
	return errors.As(err, &werr) && werr.Op == hslog.WatchOpFind &&
		!errors.Is(err, context.Canceled)
}

// drainErrors logs what is left on errs after the event channel closed and
// returns the first fatal error.
func drainErrors(errs <-chan error) error {
	if errs == nil {
		return nil
	}
	var fatal error
	for err := range errs {
		if fatal == nil && isFatal(err) {
			fatal = err
			continue
		}
		logWatchError(logger, err)
	}
	return fatal
}

// logWatchError reports a watcher error. Per-line errors are routine when
// attaching mid-match and only show with --verbose.
func logWatchError(log *slog.Logger, err error) {
	var perr *hslog.ParseError
	if errors.As(err, &perr) {
		log.Debug("line skipped", "error", perr.Err)
		return
	}
	log.Warn("watch error", "error", err)
}
