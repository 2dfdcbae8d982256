package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hslog/hslog-go/internal/plugin"
	"github.com/hslog/hslog-go/pkg/hslog"
	"github.com/hslog/hslog-go/pkg/hslog/pattern"
)

// buildParser returns the session for sessionOpts, chained with the given
// pattern files and wasm plugins when there are any. The chain keeps going
// when one parser fails so an unresolved player never hides plugin events.
//
// The cleanup function is always non-nil, even on error.
func buildParser(ctx context.Context, sessionOpts []hslog.SessionOption, patternFiles, pluginFiles []string, pluginTimeout time.Duration, logger *slog.Logger) (hslog.Parser, func(), error) {
	noop := func() {}

	opts := append([]hslog.SessionOption{hslog.WithSessionLogger(logger)}, sessionOpts...)
	session, err := hslog.NewSession(opts...)
	if err != nil {
		return nil, noop, err
	}
	if len(patternFiles) == 0 && len(pluginFiles) == 0 {
		return session, noop, nil
	}

	parsers := []hslog.Parser{session}
	var plugins []*plugin.Plugin
	cleanup := func() {
		for _, p := range plugins {
			_ = p.Close()
		}
	}

	for i, path := range patternFiles {
		rp, err := pattern.NewRegexParserFromFile(path)
		if err != nil {
			// pattern errors never include the path
			return nil, noop, fmt.Errorf("pattern file %d: %w", i+1, err)
		}
		parsers = append(parsers, rp)
	}

	for i, path := range pluginFiles {
		p, err := plugin.Load(ctx, path, logger)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("plugin file %d: %w", i+1, err)
		}
		if pluginTimeout > 0 {
			p.SetTimeout(pluginTimeout)
		}
		parsers = append(parsers, p)
		plugins = append(plugins, p)
	}

	return &hslog.ParserChain{
		Mode:    hslog.ChainContinueOnError,
		Parsers: parsers,
	}, cleanup, nil
}
