package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hslog/hslog-go/pkg/hslog"
)

var (
	parseFlags       watchFlags
	parseFormat      string
	parseStopOnError bool
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE|-",
	Short: "Reduce a whole log file and output its events",
	Long: `Read a saved engine log (or stdin with "-") from start to end and output
every match event found in it.

Examples:
  hslog parse Player.log
  hslog parse --format pretty --types game_start,game_over Player.log
  cat Player.log | hslog parse -`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseFlags.register(parseCmd)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "",
		"Output format: jsonl, pretty (default jsonl)")
	parseCmd.Flags().BoolVar(&parseStopOnError, "stop-on-error", false,
		"Stop at the first line the parsers reject")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("format") {
		cfg.Format = parseFormat
	}
	if err := parseFlags.apply(cmd, cfg); err != nil {
		return err
	}

	sessionOpts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}
	types, err := NormalizeEventTypes(parseFlags.types, len(cfg.Patterns) > 0 || len(cfg.Plugins) > 0)
	if err != nil {
		return err
	}
	parser, cleanup, err := buildParser(ctx, sessionOpts, cfg.Patterns, cfg.Plugins, parseFlags.pluginTimeout, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []hslog.ParseOption{
		hslog.WithParseParser(parser),
		hslog.WithParseLineBreak(cfg.SessionLineBreak()),
		hslog.WithParseStopOnError(parseStopOnError),
	}
	if len(types) > 0 {
		opts = append(opts, hslog.WithParseIncludeTypes(types...))
	}

	if args[0] == "-" {
		return parseStream(ctx, hslog.ParseReader(ctx, cmd.InOrStdin(), opts...), cmd.OutOrStdout())
	}
	return parseStream(ctx, hslog.ParseFile(ctx, args[0], opts...), cmd.OutOrStdout())
}

// parseStream writes every event. Line errors are logged; with
// --stop-on-error the first one is returned.
func parseStream(ctx context.Context, seq iter.Seq2[hslog.Event, error], out io.Writer) error {
	for ev, err := range seq {
		if err != nil {
			var perr *hslog.ParseError
			if !errors.As(err, &perr) {
				return err
			}
			if parseStopOnError {
				return err
			}
			logWatchError(logger, err)
			continue
		}
		if err := OutputEvent(cfg.Format, ev, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return ctx.Err()
}
