package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hslog/hslog-go/internal/config"
	"github.com/hslog/hslog-go/internal/sink"
)

var (
	tailFlags  watchFlags
	tailFormat string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Monitor the engine log and output events",
	Long: `Monitor the engine log in real-time and output match events.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Monitor with default settings (auto-detect log file)
  hslog tail

  # Only turns and results
  hslog tail --types turn_start,game_over

  # Human-readable output
  hslog tail --format pretty

  # Rebuild the match in progress, then follow
  hslog tail --replay

  # Also publish to Redis
  hslog tail --redis-addr localhost:6379

  # Pipe to jq for filtering
  hslog tail | jq 'select(.type == "zone_change")'`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailFlags.register(tailCmd)
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "",
		"Output format: jsonl, pretty (default jsonl)")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("format") {
		cfg.Format = tailFormat
	}
	if err := tailFlags.apply(cmd, cfg); err != nil {
		return err
	}

	ws, err := tailFlags.start(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	var s sink.Sink
	redisSink, err := dialRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisSink != nil {
		defer redisSink.Close()
		s = redisSink
	}

	return tailLoop(ctx, ws, cfg, s, cmd)
}

func tailLoop(ctx context.Context, ws *watchSession, c *config.Config, s sink.Sink, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	var stamper sink.Stamper
	errs := ws.errs

	for {
		select {
		case ev, ok := <-ws.events:
			if !ok {
				return drainErrors(errs)
			}
			if err := OutputEvent(c.Format, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			if s != nil {
				if err := s.Publish(ctx, stamper.Stamp(ev)); err != nil {
					logger.Warn("publish failed", "error", err)
				}
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if isFatal(err) {
				return err
			}
			logWatchError(logger, err)

		case <-ctx.Done():
			return nil
		}
	}
}
