package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hslog/hslog-go/internal/sink"
)

var (
	serveFlags watchFlags
	serveAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Broadcast events to WebSocket clients",
	Long: `Tail the engine log and broadcast every event to WebSocket clients
connected to /ws. GET /health reports the number of clients.

Each message is a JSON envelope: {"id", "seq", "type", "time", "event"}.

Examples:
  hslog serve --addr 127.0.0.1:1780
  hslog serve --redis-addr localhost:6379`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (default 127.0.0.1:1780)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("addr") {
		cfg.Serve.Addr = serveAddr
	}
	if err := serveFlags.apply(cmd, cfg); err != nil {
		return err
	}

	hub := sink.NewHub(logger, nil)
	sinks := sink.Multi{hub}
	redisSink, err := dialRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisSink != nil {
		sinks = append(sinks, redisSink)
	}
	defer sinks.Close()

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	logger.Info("serving", "addr", ln.Addr().String())
	cmd.PrintErrf("listening on ws://%s/ws\n", ln.Addr())

	ws, err := serveFlags.start(ctx, cfg, logger)
	if err != nil {
		_ = srv.Close()
		return err
	}
	defer ws.Close()

	go func() {
		for err := range ws.errs {
			logWatchError(logger, err)
		}
	}()

	forwardErr := make(chan error, 1)
	go func() { forwardErr <- sink.Forward(ctx, ws.events, sinks, logger) }()

	var runErr error
	select {
	case err := <-serveErr:
		runErr = err
	case <-forwardErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if errors.Is(runErr, http.ErrServerClosed) {
		runErr = nil
	}
	return runErr
}
