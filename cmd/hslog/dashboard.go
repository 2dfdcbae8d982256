package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hslog/hslog-go/internal/dashboard"
)

var dashboardFlags watchFlags

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the current match in a terminal UI",
	Long: `Tail the engine log and show the current match live: players, turn,
recent zone changes and the final result. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardFlags.register(dashboardCmd)
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dashboardFlags.apply(cmd, cfg); err != nil {
		return err
	}

	// The TUI owns the terminal; log records would corrupt it.
	if !verbose {
		logger = newLogger(io.Discard, false)
	}

	ws, err := dashboardFlags.start(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	label := cfg.LogFile
	p := tea.NewProgram(
		dashboard.New(ws.events, ws.errs, label),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err = p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
