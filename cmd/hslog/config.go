package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hslog/hslog-go/internal/logconfig"
	"github.com/hslog/hslog-go/internal/logfinder"
)

var (
	installEngineConfig string
	installForce        bool
	installCheck        bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect hslog and engine configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		shown := *cfg
		if shown.Redis.Password != "" {
			shown.Redis.Password = "********"
		}
		if err := enc.Encode(&shown); err != nil {
			return err
		}
		return enc.Close()
	},
}

var configInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the engine log.config that enables zone and power logging",
	Long: `The game client only writes the records hslog reads when its log.config
enables them. install writes that file. An existing file with other content
is left alone unless --force is given.

Examples:
  hslog config install
  hslog config install --check
  hslog config install --engine-config ~/log.config --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInstall,
}

func init() {
	configInstallCmd.Flags().StringVar(&installEngineConfig, "engine-config", "",
		"Path to the engine log.config (default: auto-detect)")
	configInstallCmd.Flags().BoolVar(&installForce, "force", false,
		"Overwrite a log.config with different content")
	configInstallCmd.Flags().BoolVar(&installCheck, "check", false,
		"Only report whether the file is installed")

	configCmd.AddCommand(configShowCmd, configInstallCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInstall(cmd *cobra.Command, args []string) error {
	explicit := cfg.EngineConfig
	if cmd.Flags().Changed("engine-config") {
		explicit = installEngineConfig
	}
	path, err := logfinder.FindEngineConfig(explicit)
	if err != nil {
		return fmt.Errorf("%w (use --engine-config)", err)
	}

	status, err := logconfig.Check(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if installCheck {
		fmt.Fprintf(out, "%s: %s\n", path, status)
		return nil
	}

	switch status {
	case logconfig.StatusCurrent:
		fmt.Fprintf(out, "%s is up to date\n", path)
		return nil
	case logconfig.StatusDifferent:
		if !installForce {
			return fmt.Errorf("%s has other content; rerun with --force to overwrite", path)
		}
	}

	if err := logconfig.Provision(path); err != nil {
		return err
	}
	logger.Info("engine config installed", "path", path)
	fmt.Fprintf(out, "wrote %s\nrestart the game client to apply it\n", path)
	return nil
}
