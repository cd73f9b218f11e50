package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tithing/internal/buildinfo"
	"github.com/cleared-dev/tithing/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:     "tithing",
		Short:   "Compute tithing on payroll deposits from a bank statement export",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&gf.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&gf.envFile, "env-file", "", ".env file with TITHING_* overrides")
	rootCmd.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCalcCommand(&gf))
	rootCmd.AddCommand(newServeCommand(&gf))

	return rootCmd
}

// loadConfig reads the config file and environment overrides. The default
// config path may be absent; an explicit --config must exist.
func loadConfig(cmd *cobra.Command, gf *globalFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(gf.configPath)
	} else {
		cfg, err = config.LoadOrDefault(gf.configPath)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, gf.envFile); err != nil {
		return nil, err
	}
	if gf.logLevel != "" {
		cfg.Log.Level = gf.logLevel
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "tithing",
	})
	if level == "" {
		return logger, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
