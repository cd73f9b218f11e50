package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tithing/internal/config"
)

func newInitCommand() *cobra.Command {
	var force bool
	var rate string
	var desc string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default tithing.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			path, err := runInit(absDir, desc, rate, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	cmd.Flags().StringVar(&rate, "rate", "", "default tithe rate")
	cmd.Flags().StringVar(&desc, "desc", "", "default description filter")

	return cmd
}

func runInit(dir, desc, rate string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if desc != "" {
		cfg.Defaults.DescContains = desc
	}
	if rate != "" {
		cfg.Defaults.Rate = rate
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := config.Save(path, cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
