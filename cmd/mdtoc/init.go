package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/config"
)

var (
	initForce bool
	initLocal bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a config file with the default settings.

By default the file goes to ~/.mdtoc/config.yaml (or --home). With --local it
is written to ./` + config.LocalFileName + ` instead, which takes precedence for
commands run in this directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		switch {
		case path != "":
		case initLocal:
			path = config.LocalFileName
		default:
			var err error
			if path, err = config.HomePath(homeDir); err != nil {
				return err
			}
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&initLocal, "local", false, "Write ./"+config.LocalFileName+" instead of the home config")

	rootCmd.AddCommand(initCmd)
}
