package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/api"
	"github.com/jackzampolin/mdtoc/internal/config"
	"github.com/jackzampolin/mdtoc/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mdtoc",
	Short: "Keep markdown tables of contents in sync",
	Long: `mdtoc formats markdown documents and maintains a table of contents
wherever a document contains the directive

  <!-- mdformat-toc start -->

The table lists the document's headings as nested links, and headings get
an anchor so the links resolve on any renderer. Options go after "start":

  --slug=github|gitlab   anchor slug style (default: github)
  --minlevel=N           smallest heading level listed (default: 1)
  --maxlevel=N           largest heading level listed (default: 6)
  --no-anchors           do not add anchors to headings

Running the formatter twice gives the same result as running it once.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./"+config.LocalFileName+" or ~/.mdtoc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mdtoc home directory (default: ~/.mdtoc)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the explicit --config file, or the first of the local
// and home config files that exists. With neither, defaults apply.
func loadConfig() (*config.Manager, error) {
	if cfgFile != "" {
		return config.NewManager(cfgFile)
	}
	path, err := config.Search(homeDir)
	if err != nil {
		return nil, err
	}
	return config.NewManager(path)
}

// newLogger writes structured logs to stderr so formatted output on stdout
// stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}
