package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/config"
	"github.com/jackzampolin/mdtoc/internal/format"
)

var (
	formatCheck bool
	formatWatch bool
)

// errCheckFailed makes `format --check` exit non-zero.
var errCheckFailed = errors.New("files would be reformatted")

var formatCmd = &cobra.Command{
	Use:   "format <path>... | -",
	Short: "Format markdown files in place",
	Long: `Format markdown files in place, updating their tables of contents.

Directories are walked recursively for files with the configured extensions
(default: .md and .markdown). Use "-" to format stdin to stdout.

Examples:
  mdtoc format README.md               # Format one file
  mdtoc format docs/                   # Format every markdown file under docs/
  mdtoc format --check .               # List files that would change, exit 1 if any
  mdtoc format --watch docs/           # Keep formatting as files are saved
  cat README.md | mdtoc format -       # Format stdin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatCheck && formatWatch {
			return fmt.Errorf("--check and --watch cannot be combined")
		}

		cm, err := loadConfig()
		if err != nil {
			return err
		}
		f := newFormatter(cm.Get())

		if len(args) == 1 && args[0] == format.StdinPath {
			if formatWatch {
				return fmt.Errorf("--watch cannot be used with stdin")
			}
			changed, err := f.Stream(cmd.InOrStdin(), cmd.OutOrStdout(), formatCheck)
			if err != nil {
				return err
			}
			if formatCheck && changed {
				return errCheckFailed
			}
			return nil
		}

		results, err := f.Paths(cmd.Context(), args, formatCheck)
		if formatCheck {
			changed := 0
			for _, res := range results {
				if res.Changed {
					changed++
					fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				}
			}
			if err != nil {
				return err
			}
			if changed > 0 {
				return fmt.Errorf("%d %w", changed, errCheckFailed)
			}
			return nil
		}
		if err != nil {
			return err
		}

		if !formatWatch {
			return nil
		}
		logger := newLogger(cm.Get())
		return f.Watch(cmd.Context(), args, func(res format.Result, err error) {
			if err != nil {
				logger.Error("failed to format file", "path", res.Path, "error", err)
			}
		})
	},
}

// newFormatter builds a formatter from the loaded configuration.
func newFormatter(cfg *config.Config) *format.Formatter {
	return format.New(format.Config{
		PermalinkSymbol: cfg.TOC.PermalinkSymbol,
		Extensions:      cfg.Format.Extensions,
		Exclude:         cfg.Format.Exclude,
		Logger:          newLogger(cfg),
	})
}

func init() {
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "Report files that would change without writing them")
	formatCmd.Flags().BoolVar(&formatWatch, "watch", false, "Keep running and format files as they change")

	rootCmd.AddCommand(formatCmd)
}

