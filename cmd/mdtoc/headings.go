package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mdtoc/internal/api"
	"github.com/jackzampolin/mdtoc/internal/format"
)

var headingsCmd = &cobra.Command{
	Use:   "headings <file|->",
	Short: "List a document's headings with their anchors",
	Long: `List the headings of a document as the table of contents sees them:
level, text, anchor slug and, for headings inside the level window, their
depth in the table.

Examples:
  mdtoc headings README.md
  mdtoc headings -o json README.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src []byte
		var err error
		if args[0] == format.StdinPath {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			src, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		cm, err := loadConfig()
		if err != nil {
			return err
		}
		outline, err := newFormatter(cm.Get()).Outline(src)
		if err != nil {
			return err
		}
		return api.OutputTo(cmd.OutOrStdout(), api.GetOutputFormat(), outline)
	},
}

func init() {
	rootCmd.AddCommand(headingsCmd)
}
