package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KnowOneActual/image-processor/internal/format"
	"github.com/KnowOneActual/image-processor/internal/tui"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List output formats and how quality applies to them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(formatRows()))
		return nil
	},
}

func formatRows() []tui.SummaryRow {
	rows := make([]tui.SummaryRow, 0, len(format.All()))
	for _, f := range format.All() {
		rows = append(rows, tui.SummaryRow{
			Label: f.String(),
			Value: fmt.Sprintf("alpha:%s lossy:%s", yesNo(f.SupportsAlpha()), yesNo(f.Lossy())),
		})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
