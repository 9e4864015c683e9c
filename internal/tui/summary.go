package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/KnowOneActual/image-processor/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// ReportRows summarizes a finished batch.
func ReportRows(r processor.Report) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Entries scanned", Value: fmt.Sprintf("%d", r.Total())},
		{Label: "Processed", Value: fmt.Sprintf("%d", r.Processed)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", r.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", r.Failed)},
		{Label: "Elapsed", Value: r.Finished.Sub(r.Started).Round(time.Millisecond).String()},
	}
	if r.Cancelled {
		rows = append(rows, SummaryRow{Label: "Cancelled", Value: "yes"})
	}
	return rows
}

// RenderFailures lists failed files with their reasons, one per line.
func RenderFailures(r processor.Report) string {
	failures := r.Failures()
	if len(failures) == 0 {
		return ""
	}
	lines := make([]string, 0, len(failures)+1)
	lines = append(lines, errorStyle.Render("Failed files:"))
	for _, o := range failures {
		lines = append(lines, fmt.Sprintf("  %s %s %s", dimStyle.Render("-"), labelStyle.Render(o.File), dimStyle.Render(o.Reason)))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)
