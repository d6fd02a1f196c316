package tui

import (
	"fmt"
	"strings"
	"time"

	"media-library/internal/compress"
)

type SummaryRow struct {
	Label string
	Value string
}

// ResultRows lays out a finished run for RenderSummary.
func ResultRows(res compress.Result) []SummaryRow {
	status := "completed"
	if res.Cancelled {
		status = "cancelled"
	}
	rows := []SummaryRow{
		{Label: "Status", Value: status},
		{Label: "Files considered", Value: fmt.Sprintf("%d", res.Total)},
		{Label: "Compressed", Value: fmt.Sprintf("%d", res.Processed)},
		{Label: "Skipped (already done)", Value: fmt.Sprintf("%d", res.Skipped)},
		{Label: "Failed", Value: fmt.Sprintf("%d", res.Failed)},
		{Label: "Duration", Value: res.Duration.Round(time.Second).String()},
	}
	for _, path := range res.Stranded {
		rows = append(rows, SummaryRow{Label: "Left in scratch", Value: path})
	}
	return rows
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
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
