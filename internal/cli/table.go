package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mgpai22/shabd/internal/optimize"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(title string, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renders the before/after comparison for one input
func renderStats(title string, stats optimize.Stats) string {
	o, n := stats.Original, stats.Optimized
	rows := [][]string{
		{"segments", fmt.Sprintf("%d", o.Count), fmt.Sprintf("%d", n.Count)},
		{"avg text length", fmt.Sprintf("%.1f", o.AvgTextLength), fmt.Sprintf("%.1f", n.AvgTextLength)},
		{"avg duration (s)", fmt.Sprintf("%.2f", o.AvgDuration), fmt.Sprintf("%.2f", n.AvgDuration)},
		{"avg confidence", fmt.Sprintf("%.3f", o.AvgConfidence), fmt.Sprintf("%.3f", n.AvgConfidence)},
	}

	out := renderTable(title,
		[]string{"metric", "original", "optimized"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	)

	if len(stats.Changes) > 0 {
		out += "\nchanges: " + strings.Join(stats.Changes, ", ")
	}
	return out
}
