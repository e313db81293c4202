package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable formats tabular command output with rounded borders.
func renderTable(headers []string, rows [][]string, alignments []columnAlignment) string {
	w := table.NewWriter()
	w.SetStyle(table.StyleRounded)

	headerRow := make(table.Row, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	w.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		w.AppendRow(tableRow)
	}

	if len(alignments) > 0 {
		configs := make([]table.ColumnConfig, 0, len(alignments))
		for i, alignment := range alignments {
			align := text.AlignLeft
			if alignment == alignRight {
				align = text.AlignRight
			}
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align})
		}
		w.SetColumnConfigs(configs)
	}

	return w.Render()
}
