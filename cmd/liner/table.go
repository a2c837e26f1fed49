package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one summary-table column. Numeric columns (counts,
// confidence scores) render right-aligned.
type column struct {
	title   string
	numeric bool
}

func col(title string) column { return column{title: title} }

func numCol(title string) column { return column{title: title, numeric: true} }

// summaryTable accumulates rows for one of the CLI read-outs (run stats,
// per-card status, quarantine log, graph summary).
type summaryTable struct {
	columns []column
	rows    []table.Row
}

func newSummaryTable(columns ...column) *summaryTable {
	return &summaryTable{columns: columns}
}

// addRow appends one row. Missing trailing cells render empty; extra cells
// are dropped.
func (s *summaryTable) addRow(cells ...string) {
	row := make(table.Row, len(s.columns))
	for i := range s.columns {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	s.rows = append(s.rows, row)
}

func (s *summaryTable) render() string {
	if len(s.columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(s.columns))
	configs := make([]table.ColumnConfig, 0, len(s.columns))
	for i, c := range s.columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	for _, row := range s.rows {
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Cell formatters shared by the commands.

func countCell(n int) string { return fmt.Sprintf("%d", n) }

func percentCell(fraction float64) string { return fmt.Sprintf("%.0f%%", fraction*100) }

func confidenceCell(v float64) string { return fmt.Sprintf("%.2f", v) }

func whenCell(t time.Time) string { return t.Local().Format("2006-01-02 15:04") }
