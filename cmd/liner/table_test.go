package main

import (
	"strings"
	"testing"
	"time"
)

func TestSummaryTableAlignsNumericColumns(t *testing.T) {
	tbl := newSummaryTable(col("Outcome"), numCol("Count"))
	tbl.addRow("Enhanced", countCell(7))
	tbl.addRow("Quarantined", countCell(125))

	out := tbl.render()
	requireContains(t, out, "Outcome")
	requireContains(t, out, "Count")

	var sevenLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Enhanced") {
			sevenLine = line
		}
	}
	if sevenLine == "" {
		t.Fatalf("missing row in output:\n%s", out)
	}
	if !strings.Contains(sevenLine, "  7 ") {
		t.Fatalf("expected right-aligned count in %q", sevenLine)
	}
}

func TestSummaryTablePadsShortRows(t *testing.T) {
	tbl := newSummaryTable(col("Card"), col("Artist"), col("Detail"))
	tbl.addRow("Muddy_Waters")

	out := tbl.render()
	requireContains(t, out, "Muddy_Waters")
	if lines := strings.Split(out, "\n"); len(lines) < 4 {
		t.Fatalf("expected bordered table, got:\n%s", out)
	}
}

func TestCellFormatters(t *testing.T) {
	if got := percentCell(0.5); got != "50%" {
		t.Fatalf("percentCell(0.5) = %q", got)
	}
	if got := confidenceCell(0.85); got != "0.85" {
		t.Fatalf("confidenceCell(0.85) = %q", got)
	}
	when := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)
	if got := whenCell(when); !strings.HasPrefix(got, "2026-03-") {
		t.Fatalf("whenCell = %q", got)
	}
}
