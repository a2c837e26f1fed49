package quarantine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/logging"
)

func newTestManager(t *testing.T) (*Manager, config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := config.Paths{
		CardsDir:      dir,
		QuarantineDir: filepath.Join(dir, "problem-cards"),
	}
	return NewManager(paths, logging.NewNop()), paths
}

func seedCard(t *testing.T, paths config.Paths, key, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(paths.CardsDir, key+".md"), []byte(content), 0o644); err != nil {
		t.Fatalf("seed card: %v", err)
	}
}

func TestQuarantineMovesAndStampsCard(t *testing.T) {
	m, paths := newTestManager(t)
	raw := "---\ntitle: Chicago blues\n---\n\n# Wrong Match\n\n## Biography\n\nChicago blues is a genre.\n"
	seedCard(t, paths, "Muddy_Waters", raw)
	doc, _ := card.Parse(raw)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	issues := []string{"suspicious URL pattern", "genre definition opening"}

	record, err := m.Quarantine("Muddy_Waters", doc, "recovery failed", issues, now)
	if err != nil {
		t.Fatalf("quarantine: %v", err)
	}

	if _, err := os.Stat(filepath.Join(paths.CardsDir, "Muddy_Waters.md")); !os.IsNotExist(err) {
		t.Fatalf("original card still present")
	}
	moved, err := os.ReadFile(filepath.Join(paths.QuarantineDir, "Muddy_Waters.md"))
	if err != nil {
		t.Fatalf("read quarantined card: %v", err)
	}
	quarantined, _ := card.Parse(string(moved))
	if got := quarantined.Meta.String(card.KeyDataQuality); got != card.QualityProblematic {
		t.Fatalf("data_quality = %q", got)
	}
	if got := quarantined.Meta.String(card.KeyQuarantineReason); got != "recovery failed" {
		t.Fatalf("quarantine_reason = %q", got)
	}
	if got := quarantined.Meta.StringList(card.KeyOriginalIssues); len(got) != 2 {
		t.Fatalf("original_detection_issues = %v", got)
	}
	if got := quarantined.Meta.String(card.KeyQuarantineDate); got != "2026-08-30T12:00:00Z" {
		t.Fatalf("quarantine_date = %q", got)
	}

	if record.ID == "" || record.Artist != "Chicago blues" || record.Reason != "recovery failed" {
		t.Fatalf("record = %+v", record)
	}
}

func TestQuarantineAppendsAuditRecords(t *testing.T) {
	m, paths := newTestManager(t)
	now := time.Now().UTC()
	for _, key := range []string{"First_Card", "Second_Card"} {
		raw := "---\ntitle: " + key + "\n---\n\nbody\n"
		seedCard(t, paths, key, raw)
		doc, _ := card.Parse(raw)
		if _, err := m.Quarantine(key, doc, "bad match", []string{"issue"}, now); err != nil {
			t.Fatalf("quarantine %s: %v", key, err)
		}
	}

	records, err := m.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	if records[0].Filename != "First_Card.md" || records[1].Filename != "Second_Card.md" {
		t.Fatalf("record order = %+v", records)
	}
	if records[0].ID == records[1].ID {
		t.Fatalf("record IDs not unique")
	}
}

func TestRecordsSkipsTornLines(t *testing.T) {
	m, paths := newTestManager(t)
	if err := os.MkdirAll(paths.QuarantineDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	logPath := filepath.Join(paths.QuarantineDir, LogFileName)
	content := `{"id":"a","timestamp":"t","filename":"X.md","artist_name":"X","reason":"r","issues":[],"moved_to":"p"}` + "\n{torn"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	records, err := m.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "X.md" {
		t.Fatalf("records = %+v", records)
	}
}

func TestRestore(t *testing.T) {
	m, paths := newTestManager(t)
	raw := "---\ntitle: Artist\n---\n\n# Artist\n"
	seedCard(t, paths, "Artist", raw)
	doc, _ := card.Parse(raw)
	if _, err := m.Quarantine("Artist", doc, "mistake", nil, time.Now()); err != nil {
		t.Fatalf("quarantine: %v", err)
	}

	if err := m.Restore("Artist"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restoredRaw, err := os.ReadFile(filepath.Join(paths.CardsDir, "Artist.md"))
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	restored, _ := card.Parse(string(restoredRaw))
	if restored.Meta.Has(card.KeyQuarantineReason) || restored.Meta.Has(card.KeyQuarantineDate) {
		t.Fatalf("quarantine metadata survived restore: %v", restored.Meta.Keys())
	}
	if got := restored.Meta.String(card.KeyDataQuality); got != card.QualityNormal {
		t.Fatalf("data_quality = %q", got)
	}
	keys, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("quarantine not empty: %v", keys)
	}
}

func TestListEmptyWhenDirMissing(t *testing.T) {
	m, _ := newTestManager(t)
	keys, err := m.List()
	if err != nil || keys != nil {
		t.Fatalf("list = %v, %v", keys, err)
	}
}
