package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/logging"
	"liner/internal/services"
)

func newTestLibrary(t *testing.T) (*Library, config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := config.Paths{
		CardsDir:      dir,
		QuarantineDir: filepath.Join(dir, "problem-cards"),
		BackupDir:     filepath.Join(dir, "backups"),
	}
	return New(paths, logging.NewNop()), paths
}

func seedCard(t *testing.T, lib *Library, key, content string) {
	t.Helper()
	if err := os.WriteFile(lib.Path(key), []byte(content), 0o644); err != nil {
		t.Fatalf("seed card %s: %v", key, err)
	}
}

func TestListSkipsSubdirsAndHiddenFiles(t *testing.T) {
	lib, paths := newTestLibrary(t)
	seedCard(t, lib, "Big_Star", "# Big Star\n")
	seedCard(t, lib, "Ahmad_Jamal", "# Ahmad Jamal\n")
	if err := os.MkdirAll(paths.QuarantineDir, 0o755); err != nil {
		t.Fatalf("mkdir quarantine: %v", err)
	}
	if err := os.WriteFile(filepath.Join(paths.QuarantineDir, "Bad.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed quarantined card: %v", err)
	}
	if err := os.WriteFile(filepath.Join(paths.CardsDir, ".hidden.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed hidden file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(paths.CardsDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed txt file: %v", err)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Key != "Ahmad_Jamal" || entries[1].Key != "Big_Star" {
		t.Fatalf("order = %+v", entries)
	}
}

func TestReadMissingCard(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, _, err := lib.Read("Nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReadMalformedCardFailsSoft(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedCard(t, lib, "Broken", "---\ntitle: [oops\n---\n\nbody\n")
	doc, malformed, err := lib.Read("Broken")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !malformed {
		t.Fatalf("expected malformed flag")
	}
	if doc.Meta.Len() != 0 {
		t.Fatalf("metadata = %v", doc.Meta.Keys())
	}
}

func TestWriteBacksUpOriginalOnce(t *testing.T) {
	lib, paths := newTestLibrary(t)
	original := "---\ntitle: Big Star\n---\n\n# Big Star\n\n## Biography\n\nOriginal.\n"
	seedCard(t, lib, "Big_Star", original)

	doc, _, err := lib.Read("Big_Star")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc.Body = card.ReplaceSection(doc.Body, card.SectionBiography, "First rewrite.")
	if err := lib.Write("Big_Star", doc); err != nil {
		t.Fatalf("first write: %v", err)
	}
	doc.Body = card.ReplaceSection(doc.Body, card.SectionBiography, "Second rewrite.")
	if err := lib.Write("Big_Star", doc); err != nil {
		t.Fatalf("second write: %v", err)
	}

	backup, err := os.ReadFile(filepath.Join(paths.BackupDir, "Big_Star.md.backup"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != original {
		t.Fatalf("backup is not the original:\n%s", backup)
	}
	current, err := os.ReadFile(lib.Path("Big_Star"))
	if err != nil {
		t.Fatalf("read card: %v", err)
	}
	if got := string(current); !strings.Contains(got, "Second rewrite.") {
		t.Fatalf("card content = %q", got)
	}
}

func TestWriteRoundTripsThroughRead(t *testing.T) {
	lib, _ := newTestLibrary(t)
	doc, _ := card.Parse("---\ntitle: New Artist\n---\n\n# New Artist\n")
	if err := lib.Write("New_Artist", doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, malformed, err := lib.Read("New_Artist")
	if err != nil || malformed {
		t.Fatalf("read back: err=%v malformed=%v", err, malformed)
	}
	if got.Meta.String(card.KeyTitle) != "New Artist" {
		t.Fatalf("title = %q", got.Meta.String(card.KeyTitle))
	}
}

func TestAcquireBlocksSecondWriter(t *testing.T) {
	lib, paths := newTestLibrary(t)
	if err := lib.Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer lib.Release()

	second := New(paths, logging.NewNop())
	if err := second.Acquire(); err == nil {
		second.Release()
		t.Fatalf("second acquire should fail while lock is held")
	}
}

func TestRemove(t *testing.T) {
	lib, _ := newTestLibrary(t)
	seedCard(t, lib, "Gone", "# Gone\n")
	if err := lib.Remove("Gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(lib.Path("Gone")); !os.IsNotExist(err) {
		t.Fatalf("card still present")
	}
}

