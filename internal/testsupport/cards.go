package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"liner/internal/config"
)

// WriteCard writes a raw markdown card into the configured card library,
// creating the directory if needed. Returns the full path to the card.
func WriteCard(t testing.TB, cfg *config.Config, key, content string) string {
	t.Helper()

	if err := os.MkdirAll(cfg.Paths.CardsDir, 0o755); err != nil {
		t.Fatalf("mkdir cards dir: %v", err)
	}
	path := filepath.Join(cfg.Paths.CardsDir, key+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write card %s: %v", key, err)
	}
	return path
}

// CleanCard returns a well-formed card body for the named artist, suitable
// as a baseline fixture that the suspicion classifier scores as clean.
func CleanCard(name, wikipediaURL string) string {
	return "---\n" +
		"title: " + name + "\n" +
		"type: artist\n" +
		"external_urls:\n" +
		"  wikipedia: " + wikipediaURL + "\n" +
		"---\n\n" +
		"# " + name + "\n\n" +
		"## Biography\n\n" +
		name + " is an acclaimed recording artist known for a long string of albums.\n\n" +
		"## Fun Facts\n\n" +
		"- Released a debut album to wide acclaim.\n"
}
