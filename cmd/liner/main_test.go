package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cardsDir := filepath.Join(base, "cards")
	if err := os.MkdirAll(cardsDir, 0o755); err != nil {
		t.Fatalf("mkdir cards dir: %v", err)
	}
	content := strings.Join([]string{
		"[paths]",
		"cards_dir = " + tomlString(cardsDir),
		"log_dir = " + tomlString(filepath.Join(base, "logs")),
		"",
		"[research]",
		`api_key = "test"`,
	}, "\n")
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func tomlString(value string) string {
	return `"` + strings.ReplaceAll(value, `\`, `\\`) + `"`
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	requireContains(t, string(raw), "[research]")

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists without --overwrite")
	}
}

func TestQuarantineListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "quarantine", "list")
	if err != nil {
		t.Fatalf("quarantine list: %v", err)
	}
	requireContains(t, out, "No quarantined cards")
}

func TestGraphSummaryEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "graph")
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	requireContains(t, out, "Artists: 0")
}

func TestStatusWithoutRuns(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestEnhanceDryRunEmptyLibrary(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "enhance", "--dry-run")
	if err != nil {
		t.Fatalf("enhance --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run: no cards were modified")
	requireContains(t, out, "Processed")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCLI(t, "--config", cfgPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "No ntfy topic configured")
}
