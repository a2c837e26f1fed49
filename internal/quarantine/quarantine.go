// Package quarantine isolates cards whose source match could not be fixed.
// A quarantined card moves into the problem-cards directory with its
// detection history stamped into the frontmatter, and every move appends a
// record to a JSONL audit log so recoveries can be reviewed later.
package quarantine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/fileutil"
	"liner/internal/identity"
	"liner/internal/logging"
)

// LogFileName is the audit log kept inside the quarantine directory.
const LogFileName = "quarantine_log.jsonl"

// Record is one line of the audit log.
type Record struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Filename  string   `json:"filename"`
	Artist    string   `json:"artist_name"`
	Reason    string   `json:"reason"`
	Issues    []string `json:"issues"`
	MovedTo   string   `json:"moved_to"`
}

// Manager moves cards into and back out of quarantine.
type Manager struct {
	cardsDir      string
	quarantineDir string
	logger        *slog.Logger
}

// NewManager constructs a Manager over the configured paths.
func NewManager(paths config.Paths, logger *slog.Logger) *Manager {
	return &Manager{
		cardsDir:      paths.CardsDir,
		quarantineDir: paths.QuarantineDir,
		logger:        logging.NewComponentLogger(logger, "quarantine"),
	}
}

// Quarantine stamps the card with its detection history, writes it into the
// quarantine directory, removes the original, and appends an audit record.
// The returned record carries the generated quarantine ID.
func (m *Manager) Quarantine(key string, doc *card.Document, reason string, issues []string, now time.Time) (*Record, error) {
	if err := os.MkdirAll(m.quarantineDir, 0o755); err != nil {
		return nil, fmt.Errorf("create quarantine dir: %w", err)
	}

	sourcePath := filepath.Join(m.cardsDir, key+".md")
	destPath := filepath.Join(m.quarantineDir, key+".md")

	doc.Meta.SetString(card.KeyDataQuality, card.QualityProblematic)
	doc.Meta.SetString(card.KeyQuarantineReason, reason)
	doc.Meta.SetStringList(card.KeyOriginalIssues, issues)
	doc.Meta.SetString(card.KeyQuarantineDate, now.Format(time.RFC3339))
	doc.Meta.SetString(card.KeyOriginalLocation, sourcePath)

	rendered, err := doc.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize quarantined card %s: %w", key, err)
	}
	if err := fileutil.WriteFileAtomic(destPath, []byte(rendered), 0o644); err != nil {
		return nil, fmt.Errorf("write quarantined card %s: %w", key, err)
	}
	if err := os.Remove(sourcePath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove original card %s: %w", key, err)
	}

	artist := doc.Meta.String(card.KeyTitle)
	if artist == "" {
		artist = identity.DisplayName(key)
	}
	record := &Record{
		ID:        uuid.NewString(),
		Timestamp: now.Format(time.RFC3339),
		Filename:  key + ".md",
		Artist:    artist,
		Reason:    reason,
		Issues:    issues,
		MovedTo:   destPath,
	}
	if err := m.appendRecord(record); err != nil {
		return nil, err
	}
	m.logger.Warn("card quarantined",
		logging.String(logging.FieldCardKey, key),
		logging.String("reason", reason),
		logging.Int("issues", len(issues)))
	return record, nil
}

// Restore moves a quarantined card back into the collection and strips the
// quarantine metadata. The suspicion that sent it there is left for the next
// run to re-evaluate.
func (m *Manager) Restore(key string) error {
	sourcePath := filepath.Join(m.quarantineDir, key+".md")
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read quarantined card %s: %w", key, err)
	}
	doc, _ := card.Parse(string(raw))
	doc.Meta.SetString(card.KeyDataQuality, card.QualityNormal)
	doc.Meta.Delete(card.KeyQuarantineReason)
	doc.Meta.Delete(card.KeyOriginalIssues)
	doc.Meta.Delete(card.KeyQuarantineDate)
	doc.Meta.Delete(card.KeyOriginalLocation)

	rendered, err := doc.Serialize()
	if err != nil {
		return fmt.Errorf("serialize restored card %s: %w", key, err)
	}
	destPath := filepath.Join(m.cardsDir, key+".md")
	if err := fileutil.WriteFileAtomic(destPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("restore card %s: %w", key, err)
	}
	if err := os.Remove(sourcePath); err != nil {
		return fmt.Errorf("remove quarantined card %s: %w", key, err)
	}
	m.logger.Info("card restored from quarantine", logging.String(logging.FieldCardKey, key))
	return nil
}

// List returns the keys of all quarantined cards, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.quarantineDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list quarantine dir: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".md"))
	}
	sort.Strings(keys)
	return keys, nil
}

// Records reads the full audit log, oldest first. Unparseable lines are
// skipped; the log is append-only and a torn final line must not hide the
// rest of the history.
func (m *Manager) Records() ([]Record, error) {
	raw, err := os.ReadFile(filepath.Join(m.quarantineDir, LogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read quarantine log: %w", err)
	}
	var records []Record
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			m.logger.Warn("skipping unparseable quarantine log line", logging.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (m *Manager) appendRecord(record *Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode quarantine record: %w", err)
	}
	logPath := filepath.Join(m.quarantineDir, LogFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open quarantine log: %w", err)
	}
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("append quarantine record: %w", err)
	}
	return file.Close()
}
