package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"liner/internal/card"
	"liner/internal/config"
	"liner/internal/fileutil"
	"liner/internal/logging"
	"liner/internal/services"
)

const (
	cardExtension = ".md"
	backupSuffix  = ".md.backup"
	lockFileName  = ".liner.lock"
)

// Entry identifies one card on disk.
type Entry struct {
	Key  string
	Path string
}

// Library provides access to the card collection rooted at one directory.
type Library struct {
	cardsDir  string
	backupDir string
	logger    *slog.Logger
	lock      *flock.Flock
}

// New constructs a Library over the configured paths.
func New(paths config.Paths, logger *slog.Logger) *Library {
	return &Library{
		cardsDir:  paths.CardsDir,
		backupDir: paths.BackupDir,
		logger:    logging.NewComponentLogger(logger, "library"),
		lock:      flock.New(filepath.Join(paths.CardsDir, lockFileName)),
	}
}

// Acquire takes the collection's writer lock. A second writer fails fast
// instead of interleaving card mutations with the first.
func (l *Library) Acquire() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire library lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("library %s is locked by another process", l.cardsDir)
	}
	return nil
}

// Release drops the writer lock.
func (l *Library) Release() error {
	return l.lock.Unlock()
}

// List returns all cards directly under the collection root in sorted order.
// Subdirectories (quarantine, backups) and hidden files are not cards.
func (l *Library) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(l.cardsDir)
	if err != nil {
		return nil, fmt.Errorf("list cards in %s: %w", l.cardsDir, err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, cardExtension) {
			continue
		}
		entries = append(entries, Entry{
			Key:  strings.TrimSuffix(name, cardExtension),
			Path: filepath.Join(l.cardsDir, name),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Path returns the on-disk location for a card key, whether or not the card
// exists.
func (l *Library) Path(key string) string {
	return filepath.Join(l.cardsDir, key+cardExtension)
}

// Read loads and parses one card. The malformed flag mirrors card.Parse:
// true means the card was readable but its frontmatter was not.
func (l *Library) Read(key string) (*card.Document, bool, error) {
	raw, err := os.ReadFile(l.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, services.Wrap(services.ErrNotFound, "library", "read",
				fmt.Sprintf("card %s not found", key), err)
		}
		return nil, false, fmt.Errorf("read card %s: %w", key, err)
	}
	doc, malformed := card.Parse(string(raw))
	if malformed {
		l.logger.Warn("card frontmatter unreadable, treating as empty",
			logging.String(logging.FieldCardKey, key))
	}
	return doc, malformed, nil
}

// Write serializes and atomically persists a card, backing up the original
// first. Only the first write per key takes a backup; later writes in the
// same or any future run keep that pristine copy.
func (l *Library) Write(key string, doc *card.Document) error {
	if err := l.BackupOnce(key); err != nil {
		return err
	}
	rendered, err := doc.Serialize()
	if err != nil {
		return fmt.Errorf("serialize card %s: %w", key, err)
	}
	if err := fileutil.WriteFileAtomic(l.Path(key), []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write card %s: %w", key, err)
	}
	l.logger.Debug("card written", logging.String(logging.FieldCardKey, key))
	return nil
}

// BackupOnce copies the card's current content into the backup directory
// unless a backup already exists. A card that does not exist yet needs no
// backup.
func (l *Library) BackupOnce(key string) error {
	src := l.Path(key)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(l.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	dst := filepath.Join(l.backupDir, key+backupSuffix)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("backup card %s: %w", key, err)
	}
	l.logger.Debug("card backed up", logging.String(logging.FieldCardKey, key))
	return nil
}

// Remove deletes a card from the collection root. Used when a card is moved
// into quarantine.
func (l *Library) Remove(key string) error {
	if err := os.Remove(l.Path(key)); err != nil {
		return fmt.Errorf("remove card %s: %w", key, err)
	}
	return nil
}
