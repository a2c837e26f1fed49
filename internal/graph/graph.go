// Package graph maintains the artist relationship graph persisted alongside
// the card collection as a JSON database. Mutations accumulate in memory
// during a run and hit disk once on Flush.
package graph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"liner/internal/fileutil"
	"liner/internal/logging"
	"liner/internal/research"
)

// SourceResearch marks entries produced by the web-research flow.
const SourceResearch = "perplexity_research"

// Entry is one artist's outgoing relationships. The flat name lists are the
// queryable index; Detailed keeps the full relationship records.
type Entry struct {
	Mentors       []string             `json:"mentors,omitempty"`
	Collaborators []string             `json:"collaborators,omitempty"`
	Influenced    []string             `json:"influenced,omitempty"`
	Detailed      research.Connections `json:"detailed,omitempty"`
	Updated       string               `json:"updated"`
	Source        string               `json:"source"`
}

// Graph is the in-memory relationship database. Safe for concurrent use.
type Graph struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

// Load reads the graph database at path. A missing file yields an empty
// graph; a corrupt one is an error rather than a silent wipe.
func Load(path string, logger *slog.Logger) (*Graph, error) {
	g := &Graph{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "graph"),
		entries: make(map[string]Entry),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &g.entries); err != nil {
		return nil, fmt.Errorf("parse graph %s: %w", path, err)
	}
	g.logger.Debug("graph loaded", logging.Int("artists", len(g.entries)))
	return g, nil
}

// Set records an artist's relationships, replacing any previous entry.
func (g *Graph) Set(artist string, conns research.Connections, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[artist] = Entry{
		Mentors:       research.Names(conns.Mentors),
		Collaborators: research.Names(conns.Collaborators),
		Influenced:    research.Names(conns.Influenced),
		Detailed:      conns,
		Updated:       now.Format(time.RFC3339),
		Source:        SourceResearch,
	}
	g.dirty = true
}

// Get returns an artist's entry.
func (g *Graph) Get(artist string) (Entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[artist]
	return entry, ok
}

// Remove deletes an artist's entry, if present.
func (g *Graph) Remove(artist string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.entries[artist]; ok {
		delete(g.entries, artist)
		g.dirty = true
	}
}

// Artists returns all artists with entries, sorted.
func (g *Graph) Artists() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.entries))
	for name := range g.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Neighbors returns the union of an artist's relationship targets, sorted
// and deduplicated.
func (g *Graph) Neighbors(artist string) []string {
	entry, ok := g.Get(artist)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, group := range [][]string{entry.Mentors, entry.Collaborators, entry.Influenced} {
		for _, name := range group {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of artists in the graph.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// TotalEdges counts relationships across all entries.
func (g *Graph) TotalEdges() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, entry := range g.entries {
		total += len(entry.Mentors) + len(entry.Collaborators) + len(entry.Influenced)
	}
	return total
}

// Flush writes the graph to disk if anything changed since Load or the last
// Flush. The write is atomic so a crash cannot corrupt the database.
func (g *Graph) Flush() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.dirty {
		return nil
	}
	encoded, err := json.MarshalIndent(g.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := fileutil.WriteFileAtomic(g.path, encoded, 0o644); err != nil {
		return fmt.Errorf("write graph %s: %w", g.path, err)
	}
	g.dirty = false
	g.logger.Info("graph saved", logging.Int("artists", len(g.entries)))
	return nil
}
