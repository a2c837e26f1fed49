package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const itemColumns = `id, run_id, card_key, artist, status, confidence,
	issues_json, connections, error_message, created_at, updated_at`

// StartRun records a new run.
func (s *Store) StartRun(ctx context.Context, runID string, dryRun bool, startedAt time.Time) (*Run, error) {
	if runID == "" {
		return nil, errors.New("run id required")
	}
	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO runs (id, started_at, dry_run) VALUES (?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339Nano), boolToInt(dryRun),
	); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &Run{ID: runID, StartedAt: startedAt.UTC(), DryRun: dryRun}, nil
}

// FinishRun closes out a run.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano), runID,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run, or nil when the ledger is
// empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, started_at, finished_at, dry_run FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// NewItem inserts a pending ledger row for a card within a run.
func (s *Store) NewItem(ctx context.Context, runID, cardKey, artist string) (*Item, error) {
	if runID == "" || cardKey == "" {
		return nil, errors.New("run id and card key required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	ctx = ensureContext(ctx)
	var id int64
	if err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO ledger_items (run_id, card_key, artist, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, cardKey, artist, StatusPending, timestamp, timestamp)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	}); err != nil {
		return nil, fmt.Errorf("insert ledger item: %w", err)
	}
	return &Item{
		ID:        id,
		RunID:     runID,
		CardKey:   cardKey,
		Artist:    artist,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update persists changes to an existing ledger item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if !item.Status.Valid() {
		return fmt.Errorf("invalid status %q", item.Status)
	}
	item.UpdatedAt = time.Now().UTC()
	issues, err := encodeIssues(item.Issues)
	if err != nil {
		return err
	}
	if err := s.execWithoutResultRetry(ctx,
		`UPDATE ledger_items
		 SET artist = ?, status = ?, confidence = ?, issues_json = ?,
		     connections = ?, error_message = ?, updated_at = ?
		 WHERE id = ?`,
		item.Artist,
		item.Status,
		item.Confidence,
		issues,
		item.Connections,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update ledger item: %w", err)
	}
	return nil
}

// GetByID returns one ledger item, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM ledger_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger item: %w", err)
	}
	return item, nil
}

// LatestForCard returns a card's most recent ledger row across all runs, or
// nil when the card has never been processed.
func (s *Store) LatestForCard(ctx context.Context, cardKey string) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM ledger_items WHERE card_key = ? ORDER BY id DESC LIMIT 1`, cardKey)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest for card: %w", err)
	}
	return item, nil
}

// ItemsByRun returns all items for a run in processing order.
func (s *Store) ItemsByRun(ctx context.Context, runID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM ledger_items WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ItemsByStatus returns all items in a status across runs, newest first.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM ledger_items WHERE status = ? ORDER BY id DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// RunStats aggregates outcomes for one run.
func (s *Store) RunStats(ctx context.Context, runID string) (Stats, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1), COALESCE(SUM(connections), 0),
		        COALESCE(SUM(CASE WHEN confidence > 0 THEN 1 ELSE 0 END), 0)
		 FROM ledger_items WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return Stats{}, fmt.Errorf("query run stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status      Status
			count       int
			connections int
			flagged     int
		)
		if err := rows.Scan(&status, &count, &connections, &flagged); err != nil {
			return Stats{}, fmt.Errorf("scan run stats: %w", err)
		}
		stats.Processed += count
		stats.ConnectionsFound += connections
		switch status {
		case StatusEnhanced:
			stats.Enhanced = count
		case StatusRecovered:
			stats.Recovered = count
			stats.ProblemsDetected += count
		case StatusQuarantined:
			stats.Quarantined = count
			stats.ProblemsDetected += count
		case StatusSkippedEnhanced:
			stats.SkippedEnhanced = count
		case StatusSkippedNoAnchor:
			stats.SkippedNoAnchor = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate run stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		item       Item
		issuesJSON sql.NullString
		errMsg     sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.RunID,
		&item.CardKey,
		&item.Artist,
		&item.Status,
		&item.Confidence,
		&issuesJSON,
		&item.Connections,
		&errMsg,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if issuesJSON.Valid && issuesJSON.String != "" {
		if err := json.Unmarshal([]byte(issuesJSON.String), &item.Issues); err != nil {
			return nil, fmt.Errorf("decode issues: %w", err)
		}
	}
	if errMsg.Valid {
		item.ErrorMessage = errMsg.String
	}
	item.CreatedAt = parseTimestamp(createdAt)
	item.UpdatedAt = parseTimestamp(updatedAt)
	return &item, nil
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		dryRun     int
	)
	if err := scanner.Scan(&run.ID, &startedAt, &finishedAt, &dryRun); err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	run.DryRun = dryRun != 0
	return &run, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger items: %w", err)
	}
	return items, nil
}

func encodeIssues(issues []string) (any, error) {
	if len(issues) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("encode issues: %w", err)
	}
	return string(encoded), nil
}

func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
