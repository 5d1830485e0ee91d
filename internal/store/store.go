// Package store persists analysis runs in SQLite so highlights can be
// reviewed, toggled and exported after the analysis process exits.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kikiluvv/hoopreel/internal/clips"
	"github.com/kikiluvv/hoopreel/internal/pipeline"
	"github.com/kikiluvv/hoopreel/pkg/util"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when no run matches an id
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an id prefix matches several runs
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Store is a SQLite database of analysis runs
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps the foreign_keys pragma in effect
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db}, nil
}

// RunSummary is one row of ListRuns
type RunSummary struct {
	ID         string
	Name       string
	Duration   time.Duration
	Highlights int
	Enabled    int
	CreatedAt  time.Time
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// blob stores empty byte slices as NULL
func blob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// SaveProject inserts or replaces a run and all of its highlights
func (s *Store) SaveProject(ctx context.Context, p *pipeline.Project) error {
	regions, err := marshal(p.Regions)
	if err != nil {
		return err
	}
	chart, err := marshal(p.Chart)
	if err != nil {
		return err
	}
	perf, err := marshal(p.Perf)
	if err != nil {
		return err
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, name, input_path, duration_ms, width, height, regions, chart, perf, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.InputPath, p.Duration.Milliseconds(), p.Width, p.Height,
		regions, chart, perf, p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM highlights WHERE run_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear highlights: %w", err)
	}

	for i, h := range p.Highlights {
		reasons, err := marshal(h.Reasons)
		if err != nil {
			return err
		}
		debug, err := marshal(h.Debug)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO highlights (run_id, number, timestamp, confidence, enabled, reasons, debug, thumbnail)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i+1, h.Timestamp, h.Confidence, h.Enabled, reasons, debug, blob(h.Thumbnail),
		)
		if err != nil {
			return fmt.Errorf("failed to save highlight %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// ResolveID expands a unique id prefix to the full run id
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
	}
}

// LoadProject reads a run and its highlights in detection order
func (s *Store) LoadProject(ctx context.Context, id string) (*pipeline.Project, error) {
	p := &pipeline.Project{ID: id}
	var durationMs, createdAt int64
	var regions, chart, perf string

	err := s.QueryRowContext(ctx, `
		SELECT name, input_path, duration_ms, width, height, regions, chart, perf, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(&p.Name, &p.InputPath, &durationMs, &p.Width, &p.Height, &regions, &chart, &perf, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	p.Duration = time.Duration(durationMs) * time.Millisecond
	p.CreatedAt = time.Unix(0, createdAt)
	if err := json.Unmarshal([]byte(regions), &p.Regions); err != nil {
		return nil, fmt.Errorf("failed to decode regions: %w", err)
	}
	if err := json.Unmarshal([]byte(chart), &p.Chart); err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}
	if err := json.Unmarshal([]byte(perf), &p.Perf); err != nil {
		return nil, fmt.Errorf("failed to decode perf: %w", err)
	}

	rows, err := s.QueryContext(ctx, `
		SELECT timestamp, confidence, enabled, reasons, debug, thumbnail
		FROM highlights WHERE run_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load highlights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		h := &clips.Highlight{}
		var reasons, debug string
		if err := rows.Scan(&h.Timestamp, &h.Confidence, &h.Enabled, &reasons, &debug, &h.Thumbnail); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(reasons), &h.Reasons); err != nil {
			return nil, fmt.Errorf("failed to decode reasons: %w", err)
		}
		if err := json.Unmarshal([]byte(debug), &h.Debug); err != nil {
			return nil, fmt.Errorf("failed to decode debug metrics: %w", err)
		}
		p.Highlights = append(p.Highlights, h)
	}
	return p, rows.Err()
}

// ListRuns returns every run, newest first
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT r.id, r.name, r.duration_ms, r.created_at,
		       COUNT(h.number), COALESCE(SUM(h.enabled), 0)
		FROM runs r LEFT JOIN highlights h ON h.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationMs, createdAt int64
		if err := rows.Scan(&r.ID, &r.Name, &durationMs, &createdAt, &r.Highlights, &r.Enabled); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.CreatedAt = time.Unix(0, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SetEnabled includes or excludes the nth (1-based) highlight of a run
func (s *Store) SetEnabled(ctx context.Context, id string, n int, enabled bool) error {
	res, err := s.ExecContext(ctx, `UPDATE highlights SET enabled = ? WHERE run_id = ? AND number = ?`, enabled, id, n)
	if err != nil {
		return fmt.Errorf("failed to update highlight: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: highlight %d of %s", ErrNotFound, n, id)
	}
	return nil
}

// DeleteRun removes a run and its highlights
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
