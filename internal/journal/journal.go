// Package journal keeps a SQLite record of every workflow run: which
// category ran, whether it was sent, what it cost in tokens and, for
// failures, which stage failed and why.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/engine"
)

// ErrClosed is returned by operations on a closed Journal.
var ErrClosed = errors.New("journal: closed")

// Run statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Failure stages, derived from the run's error type.
const (
	StageSelection  = "selection"
	StageGeneration = "generation"
	StageRender     = "render"
	StageDelivery   = "delivery"
	StageAborted    = "aborted"
)

// Entry is one recorded run.
type Entry struct {
	ID           int64
	RunID        string
	Category     string
	Status       string
	Stage        string
	Subject      string
	Recipients   []string
	Attachments  int
	InputTokens  int
	OutputTokens int
	Error        string
	Duration     time.Duration
	CreatedAt    time.Time
}

// Journal is a run log backed by SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at path. The special path
// ":memory:" keeps the journal in memory.
func Open(path string) (*Journal, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("journal: create directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return j, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			stage TEXT,
			subject TEXT,
			recipients TEXT,
			attachments INTEGER NOT NULL DEFAULT 0,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_category ON runs(category)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of res. It satisfies batch.Recorder.
func (j *Journal) Record(ctx context.Context, res *engine.Result) error {
	if res == nil {
		return errors.New("journal: nil result")
	}
	e := FromResult(res)
	e.CreatedAt = j.now().UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, category, status, stage, subject, recipients, attachments,
			input_tokens, output_tokens, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Category, e.Status, e.Stage, e.Subject, strings.Join(e.Recipients, ","), e.Attachments,
		e.InputTokens, e.OutputTokens, e.Error, e.Duration.Milliseconds(), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return j.wrap("record run", err)
	}
	return nil
}

// FromResult converts a run result into an unsaved Entry.
func FromResult(res *engine.Result) Entry {
	e := Entry{
		RunID:        res.RunID,
		Category:     res.State.Category.String(),
		Subject:      res.State.Subject,
		Recipients:   res.State.Recipients,
		Attachments:  len(res.State.Attachments),
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
		Duration:     res.Duration,
		Status:       StatusSent,
	}
	if res.Err != nil || !res.Sent() {
		e.Status = StatusFailed
		e.Stage = Stage(res.Err)
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
	}
	return e
}

// Stage names the part of the workflow that produced err.
func Stage(err error) string {
	var (
		sel *phantommail.SelectionError
		gen *phantommail.GenerationError
		ren *phantommail.RenderError
		del *phantommail.DeliveryError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &sel):
		return StageSelection
	case errors.As(err, &gen):
		return StageGeneration
	case errors.As(err, &ren):
		return StageRender
	case errors.As(err, &del):
		return StageDelivery
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StageAborted
	}
	return ""
}

// Filter narrows Recent.
type Filter struct {
	Category string
	Status   string
	Limit    int
}

// Recent returns the newest entries first.
func (j *Journal) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	q := `SELECT id, run_id, category, status, stage, subject, recipients, attachments,
		input_tokens, output_tokens, error, duration_ms, created_at FROM runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, j.wrap("query runs", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                          Entry
			stage, subject, recipients sql.NullString
			errText                    sql.NullString
			durationMS                 int64
			created                    string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Category, &e.Status, &stage, &subject, &recipients,
			&e.Attachments, &e.InputTokens, &e.OutputTokens, &errText, &durationMS, &created); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		e.Stage = stage.String
		e.Subject = subject.String
		if recipients.String != "" {
			e.Recipients = strings.Split(recipients.String, ",")
		}
		e.Error = errText.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("journal: parse timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats is the per-category tally.
type Stats struct {
	Category     string
	Sent         int
	Failed       int
	InputTokens  int
	OutputTokens int
}

// Totals returns one Stats row per recorded category, sorted by name.
func (j *Journal) Totals(ctx context.Context) ([]Stats, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT category,
			SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(input_tokens), SUM(output_tokens)
		FROM runs GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, j.wrap("query totals", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.Category, &s.Sent, &s.Failed, &s.InputTokens, &s.OutputTokens); err != nil {
			return nil, fmt.Errorf("journal: scan totals: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *Journal) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("journal: %s: %w", op, ErrClosed)
	}
	return fmt.Errorf("journal: %s: %w", op, err)
}
