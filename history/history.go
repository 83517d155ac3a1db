// Package history keeps a SQLite ledger of scrape runs and the documents
// they saved.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrRunNotFound = errors.New("run not found")

// Store manages the ledger.
type Store struct {
	db *sql.DB
}

// Run is one scrape of one site.
type Run struct {
	RunID      uuid.UUID  `json:"run_id"`
	Site       string     `json:"site"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	OK         bool       `json:"ok"`
	New        int        `json:"new"`
	Skipped    int        `json:"skipped"`
	Failed     int        `json:"failed"`
}

// Paper is one saved document.
type Paper struct {
	PaperID     uuid.UUID `json:"paper_id"`
	RunID       uuid.UUID `json:"run_id"`
	Site        string    `json:"site"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	PublishTime string    `json:"publish_time"`
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open opens or creates the ledger at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Workers record concurrently; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		ok INTEGER NOT NULL DEFAULT 0,
		new INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS papers (
		paper_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		site TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		publish_time TEXT NOT NULL,
		url TEXT NOT NULL,
		file_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_papers_created ON papers(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run for site.
func (s *Store) StartRun(site string) (*Run, error) {
	run := &Run{
		RunID:     uuid.New(),
		Site:      site,
		StartedAt: time.Now(),
	}

	_, err := s.db.Exec(
		"INSERT INTO runs (run_id, site, started_at) VALUES (?, ?, ?)",
		run.RunID.String(), run.Site, formatTime(&run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome of run.
func (s *Store) FinishRun(run *Run) error {
	now := time.Now()
	run.FinishedAt = &now

	result, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, ok = ?, new = ?, skipped = ?, failed = ?
		WHERE run_id = ?`,
		formatTime(run.FinishedAt), run.OK, run.New, run.Skipped, run.Failed,
		run.RunID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RecordPaper stores a saved document of run.
func (s *Store) RecordPaper(runID uuid.UUID, p Paper) (*Paper, error) {
	p.PaperID = uuid.New()
	p.RunID = runID
	p.CreatedAt = time.Now()

	_, err := s.db.Exec(`
		INSERT INTO papers (
			paper_id, run_id, site, category, title, publish_time,
			url, file_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PaperID.String(), p.RunID.String(), p.Site, p.Category, p.Title,
		p.PublishTime, p.URL, p.FileName, formatTime(&p.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert paper: %w", err)
	}
	return &p, nil
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]Run, error) {
	query := `
		SELECT run_id, site, started_at, finished_at, ok, new, skipped, failed
		FROM runs
		ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryRuns(query)
}

// LastRuns returns the latest run of every site.
func (s *Store) LastRuns() ([]Run, error) {
	return s.queryRuns(`
		SELECT r.run_id, r.site, r.started_at, r.finished_at, r.ok, r.new, r.skipped, r.failed
		FROM runs r
		WHERE r.started_at = (SELECT MAX(started_at) FROM runs WHERE site = r.site)
		ORDER BY r.site`)
}

// RecentPapers lists the most recently saved documents, newest first.
func (s *Store) RecentPapers(limit int) ([]Paper, error) {
	query := `
		SELECT paper_id, run_id, site, category, title, publish_time,
		       url, file_name, created_at
		FROM papers
		ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query papers: %w", err)
	}
	defer rows.Close()

	var papers []Paper
	for rows.Next() {
		var p Paper
		var paperID, runID, createdAt string
		err := rows.Scan(
			&paperID, &runID, &p.Site, &p.Category, &p.Title,
			&p.PublishTime, &p.URL, &p.FileName, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}

		if p.PaperID, err = uuid.Parse(paperID); err != nil {
			return nil, fmt.Errorf("failed to parse paper ID: %w", err)
		}
		if p.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("failed to parse run ID: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (s *Store) queryRuns(query string) ([]Run, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var runID, startedAt string
		var finishedAt sql.NullString
		err := rows.Scan(&runID, &r.Site, &startedAt, &finishedAt, &r.OK, &r.New, &r.Skipped, &r.Failed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if r.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("failed to parse run ID: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		if finishedAt.Valid {
			t := parseTime(finishedAt.String)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
