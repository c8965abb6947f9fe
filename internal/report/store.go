// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citecheck/internal/run"
	"github.com/pdiddy/citecheck/pkg/types"
)

// DefaultHistoryLimit bounds History when the caller passes no limit.
const DefaultHistoryLimit = 20

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps a history of verification runs in SQLite.
type Store struct {
	db *sql.DB
}

// RunInputs names the manuscript and bibliography a run checked.
type RunInputs struct {
	TexPath string
	BibPath string
}

// RunRecord is one row of the run history.
type RunRecord struct {
	ID       string
	Started  time.Time
	Finished time.Time
	TexPath  string
	BibPath  string
	Total    int
	Issues   int
}

// OpenStore opens or creates the history database at path, creating the
// parent directory and schema as needed.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			finished TEXT NOT NULL,
			tex_path TEXT,
			bib_path TEXT,
			total INTEGER NOT NULL,
			issues INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			status TEXT NOT NULL,
			bib_title TEXT,
			bib_author TEXT,
			found_title TEXT,
			source TEXT,
			similarity REAL,
			found_authors TEXT,
			reason TEXT,
			risk TEXT,
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun records res and every outcome in one transaction.
func (s *Store) SaveRun(ctx context.Context, res *run.Result, in RunInputs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started, finished, tex_path, bib_path, total, issues)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.Started.UTC().Format(timeLayout),
		res.Finished.UTC().Format(timeLayout),
		in.TexPath, in.BibPath, len(res.Outcomes), len(res.Issues),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", res.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, key, status, bib_title, bib_author, found_title, source, similarity, found_authors, reason, risk)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range res.Outcomes {
		row := outcomeRow(o)
		_, err := stmt.ExecContext(ctx,
			res.RunID, o.Key, string(o.Status),
			row.bibTitle, row.bibAuthor, row.foundTitle, row.source, row.similarity,
			row.foundAuthors, row.reason, string(row.risk),
		)
		if err != nil {
			return fmt.Errorf("inserting outcome %s: %w", o.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", res.RunID, err)
	}
	return nil
}

type storedOutcome struct {
	bibTitle     string
	bibAuthor    string
	foundTitle   string
	source       string
	similarity   sql.NullFloat64
	foundAuthors string
	reason       string
	risk         types.Risk
}

// outcomeRow flattens an outcome for storage. Issue rows keep exactly the
// issue's fields; verified rows keep the accepted candidate.
func outcomeRow(o types.Outcome) storedOutcome {
	var row storedOutcome
	if o.Issue == nil {
		if o.Bib != nil {
			row.bibTitle = o.Bib.Title
		}
		if o.Result != nil {
			row.foundTitle = o.Result.Title
			row.source = o.Result.Source
		}
		return row
	}

	is := o.Issue
	row.bibTitle = is.BibTitle
	row.bibAuthor = is.BibAuthor
	row.foundTitle = is.FoundTitle
	row.source = is.Source
	row.reason = is.Reason
	row.risk = is.Risk
	if is.SimilarityScore != nil {
		row.similarity = sql.NullFloat64{Float64: *is.SimilarityScore, Valid: true}
	}
	if len(is.FoundAuthors) > 0 {
		authors, _ := json.Marshal(is.FoundAuthors)
		row.foundAuthors = string(authors)
	}
	return row
}

// History returns the most recent runs, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, finished, tex_path, bib_path, total, issues
		 FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished string
			tex, bib          sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &tex, &bib, &r.Total, &r.Issues); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, _ = time.Parse(timeLayout, started)
		r.Finished, _ = time.Parse(timeLayout, finished)
		r.TexPath = tex.String
		r.BibPath = bib.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// RunIssues returns the issues recorded for one run, in key order.
func (s *Store) RunIssues(ctx context.Context, runID string) ([]types.Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, status, bib_title, bib_author, found_title, source, similarity, found_authors, reason, risk
		 FROM outcomes WHERE run_id = ? AND status != ? ORDER BY key`,
		runID, string(types.StatusVerified))
	if err != nil {
		return nil, fmt.Errorf("querying outcomes for run %s: %w", runID, err)
	}
	defer rows.Close()

	var issues []types.Issue
	for rows.Next() {
		var (
			is                           types.Issue
			status, risk                 string
			bibTitle, foundTitle, source sql.NullString
			bibAuthor, authors, reason   sql.NullString
			similarity                   sql.NullFloat64
		)
		if err := rows.Scan(&is.Key, &status, &bibTitle, &bibAuthor, &foundTitle, &source, &similarity, &authors, &reason, &risk); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		is.Status = types.Status(status)
		is.Risk = types.Risk(risk)
		is.BibTitle = bibTitle.String
		is.BibAuthor = bibAuthor.String
		is.FoundTitle = foundTitle.String
		is.Source = source.String
		is.Reason = reason.String
		if similarity.Valid {
			score := similarity.Float64
			is.SimilarityScore = &score
		}
		if authors.String != "" {
			_ = json.Unmarshal([]byte(authors.String), &is.FoundAuthors)
		}
		issues = append(issues, is)
	}
	return issues, rows.Err()
}
