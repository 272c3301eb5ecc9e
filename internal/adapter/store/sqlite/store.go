// Package sqlite persists review history in a SQLite database so past runs
// can be inspected after the fact.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/patchlens/patchlens/internal/domain"
)

// Store records finished reports in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and ensures the schema
// exists. Use ":memory:" for an ephemeral database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection avoids write-lock contention and keeps ":memory:"
	// databases alive, which exist per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		provider TEXT NOT NULL,
		repository TEXT NOT NULL,
		change_number INTEGER NOT NULL DEFAULT 0,
		change_title TEXT,
		analyzer TEXT NOT NULL,
		model TEXT NOT NULL,
		total_files INTEGER NOT NULL,
		analyzed_files INTEGER NOT NULL,
		total_issues INTEGER NOT NULL,
		average_score REAL NOT NULL,
		summary TEXT
	);

	CREATE TABLE IF NOT EXISTS file_analyses (
		analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		score REAL NOT NULL,
		summary TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- issue_hash is the content hash of the issue, so the same issue
	-- reported in consecutive runs shares a hash without clashing as a key.
	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id INTEGER NOT NULL,
		issue_hash TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		severity TEXT NOT NULL,
		category TEXT,
		description TEXT NOT NULL,
		recommendation TEXT,
		FOREIGN KEY (analysis_id) REFERENCES file_analyses(analysis_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_file_analyses_run ON file_analyses(run_id);
	CREATE INDEX IF NOT EXISTS idx_issues_analysis ON issues(analysis_id);
	CREATE INDEX IF NOT EXISTS idx_issues_hash ON issues(issue_hash);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveReport stores a report and its analyses and issues in one transaction.
func (s *Store) SaveReport(ctx context.Context, report domain.Report) error {
	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	runID := NewRunID(generatedAt, report.Change.Repository, report.AnalyzerName)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, provider, repository, change_number, change_title, analyzer, model, total_files, analyzed_files, total_issues, average_score, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		generatedAt.Unix(),
		report.Change.Provider,
		report.Change.Repository,
		report.Change.Number,
		report.Change.Title,
		report.AnalyzerName,
		report.ModelName,
		report.TotalFiles,
		report.AnalyzedFiles,
		report.Stats.TotalIssues,
		report.Stats.AverageScore,
		report.Summary,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	issueStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues (analysis_id, issue_hash, file, line, severity, category, description, recommendation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}
	defer issueStmt.Close()

	for _, analysis := range report.Analyses {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO file_analyses (run_id, path, score, summary)
			VALUES (?, ?, ?, ?)`,
			runID, analysis.Path, analysis.Score, analysis.Summary,
		)
		if err != nil {
			return fmt.Errorf("insert analysis for %s: %w", analysis.Path, err)
		}
		analysisID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("analysis id for %s: %w", analysis.Path, err)
		}

		for _, issue := range analysis.Issues {
			if _, err := issueStmt.ExecContext(ctx,
				analysisID,
				issue.ID,
				issue.File,
				issue.Line,
				string(issue.Severity),
				issue.Category,
				issue.Description,
				issue.Recommendation,
			); err != nil {
				return fmt.Errorf("insert issue for %s: %w", analysis.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunRecord is one row of stored review history.
type RunRecord struct {
	RunID         string
	CreatedAt     time.Time
	Provider      string
	Repository    string
	ChangeNumber  int
	ChangeTitle   string
	Analyzer      string
	Model         string
	TotalFiles    int
	AnalyzedFiles int
	TotalIssues   int
	AverageScore  float64
	Summary       string
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, provider, repository, change_number, change_title, analyzer, model, total_files, analyzed_files, total_issues, average_score, summary
		FROM runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var createdAt int64
		if err := rows.Scan(
			&run.RunID,
			&createdAt,
			&run.Provider,
			&run.Repository,
			&run.ChangeNumber,
			&run.ChangeTitle,
			&run.Analyzer,
			&run.Model,
			&run.TotalFiles,
			&run.AnalyzedFiles,
			&run.TotalIssues,
			&run.AverageScore,
			&run.Summary,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRunIssues returns all issues recorded for a run, ordered by file and
// line.
func (s *Store) GetRunIssues(ctx context.Context, runID string) ([]domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.issue_hash, i.file, i.line, i.severity, i.category, i.description, i.recommendation
		FROM issues i
		JOIN file_analyses fa ON fa.analysis_id = i.analysis_id
		WHERE fa.run_id = ?
		ORDER BY i.file ASC, i.line ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get issues for run %s: %w", runID, err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var severity string
		if err := rows.Scan(
			&issue.ID,
			&issue.File,
			&issue.Line,
			&severity,
			&issue.Category,
			&issue.Description,
			&issue.Recommendation,
		); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.Severity = domain.Severity(severity)
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return issues, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID creates a unique, time-ordered run identifier such as
// "run-20260102T030405Z-a3f9c2".
func NewRunID(timestamp time.Time, repository, analyzer string) string {
	ts := timestamp.UTC().Format("20060102T150405Z")
	input := fmt.Sprintf("%s|%s|%d", repository, analyzer, timestamp.UnixNano())
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("run-%s-%s", ts, hex.EncodeToString(sum[:3]))
}
