// Package archive keeps a history of benchmark runs in a local SQLite file.
// jsonbench appends to it and jsonbench-history reads it back.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.jetify.com/typeid"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

// RunPrefix prefixes archived run ids
const RunPrefix = "run"

// Run describes one archived benchmark run
type Run struct {
	ID        string
	Backend   string
	Config    jsonbench.Config
	Payloads  int
	StartedAt time.Time
}

// Row is one archived summary line
type Row struct {
	RunID          string
	Phase          string
	Representation string
	Samples        int
	Failures       int
	Skipped        int
	MeanMs         sql.NullFloat64
}

// Summary maps the row back to the summary it was recorded from. A NULL mean
// becomes ErrNoSamples, as it was when the row was written.
func (r Row) Summary() (jsonbench.Summary, error) {
	phase, err := jsonbench.ParsePhase(r.Phase)
	if err != nil {
		return jsonbench.Summary{}, fmt.Errorf("result of %s: %w", r.RunID, err)
	}
	rep, err := jsonbench.ParseRepresentation(r.Representation)
	if err != nil {
		return jsonbench.Summary{}, fmt.Errorf("result of %s: %w", r.RunID, err)
	}

	s := jsonbench.Summary{
		Representation: rep,
		Phase:          phase,
		Count:          r.Samples,
		Failures:       r.Failures,
		Skipped:        r.Skipped,
		MeanMs:         math.NaN(),
		Err:            jsonbench.ErrNoSamples,
	}
	if r.MeanMs.Valid {
		s.MeanMs = r.MeanMs.Float64
		s.Err = nil
	}
	return s, nil
}

// Summaries returns the archived summaries of one run in recorded order
func (a *Archive) Summaries(ctx context.Context, runID string) ([]jsonbench.Summary, error) {
	rows, err := a.Results(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]jsonbench.Summary, 0, len(rows))
	for _, row := range rows {
		s, err := row.Summary()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Archive is a SQLite-backed run history
type Archive struct {
	db *sql.DB
}

// Open opens or creates the archive at path
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			backend TEXT NOT NULL,
			config TEXT NOT NULL,
			payloads INTEGER NOT NULL,
			started_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL REFERENCES runs(id),
			phase TEXT NOT NULL,
			representation TEXT NOT NULL,
			samples INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			mean_ms REAL,
			PRIMARY KEY (run_id, phase, representation)
		)`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// NewRunID generates a unique run identifier
func NewRunID() (string, error) {
	tid, err := typeid.WithPrefix(RunPrefix)
	if err != nil {
		return "", err
	}
	return tid.String(), nil
}

// Record stores run and its summaries in a single transaction
func (a *Archive) Record(ctx context.Context, run Run, summaries []jsonbench.Summary) error {
	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, backend, config, payloads, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Backend, string(configJSON), run.Payloads, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store run %s: %w", run.ID, err)
	}

	for _, s := range summaries {
		var mean sql.NullFloat64
		if s.Err == nil {
			mean = sql.NullFloat64{Float64: s.MeanMs, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO results (run_id, phase, representation, samples, failures, skipped, mean_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, s.Phase.String(), s.Representation.String(), s.Count, s.Failures, s.Skipped, mean)
		if err != nil {
			return fmt.Errorf("failed to store %s %s result: %w", s.Phase, s.Representation, err)
		}
	}

	return tx.Commit()
}

// Runs lists archived runs, most recent first
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, backend, config, payloads, started_at FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var configJSON string
		if err := rows.Scan(&run.ID, &run.Backend, &configJSON, &run.Payloads, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
			return nil, fmt.Errorf("failed to deserialize config of %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the archived summary lines of one run
func (a *Archive) Results(ctx context.Context, runID string) ([]Row, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id, phase, representation, samples, failures, skipped, mean_ms FROM results WHERE run_id = ? ORDER BY rowid`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.RunID, &r.Phase, &r.Representation, &r.Samples, &r.Failures, &r.Skipped, &r.MeanMs); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
