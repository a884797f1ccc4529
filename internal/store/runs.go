// Package store keeps a history of solver runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"dspike/internal/logging"
	"dspike/internal/model"
	"dspike/internal/solver"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one recorded solve.
type Run struct {
	ID           string
	Strategy     string
	Method       string
	Initial      model.Vector
	Solution     model.Vector
	Residuals    model.Vector
	ResidualNorm float64
	Converged    bool
	Status       string
	Message      string
	Iterations   int
	Evaluations  int
	Duration     time.Duration
	CreatedAt    time.Time
}

// NewRun captures a solver result. ID and CreatedAt are assigned by Record.
func NewRun(r solver.Result) Run {
	return Run{
		Strategy:     string(r.Strategy),
		Method:       r.Method,
		Initial:      r.Initial,
		Solution:     r.X,
		Residuals:    r.Residuals,
		ResidualNorm: r.ResidualNorm,
		Converged:    r.Converged,
		Status:       r.Status,
		Message:      r.Message,
		Iterations:   r.Iterations,
		Evaluations:  r.Evaluations,
		Duration:     r.Runtime,
	}
}

// RunStore persists runs. Safe for concurrent use.
type RunStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open creates or opens the run history at path.
func Open(path string) (*RunStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RunStore{db: db, dbPath: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.StoreDebug("run store opened", zap.String("path", path))
	return store, nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *RunStore) Path() string {
	return s.dbPath
}

func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		method TEXT NOT NULL,
		initial TEXT NOT NULL,
		solution TEXT NOT NULL,
		residuals TEXT NOT NULL,
		residual_norm REAL,
		converged INTEGER NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		evaluations INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs(strategy);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run under a fresh ID and returns the stored copy.
func (s *RunStore) Record(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = time.Unix(0, run.CreatedAt.UnixNano()).UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, strategy, method, initial, solution, residuals, residual_norm,
			converged, status, message, iterations, evaluations, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Method,
		formatVector(run.Initial), formatVector(run.Solution), formatVector(run.Residuals),
		nullable(run.ResidualNorm), run.Converged, run.Status, run.Message,
		run.Iterations, run.Evaluations, int64(run.Duration), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to record run: %w", err)
	}

	logging.StoreDebug("run recorded",
		zap.String("id", run.ID),
		zap.String("strategy", run.Strategy),
		zap.Bool("converged", run.Converged),
	)
	return run, nil
}

const selectRuns = `
	SELECT id, strategy, method, initial, solution, residuals, residual_norm,
		converged, status, message, iterations, evaluations, duration_ns, created_at
	FROM runs`

// List returns up to limit runs, newest first. limit <= 0 returns all runs.
func (s *RunStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectRuns + " ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with the given ID.
func (s *RunStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Count returns the number of recorded runs.
func (s *RunStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                          Run
		initial, solution, residuals string
		norm                         sql.NullFloat64
		durationNS, createdNS        int64
	)
	err := sc.Scan(&run.ID, &run.Strategy, &run.Method, &initial, &solution, &residuals, &norm,
		&run.Converged, &run.Status, &run.Message, &run.Iterations, &run.Evaluations,
		&durationNS, &createdNS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	for _, f := range []struct {
		dst *model.Vector
		src string
	}{{&run.Initial, initial}, {&run.Solution, solution}, {&run.Residuals, residuals}} {
		v, err := model.ParseVectorString(f.src)
		if err != nil {
			return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
		}
		*f.dst = v
	}

	run.ResidualNorm = math.NaN()
	if norm.Valid {
		run.ResidualNorm = norm.Float64
	}
	run.Duration = time.Duration(durationNS)
	run.CreatedAt = time.Unix(0, createdNS).UTC()
	return run, nil
}

// formatVector writes v with full precision. NaN and ±Inf survive the round
// trip through ParseVectorString.
func formatVector(v model.Vector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func nullable(x float64) sql.NullFloat64 {
	if math.IsNaN(x) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}
