package pipeline

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStore records run progress for operators. Store failures never fail a
// run; the coordinator logs and moves on.
type RunStore interface {
	RunStarted(ctx context.Context, run *Run) error
	StepChanged(ctx context.Context, run *Run) error
	RunFinished(ctx context.Context, run *Run) error
}

// ---------------------------------------------------------------------------
// Postgres-backed store
// ---------------------------------------------------------------------------

const runsSchema = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	document    TEXT NOT NULL,
	bucket      TEXT NOT NULL,
	step        TEXT NOT NULL,
	outcome     TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (bucket, document)
)`

const upsertRun = `
INSERT INTO ingest_runs (document, bucket, step, outcome, error, started_at, finished_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (bucket, document) DO UPDATE SET
	step        = EXCLUDED.step,
	outcome     = EXCLUDED.outcome,
	error       = EXCLUDED.error,
	started_at  = EXCLUDED.started_at,
	finished_at = EXCLUDED.finished_at,
	updated_at  = NOW()`

type PostgresRunStore struct {
	db *pgxpool.Pool
}

func NewPostgresRunStore(ctx context.Context, db *pgxpool.Pool) (*PostgresRunStore, error) {
	if _, err := db.Exec(ctx, runsSchema); err != nil {
		return nil, err
	}
	return &PostgresRunStore{db: db}, nil
}

func (s *PostgresRunStore) record(ctx context.Context, run *Run) error {
	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt
	}
	_, err := s.db.Exec(ctx, upsertRun,
		run.Document, run.Bucket, string(run.Step), string(run.Outcome), run.Reason(),
		run.StartedAt, finished)
	return err
}

func (s *PostgresRunStore) RunStarted(ctx context.Context, run *Run) error {
	return s.record(ctx, run)
}

func (s *PostgresRunStore) StepChanged(ctx context.Context, run *Run) error {
	return s.record(ctx, run)
}

func (s *PostgresRunStore) RunFinished(ctx context.Context, run *Run) error {
	return s.record(ctx, run)
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

// MemoryRunStore keeps the latest state per (bucket, document). Used by
// tests and anywhere Postgres is not at hand.
type MemoryRunStore struct {
	mu   sync.Mutex
	runs map[string]Run
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]Run)}
}

func runKey(bucket, document string) string {
	return bucket + "/" + document
}

func (s *MemoryRunStore) record(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runKey(run.Bucket, run.Document)] = *run
	return nil
}

func (s *MemoryRunStore) RunStarted(ctx context.Context, run *Run) error {
	return s.record(run)
}

func (s *MemoryRunStore) StepChanged(ctx context.Context, run *Run) error {
	return s.record(run)
}

func (s *MemoryRunStore) RunFinished(ctx context.Context, run *Run) error {
	return s.record(run)
}

func (s *MemoryRunStore) Get(bucket, document string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runKey(bucket, document)]
	return run, ok
}
