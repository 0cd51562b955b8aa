package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscoutbot/jobscout/internal/entity"
)

// ErrRunNotFound is returned when no ingest run matches the id.
var ErrRunNotFound = errors.New("ingest run not found")

// RunsRepository persists orchestrator run records so progress survives
// process restarts.
type RunsRepository interface {
	Create(ctx context.Context, sourcesTotal int) (*entity.IngestRun, error)
	Finish(ctx context.Context, id uuid.UUID, succeeded, failed, upserted int) error
	Get(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error)
	ListRecent(ctx context.Context, limit int) ([]entity.IngestRun, error)
}

// PGXRunsRepository implements RunsRepository using pgx.
type PGXRunsRepository struct {
	pool pgxPool
}

// NewPGXRunsRepository wires a pgx backed repository.
func NewPGXRunsRepository(pool *pgxpool.Pool) *PGXRunsRepository {
	return &PGXRunsRepository{pool: pool}
}

// Create opens a run record in the running state.
func (r *PGXRunsRepository) Create(ctx context.Context, sourcesTotal int) (*entity.IngestRun, error) {
	run := entity.IngestRun{
		ID:           uuid.New(),
		Status:       entity.RunStatusRunning,
		SourcesTotal: sourcesTotal,
	}

	err := r.pool.QueryRow(ctx, `
        INSERT INTO ingest_runs (id, status, sources_total)
        VALUES ($1, $2, $3)
        RETURNING started_at
    `, run.ID, run.Status, run.SourcesTotal).Scan(&run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create ingest run: %w", err)
	}
	return &run, nil
}

// Finish closes a run record with its final counters.
func (r *PGXRunsRepository) Finish(ctx context.Context, id uuid.UUID, succeeded, failed, upserted int) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE ingest_runs
        SET status = $2, sources_succeeded = $3, sources_failed = $4,
            postings_upserted = $5, finished_at = NOW()
        WHERE id = $1
    `, id, entity.RunStatusCompleted, succeeded, failed, upserted)
	if err != nil {
		return fmt.Errorf("finish ingest run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// Get fetches one run by id.
func (r *PGXRunsRepository) Get(ctx context.Context, id uuid.UUID) (*entity.IngestRun, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, status, sources_total, sources_succeeded, sources_failed,
               postings_upserted, started_at, finished_at
        FROM ingest_runs WHERE id = $1
    `, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("query ingest run: %w", err)
	}
	return run, nil
}

// ListRecent returns the newest runs first.
func (r *PGXRunsRepository) ListRecent(ctx context.Context, limit int) ([]entity.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, status, sources_total, sources_succeeded, sources_failed,
               postings_upserted, started_at, finished_at
        FROM ingest_runs
        ORDER BY started_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("list ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []entity.IngestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingest run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingest runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*entity.IngestRun, error) {
	var (
		run        entity.IngestRun
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.SourcesTotal,
		&run.SourcesSucceeded,
		&run.SourcesFailed,
		&run.PostingsUpserted,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		ts := finishedAt.Time
		run.FinishedAt = &ts
	}
	return &run, nil
}
