package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscoutbot/jobscout/internal/entity"
)

// FetchLogRepository records one append-only row per connector invocation.
type FetchLogRepository interface {
	RecordSuccess(ctx context.Context, companyID int64, sourceURL string, itemCount int) error
	RecordError(ctx context.Context, companyID int64, sourceURL string, errText string) error
	ListRecent(ctx context.Context, companyID int64, limit int) ([]entity.FetchLog, error)
}

// PGXFetchLogRepository implements FetchLogRepository using pgx.
type PGXFetchLogRepository struct {
	pool pgxPool
}

// NewPGXFetchLogRepository wires a pgx backed repository.
func NewPGXFetchLogRepository(pool *pgxpool.Pool) *PGXFetchLogRepository {
	return &PGXFetchLogRepository{pool: pool}
}

// RecordSuccess appends an audit row with the extracted item count.
func (r *PGXFetchLogRepository) RecordSuccess(ctx context.Context, companyID int64, sourceURL string, itemCount int) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO fetch_log (company_id, source_url, item_count) VALUES ($1, $2, $3)
    `, companyID, sourceURL, itemCount)
	if err != nil {
		return fmt.Errorf("record fetch success: %w", err)
	}
	return nil
}

// RecordError appends an audit row carrying the failure text.
func (r *PGXFetchLogRepository) RecordError(ctx context.Context, companyID int64, sourceURL string, errText string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO fetch_log (company_id, source_url, error_text) VALUES ($1, $2, $3)
    `, companyID, sourceURL, errText)
	if err != nil {
		return fmt.Errorf("record fetch error: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit rows first, optionally narrowed
// to one company. companyID of 0 means all companies.
func (r *PGXFetchLogRepository) ListRecent(ctx context.Context, companyID int64, limit int) ([]entity.FetchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, company_id, source_url, item_count, error_text, created_at
        FROM fetch_log
    `
	args := []any{}
	if companyID > 0 {
		query += " WHERE company_id = $1"
		args = append(args, companyID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fetch log: %w", err)
	}
	defer rows.Close()

	var logs []entity.FetchLog
	for rows.Next() {
		var (
			log       entity.FetchLog
			itemCount sql.NullInt64
			errText   sql.NullString
		)
		if err := rows.Scan(&log.ID, &log.CompanyID, &log.SourceURL, &itemCount, &errText, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fetch log: %w", err)
		}
		if itemCount.Valid {
			v := int(itemCount.Int64)
			log.ItemCount = &v
		}
		log.ErrorText = nullStringToPtr(errText)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetch log: %w", err)
	}
	return logs, nil
}
