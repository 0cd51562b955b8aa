package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscoutbot/jobscout/internal/dto"
	"github.com/jobscoutbot/jobscout/internal/entity"
)

// ErrPostingNotFound is returned when no posting matches the lookup.
var ErrPostingNotFound = errors.New("posting not found")

// PostingsRepository describes persistence operations for job postings.
type PostingsRepository interface {
	UpsertBatch(ctx context.Context, companyID int64, postings []entity.JobPosting) (UpsertResult, error)
	Get(ctx context.Context, id int64) (*entity.JobPosting, error)
	List(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error)
	Count(ctx context.Context, filter dto.JobsFilter) (int, error)
	ListForScoring(ctx context.Context, limit, offset int) ([]entity.JobPosting, error)
	UpdateScore(ctx context.Context, id int64, score int, ctcPass bool) error
	Stats(ctx context.Context) (*entity.Stats, error)
}

// UpsertResult summarises the number of rows inserted or updated.
type UpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXPostingsRepository implements PostingsRepository using pgx.
type PGXPostingsRepository struct {
	pool pgxPool
}

// NewPGXPostingsRepository wires a pgx backed repository.
func NewPGXPostingsRepository(pool *pgxpool.Pool) *PGXPostingsRepository {
	return &PGXPostingsRepository{pool: pool}
}

const upsertPostingSQL = `
        INSERT INTO postings (
            company_id, title, apply_url, location_city, location_country,
            description, req_id, posted_at, canonical_key, remote,
            min_exp, max_exp, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
        ON CONFLICT (company_id, canonical_key) DO UPDATE SET
            title = EXCLUDED.title,
            apply_url = EXCLUDED.apply_url,
            location_city = EXCLUDED.location_city,
            location_country = EXCLUDED.location_country,
            description = EXCLUDED.description,
            posted_at = EXCLUDED.posted_at,
            remote = EXCLUDED.remote,
            min_exp = EXCLUDED.min_exp,
            max_exp = EXCLUDED.max_exp,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// UpsertBatch persists a batch of canonical postings with idempotent
// semantics. Rows sharing an identity within the batch collapse to the
// first occurrence. Existing score columns are never overwritten here.
func (r *PGXPostingsRepository) UpsertBatch(ctx context.Context, companyID int64, postings []entity.JobPosting) (UpsertResult, error) {
	var result UpsertResult
	if len(postings) == 0 {
		return result, nil
	}

	seen := map[[4]string]struct{}{}
	deduped := postings[:0:0]
	for _, p := range postings {
		key := [4]string{
			normLower(p.ReqID),
			normLower(p.ApplyURL),
			strings.ToLower(strings.TrimSpace(p.Title)),
			normLower(p.LocationCity),
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, p)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start posting upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range deduped {
		rows, err := tx.Query(ctx, upsertPostingSQL,
			companyID,
			p.Title,
			p.ApplyURL,
			p.LocationCity,
			p.LocationCountry,
			p.Description,
			p.ReqID,
			p.PostedAt,
			p.CanonicalKey,
			p.Remote,
			p.MinExp,
			p.MaxExp,
		)
		if err != nil {
			return result, fmt.Errorf("upsert posting %q: %w", p.Title, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan posting upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("upsert posting %q: %w", p.Title, err)
			}
			return result, fmt.Errorf("upsert posting %q: no result returned", p.Title)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit posting upsert tx: %w", err)
	}
	return result, nil
}

var validPostingSorts = map[string]string{
	"first_seen_at":   "p.first_seen_at",
	"relevance_score": "p.relevance_score",
	"posted_at":       "p.posted_at",
	"title":           "p.title",
}

const postingColumns = `
            p.id, p.company_id, c.name, c.comp_gate_status,
            p.title, p.apply_url, p.location_city, p.location_country,
            p.description, p.req_id, p.posted_at, p.canonical_key,
            p.remote, p.min_exp, p.max_exp, p.relevance_score,
            p.ctc_predicted_pass, p.first_seen_at, p.updated_at
    `

// Get returns one posting by id with the company fields joined in.
func (r *PGXPostingsRepository) Get(ctx context.Context, id int64) (*entity.JobPosting, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+postingColumns+`
        FROM postings p
        JOIN companies c ON p.company_id = c.id
        WHERE p.id = $1
    `, id)
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	defer rows.Close()

	postings, err := scanPostings(rows)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, ErrPostingNotFound
	}
	return &postings[0], nil
}

// List retrieves postings matching the provided filter.
func (r *PGXPostingsRepository) List(ctx context.Context, filter dto.JobsFilter) ([]entity.JobPosting, error) {
	query := strings.Builder{}
	query.WriteString("SELECT " + postingColumns + `
        FROM postings p
        JOIN companies c ON p.company_id = c.id
    `)

	clauses, args := postingClauses(filter)
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	sortCol, ok := validPostingSorts[filter.SortBy]
	if !ok {
		sortCol = "p.first_seen_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		dir = "ASC"
	}
	query.WriteString(fmt.Sprintf(" ORDER BY %s %s NULLS LAST", sortCol, dir))

	idx := len(args) + 1
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	return scanPostings(rows)
}

// Count returns the number of postings matching the filter.
func (r *PGXPostingsRepository) Count(ctx context.Context, filter dto.JobsFilter) (int, error) {
	query := strings.Builder{}
	query.WriteString(`
        SELECT COUNT(*)
        FROM postings p
        JOIN companies c ON p.company_id = c.id
    `)

	clauses, args := postingClauses(filter)
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	var count int
	if err := r.pool.QueryRow(ctx, query.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count postings: %w", err)
	}
	return count, nil
}

// ListForScoring pages through all postings in id order with the company
// gate status joined in, for relevance sweeps.
func (r *PGXPostingsRepository) ListForScoring(ctx context.Context, limit, offset int) ([]entity.JobPosting, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+postingColumns+`
        FROM postings p
        JOIN companies c ON p.company_id = c.id
        ORDER BY p.id
        LIMIT $1 OFFSET $2
    `, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list postings for scoring: %w", err)
	}
	defer rows.Close()

	return scanPostings(rows)
}

// UpdateScore stores the relevance verdict for one posting.
func (r *PGXPostingsRepository) UpdateScore(ctx context.Context, id int64, score int, ctcPass bool) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE postings
        SET relevance_score = $2, ctc_predicted_pass = $3, updated_at = NOW()
        WHERE id = $1
    `, id, score, ctcPass)
	if err != nil {
		return fmt.Errorf("update posting score: %w", err)
	}
	return nil
}

// Stats aggregates dashboard counters in a single round trip per metric.
func (r *PGXPostingsRepository) Stats(ctx context.Context) (*entity.Stats, error) {
	var stats entity.Stats

	err := r.pool.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM companies WHERE active),
            (SELECT COUNT(*) FROM postings),
            (SELECT COUNT(*) FROM postings WHERE relevance_score >= 80)
    `).Scan(&stats.CompanyCount, &stats.JobCount, &stats.HighScoreCount)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
        SELECT c.name, COUNT(p.id) AS job_count
        FROM companies c
        LEFT JOIN postings p ON c.id = p.company_id
        WHERE c.active
        GROUP BY c.id, c.name
        ORDER BY job_count DESC
        LIMIT 10
    `)
	if err != nil {
		return nil, fmt.Errorf("top companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var top entity.CompanyJobs
		if err := rows.Scan(&top.Name, &top.JobCount); err != nil {
			return nil, fmt.Errorf("scan top company: %w", err)
		}
		stats.TopCompanies = append(stats.TopCompanies, top)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top companies: %w", err)
	}
	return &stats, nil
}

func postingClauses(filter dto.JobsFilter) ([]string, []any) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)
	if filter.CompanyID > 0 {
		clauses = append(clauses, fmt.Sprintf("p.company_id = $%d", idx))
		args = append(args, filter.CompanyID)
		idx++
	}
	if filter.MinScore != nil {
		clauses = append(clauses, fmt.Sprintf("p.relevance_score >= $%d", idx))
		args = append(args, *filter.MinScore)
		idx++
	}
	if filter.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Search)
		clauses = append(clauses, fmt.Sprintf("(p.title ILIKE $%d OR p.location_city ILIKE $%d OR c.name ILIKE $%d)", idx, idx+1, idx+2))
		args = append(args, pattern, pattern, pattern)
		idx += 3
	}
	return clauses, args
}

func scanPostings(rows pgx.Rows) ([]entity.JobPosting, error) {
	var postings []entity.JobPosting
	for rows.Next() {
		var (
			p               entity.JobPosting
			applyURL        sql.NullString
			locationCity    sql.NullString
			locationCountry sql.NullString
			description     sql.NullString
			reqID           sql.NullString
			postedAt        sql.NullTime
			minExp          sql.NullInt64
			maxExp          sql.NullInt64
			relevanceScore  sql.NullInt64
			ctcPass         sql.NullBool
		)

		err := rows.Scan(
			&p.ID,
			&p.CompanyID,
			&p.CompanyName,
			&p.CompGateStatus,
			&p.Title,
			&applyURL,
			&locationCity,
			&locationCountry,
			&description,
			&reqID,
			&postedAt,
			&p.CanonicalKey,
			&p.Remote,
			&minExp,
			&maxExp,
			&relevanceScore,
			&ctcPass,
			&p.FirstSeenAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}

		p.ApplyURL = nullStringToPtr(applyURL)
		p.LocationCity = nullStringToPtr(locationCity)
		p.LocationCountry = nullStringToPtr(locationCountry)
		p.Description = nullStringToPtr(description)
		p.ReqID = nullStringToPtr(reqID)
		if postedAt.Valid {
			ts := postedAt.Time
			p.PostedAt = &ts
		}
		if minExp.Valid {
			v := int(minExp.Int64)
			p.MinExp = &v
		}
		if maxExp.Valid {
			v := int(maxExp.Int64)
			p.MaxExp = &v
		}
		if relevanceScore.Valid {
			v := int(relevanceScore.Int64)
			p.RelevanceScore = &v
		}
		if ctcPass.Valid {
			v := ctcPass.Bool
			p.CTCPredictedPass = &v
		}

		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return postings, nil
}

func normLower(value *string) string {
	if value == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*value))
}
