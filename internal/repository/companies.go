package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscoutbot/jobscout/internal/entity"
)

// ErrCompanyNotFound is returned when no company matches the lookup.
var ErrCompanyNotFound = errors.New("company not found")

// CompaniesRepository describes persistence operations for companies.
type CompaniesRepository interface {
	Upsert(ctx context.Context, company *entity.Company) (int64, error)
	FindByName(ctx context.Context, name string) (*entity.Company, error)
	List(ctx context.Context, activeOnly bool) ([]entity.Company, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// PGXCompaniesRepository implements CompaniesRepository using pgx.
type PGXCompaniesRepository struct {
	pool pgxPool
}

// NewPGXCompaniesRepository wires a pgx backed repository.
func NewPGXCompaniesRepository(pool *pgxpool.Pool) *PGXCompaniesRepository {
	return &PGXCompaniesRepository{pool: pool}
}

// Upsert inserts or updates a company keyed by name and returns its id.
func (r *PGXCompaniesRepository) Upsert(ctx context.Context, company *entity.Company) (int64, error) {
	if company == nil {
		return 0, fmt.Errorf("company payload is nil")
	}
	if company.Name == "" {
		return 0, fmt.Errorf("company name must not be empty")
	}

	gate := company.CompGateStatus
	if gate == "" {
		gate = entity.CompGatePass
	}

	query := `
        INSERT INTO companies (name, careers_url, ats_type, active, comp_gate_status, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (name) DO UPDATE SET
            careers_url = COALESCE(EXCLUDED.careers_url, companies.careers_url),
            ats_type = COALESCE(EXCLUDED.ats_type, companies.ats_type),
            active = EXCLUDED.active,
            comp_gate_status = EXCLUDED.comp_gate_status,
            updated_at = NOW()
        RETURNING id;
    `

	var id int64
	err := r.pool.QueryRow(ctx, query,
		company.Name,
		company.CareersURL,
		company.ATSType,
		company.Active,
		gate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert company %q: %w", company.Name, err)
	}
	company.ID = id
	return id, nil
}

// FindByName fetches a company by its unique name.
func (r *PGXCompaniesRepository) FindByName(ctx context.Context, name string) (*entity.Company, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, careers_url, ats_type, active, comp_gate_status, created_at, updated_at
        FROM companies WHERE name = $1
    `, name)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("query company by name: %w", err)
	}
	return company, nil
}

// List returns companies, optionally restricted to active ones, ordered by name.
func (r *PGXCompaniesRepository) List(ctx context.Context, activeOnly bool) ([]entity.Company, error) {
	query := `
        SELECT id, name, careers_url, ats_type, active, comp_gate_status, created_at, updated_at
        FROM companies
    `
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []entity.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// SetActive toggles ingestion for a company.
func (r *PGXCompaniesRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set company active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		c          entity.Company
		careersURL sql.NullString
		atsType    sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&careersURL,
		&atsType,
		&c.Active,
		&c.CompGateStatus,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CareersURL = nullStringToPtr(careersURL)
	c.ATSType = nullStringToPtr(atsType)
	return &c, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}
