package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
        id BIGSERIAL PRIMARY KEY,
        name TEXT UNIQUE NOT NULL,
        careers_url TEXT,
        ats_type TEXT,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        comp_gate_status TEXT NOT NULL DEFAULT 'pass',
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS postings (
        id BIGSERIAL PRIMARY KEY,
        company_id BIGINT NOT NULL REFERENCES companies(id),
        title TEXT NOT NULL,
        apply_url TEXT,
        location_city TEXT,
        location_country TEXT,
        description TEXT,
        req_id TEXT,
        posted_at TIMESTAMPTZ,
        canonical_key TEXT NOT NULL,
        remote BOOLEAN NOT NULL DEFAULT FALSE,
        min_exp INTEGER,
        max_exp INTEGER,
        relevance_score INTEGER,
        ctc_predicted_pass BOOLEAN,
        first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (company_id, canonical_key)
    )`,
	`CREATE TABLE IF NOT EXISTS fetch_log (
        id BIGSERIAL PRIMARY KEY,
        company_id BIGINT NOT NULL REFERENCES companies(id),
        source_url TEXT NOT NULL,
        item_count INTEGER,
        error_text TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
        id UUID PRIMARY KEY,
        status TEXT NOT NULL,
        sources_total INTEGER NOT NULL DEFAULT 0,
        sources_succeeded INTEGER NOT NULL DEFAULT 0,
        sources_failed INTEGER NOT NULL DEFAULT 0,
        postings_upserted INTEGER NOT NULL DEFAULT 0,
        started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        finished_at TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS idx_postings_company ON postings (company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_postings_score ON postings (relevance_score DESC NULLS LAST)`,
	`CREATE INDEX IF NOT EXISTS idx_postings_posted ON postings (posted_at DESC NULLS LAST)`,
	`CREATE INDEX IF NOT EXISTS idx_postings_first_seen ON postings (first_seen_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_fetch_log_company ON fetch_log (company_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes the service depends on.
// Every statement is idempotent so repeated startups are safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
