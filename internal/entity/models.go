package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company trust tiers used for the compensation-gate prediction.
const (
	CompGatePass      = "pass"
	CompGateProbation = "probation"
)

// Company represents an employer whose career site is being ingested.
type Company struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	CareersURL     *string    `json:"careers_url,omitempty"`
	ATSType        *string    `json:"ats_type,omitempty"`
	Active         bool       `json:"active"`
	CompGateStatus string     `json:"comp_gate_status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// JobPosting is the canonical, persisted shape of a discovered posting.
// At most one row exists per (company_id, canonical_key).
type JobPosting struct {
	ID               int64      `json:"id"`
	CompanyID        int64      `json:"company_id"`
	CompanyName      string     `json:"company_name,omitempty"`
	CompGateStatus   string     `json:"comp_gate_status,omitempty"`
	Title            string     `json:"title"`
	ApplyURL         *string    `json:"apply_url,omitempty"`
	LocationCity     *string    `json:"location_city,omitempty"`
	LocationCountry  *string    `json:"location_country,omitempty"`
	Description      *string    `json:"description,omitempty"`
	ReqID            *string    `json:"req_id,omitempty"`
	PostedAt         *time.Time `json:"posted_at,omitempty"`
	CanonicalKey     string     `json:"canonical_key"`
	Remote           bool       `json:"remote"`
	MinExp           *int       `json:"min_exp,omitempty"`
	MaxExp           *int       `json:"max_exp,omitempty"`
	RelevanceScore   *int       `json:"relevance_score,omitempty"`
	CTCPredictedPass *bool      `json:"ctc_predicted_pass,omitempty"`
	FirstSeenAt      time.Time  `json:"first_seen_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FetchLog is one append-only audit row per connector invocation.
type FetchLog struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	SourceURL string    `json:"source_url"`
	ItemCount *int      `json:"item_count,omitempty"`
	ErrorText *string   `json:"error_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestRun statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
)

// IngestRun is the durable record of one orchestrator invocation.
// Status survives process restart; the dashboard polls these rows
// instead of an in-memory task map.
type IngestRun struct {
	ID               uuid.UUID  `json:"id"`
	Status           string     `json:"status"`
	SourcesTotal     int        `json:"sources_total"`
	SourcesSucceeded int        `json:"sources_succeeded"`
	SourcesFailed    int        `json:"sources_failed"`
	PostingsUpserted int        `json:"postings_upserted"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// Stats aggregates counts for the dashboard overview.
type Stats struct {
	CompanyCount   int            `json:"company_count"`
	JobCount       int            `json:"job_count"`
	HighScoreCount int            `json:"high_score_count"`
	TopCompanies   []CompanyJobs  `json:"top_companies"`
}

// CompanyJobs pairs a company name with its posting count.
type CompanyJobs struct {
	Name     string `json:"name"`
	JobCount int    `json:"job_count"`
}
