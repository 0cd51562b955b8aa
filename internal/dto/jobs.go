package dto

// JobsFilter contains query parameters for posting list endpoints.
type JobsFilter struct {
	CompanyID int64
	MinScore  *int
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// IngestRequest optionally narrows a manual ingestion run to one company.
type IngestRequest struct {
	Company string `json:"company,omitempty"`
}

// ScoreSweepResult summarises a scoring pass over stored postings.
type ScoreSweepResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}
