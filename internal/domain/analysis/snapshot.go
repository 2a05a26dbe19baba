package analysis

import "time"

// Snapshot is the locally persisted view of a completed analysis.
type Snapshot struct {
	AnalysisID AnalysisID     `json:"analysis_id"`
	Status     Status         `json:"status"`
	Score      int            `json:"score"`
	Counts     SeverityCounts `json:"counts"`
	AutoFixes  int            `json:"auto_fixes"`
	ResultJSON string         `json:"result_json,omitempty"`
	ArchiveURL string         `json:"archive_url,omitempty"`
	ObservedAt time.Time      `json:"observed_at"`
}

// NewSnapshot summarizes a normalized result.
func NewSnapshot(id AnalysisID, r *Result, resultJSON string, at time.Time) *Snapshot {
	return &Snapshot{
		AnalysisID: id,
		Status:     StatusCompleted,
		Score:      Score(r),
		Counts:     r.Counts(),
		AutoFixes:  len(r.AutoFixes),
		ResultJSON: resultJSON,
		ObservedAt: at,
	}
}

// PaginatedSnapshots represents a paginated response with data and metadata
type PaginatedSnapshots struct {
	Data       []*Snapshot `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// Incident phases
const (
	PhasePoll    = "poll"
	PhaseFetch   = "fetch"
	PhaseFix     = "fix"
	PhaseArchive = "archive"
)

// Incident is a recorded non-fatal failure along the lifecycle.
type Incident struct {
	ID          int64      `json:"id"`
	AnalysisID  AnalysisID `json:"analysis_id"`
	Phase       string     `json:"phase"`
	Code        string     `json:"code,omitempty"`
	Message     string     `json:"message"`
	DetailsJSON string     `json:"details_json,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
