package analysis

import (
	"encoding/json"
	"strings"
)

// AnalysisID opaque identifier issued by the remote service
type AnalysisID string

// Status enum
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus maps a wire status onto the enum, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusProcessing:
		return StatusProcessing, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusFailed:
		return StatusFailed, true
	}
	return "", false
}

// Request body for POST /api/analyze
type Request struct {
	RepositoryURL string `json:"repo_url"`
}

// TriggerResponse returned when the remote service accepts a request
type TriggerResponse struct {
	AnalysisID AnalysisID `json:"analysis_id"`
	Status     Status     `json:"status"`
	Message    string     `json:"message"`
}

// PullRequestEvent is the payload forwarded to /webhook.
type PullRequestEvent struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		HTMLURL string `json:"html_url"`
		Head    struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		CloneURL string `json:"clone_url"`
		Name     string `json:"name"`
	} `json:"repository"`
}

// Risk is a single detected issue.
type Risk struct {
	ID          string  `json:"id"`
	ServerIndex int     `json:"server_index"`
	File        string  `json:"file"`
	Line        int     `json:"line"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Impact      string  `json:"impact"`
	Confidence  float64 `json:"confidence"`
	CodeSnippet string  `json:"code_snippet"`
}

// AutoFix is a proposed code change addressing one risk.
type AutoFix struct {
	ID          string `json:"id"`
	ServerIndex int    `json:"server_index"`
	RiskTitle   string `json:"risk_title"`
	Original    string `json:"original"`
	Fixed       string `json:"fixed"`
	Explanation string `json:"explanation"`
	Regulation  string `json:"regulation"`
}

type Summary struct {
	TotalCritical          int      `json:"total_critical"`
	TotalHigh              int      `json:"total_high"`
	TotalMedium            int      `json:"total_medium"`
	BusinessType           string   `json:"business_type"`
	ComplianceRequirements []string `json:"compliance_requirements"`
}

type Compliance struct {
	Standards       []string `json:"standards"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

type Architecture struct {
	Overview        string   `json:"overview"`
	Strengths       []string `json:"strengths"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// Result is the normalized analysis payload. List fields are never nil.
type Result struct {
	CriticalRisks []Risk        `json:"critical_risks"`
	HighRisks     []Risk        `json:"high_risks"`
	MediumRisks   []Risk        `json:"medium_risks"`
	AutoFixes     []AutoFix     `json:"auto_fixes"`
	Explanations  []string      `json:"explanations"`
	Summary       Summary       `json:"summary"`
	Compliance    *Compliance   `json:"compliance,omitempty"`
	Architecture  *Architecture `json:"architecture,omitempty"`
}

// FixIndex resolves a stable fix id to its current server-side position.
func (r *Result) FixIndex(id string) (int, bool) {
	if r == nil {
		return 0, false
	}
	for _, f := range r.AutoFixes {
		if f.ID == id {
			return f.ServerIndex, true
		}
	}
	return 0, false
}

// Fix returns the fix with the given stable id.
func (r *Result) Fix(id string) (AutoFix, bool) {
	if r == nil {
		return AutoFix{}, false
	}
	for _, f := range r.AutoFixes {
		if f.ID == id {
			return f, true
		}
	}
	return AutoFix{}, false
}

// Counts severity tally for a result
func (r *Result) Counts() SeverityCounts {
	c := SeverityCounts{
		Critical: len(r.CriticalRisks),
		High:     len(r.HighRisks),
		Medium:   len(r.MediumRisks),
	}
	c.Total = c.Critical + c.High + c.Medium
	return c
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Total    int `json:"total"`
}

// FixOutcome structured response of a fix application
type FixOutcome struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	NextSteps  string `json:"next_steps,omitempty"`
	FixApplied string `json:"fix_applied,omitempty"`
	CommitSHA  string `json:"commit_sha,omitempty"`
	PRURL      string `json:"pr_url,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Simulated  bool   `json:"simulated,omitempty"`
	Committed  bool   `json:"committed,omitempty"`
}

// HealthInfo response of the remote liveness endpoint
type HealthInfo struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Pagination block of /api/analyses
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// RawPage is a page of not-yet-normalized results.
type RawPage struct {
	Data       []json.RawMessage `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// Page is a page of normalized results.
type Page struct {
	Data       []*Result  `json:"data"`
	Scores     []int      `json:"scores"`
	Pagination Pagination `json:"pagination"`
}
