package ai

import (
	"context"

	"github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// Briefing short executive summary of a completed analysis
type Briefing struct {
	Headline   string   `json:"headline"`
	Priorities []string `json:"priorities"`
	Advice     string   `json:"advice"`
}

type Client interface {
	Brief(ctx context.Context, id analysis.AnalysisID, r *analysis.Result) (Briefing, error)
}
