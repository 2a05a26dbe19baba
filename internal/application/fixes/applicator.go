package fixes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// Backend is the part of the remote service a fix needs.
type Backend interface {
	ApplyFix(ctx context.Context, id domain.AnalysisID, index int, token string) (domain.FixOutcome, error)
	Fetch(ctx context.Context, id domain.AnalysisID, token string) (json.RawMessage, error)
}

// Report result of one fix application
type Report struct {
	AnalysisID domain.AnalysisID `json:"analysis_id"`
	Index      int               `json:"index"`
	Outcome    domain.FixOutcome `json:"outcome"`
	// Refreshed is set only after a successful fix.
	Refreshed *domain.Result  `json:"refreshed,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// Rejected reports a structured success:false outcome.
func (r Report) Rejected() bool { return !r.Outcome.Success }

// Err returns ErrFixRejected wrapping the server message when rejected.
func (r Report) Err() error {
	if r.Outcome.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrFixRejected, r.Outcome.Message)
}

// Notification one-shot message shown to the user
func (r Report) Notification() string {
	if !r.Outcome.Success {
		return "❌ Failed to apply fix: " + r.Outcome.Message
	}
	var b strings.Builder
	b.WriteString("✅ " + r.Outcome.Message)
	if r.Outcome.Details != "" {
		b.WriteString("\n\n" + r.Outcome.Details)
	}
	if r.Outcome.NextSteps != "" {
		b.WriteString("\n\n" + r.Outcome.NextSteps)
	}
	return b.String()
}

type Applicator struct {
	backend Backend
	logger  zerolog.Logger
}

func NewApplicator(b Backend, logger zerolog.Logger) *Applicator {
	return &Applicator{backend: b, logger: logger.With().Str("component", "fixes").Logger()}
}

// Apply resolves fixID against the caller's current result right before
// calling the service, so a shifted list never targets the wrong fix.
func (a *Applicator) Apply(ctx context.Context, id domain.AnalysisID, fixID string, current *domain.Result, token string) (Report, error) {
	idx, ok := current.FixIndex(fixID)
	if !ok {
		return Report{AnalysisID: id, Index: -1}, fmt.Errorf("%w: %s", domain.ErrFixNotFound, fixID)
	}
	return a.ApplyAt(ctx, id, idx, token)
}

// ApplyAt applies the fix at a server-side position. A successful outcome
// triggers exactly one refresh; a rejected one triggers none.
func (a *Applicator) ApplyAt(ctx context.Context, id domain.AnalysisID, index int, token string) (Report, error) {
	rep := Report{AnalysisID: id, Index: index}
	log := a.logger.With().Str("analysis_id", string(id)).Int("fix_index", index).Logger()

	out, err := a.backend.ApplyFix(ctx, id, index, token)
	if err != nil {
		log.Error().Err(err).Msg("apply fix request failed")
		return rep, err
	}
	rep.Outcome = out
	if !out.Success {
		log.Warn().Str("message", out.Message).Msg("fix rejected")
		return rep, nil
	}
	log.Info().Str("message", out.Message).Msg("fix applied")

	raw, err := a.backend.Fetch(ctx, id, token)
	if err != nil {
		log.Error().Err(err).Msg("refresh after fix failed")
		return rep, fmt.Errorf("refresh after fix: %w", err)
	}
	rep.Raw = raw
	rep.Refreshed = domain.Normalize(raw)
	return rep, nil
}
