package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aegis-console/internal/domain/ai"
	"github.com/bryanwahyu/aegis-console/internal/domain/analysis"
	"github.com/bryanwahyu/aegis-console/internal/infra/ai/prompt"
)

// Service produces briefings, falling back to a deterministic summary
// when no model is configured or the model output is unusable.
type Service struct {
	client ai.Client
	logger zerolog.Logger
}

// NewService client may be nil.
func NewService(client ai.Client, logger zerolog.Logger) *Service {
	return &Service{client: client, logger: logger.With().Str("component", "briefing").Logger()}
}

func (s *Service) Brief(ctx context.Context, id analysis.AnalysisID, r *analysis.Result) (ai.Briefing, error) {
	if s.client == nil {
		return prompt.FallbackBriefing(r), nil
	}
	b, err := s.client.Brief(ctx, id, r)
	if err != nil {
		if errors.Is(err, ai.ErrQuotaExceeded) || ctx.Err() != nil {
			return ai.Briefing{}, err
		}
		s.logger.Warn().Err(err).Str("analysis_id", string(id)).Msg("model briefing failed, using fallback")
		return prompt.FallbackBriefing(r), nil
	}
	return b, nil
}
