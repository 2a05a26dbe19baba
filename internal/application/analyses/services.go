package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aegis-console/internal/application"
	"github.com/bryanwahyu/aegis-console/internal/application/fixes"
	"github.com/bryanwahyu/aegis-console/internal/application/lifecycle"
	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// Service implements use-cases untuk analysis lifecycle.
// Service is designed to be used concurrently and is thread-safe.
// Snapshots, Incidents and Archive are optional.
type Service struct {
	Backend   domain.Backend
	Poller    *lifecycle.Poller
	Fixes     *fixes.Applicator
	Snapshots domain.SnapshotRepository
	Incidents domain.IncidentRepository
	Archive   domain.ArchiveStore
	Clock     application.Clock
	Logger    zerolog.Logger
	// TickErrorHook observes absorbed poll errors, e.g. for metrics.
	TickErrorHook func(phase string, err error)
}

// NewService wires poller and applicator on top of backend.
func NewService(backend domain.Backend, poller *lifecycle.Poller, logger zerolog.Logger) *Service {
	return &Service{
		Backend: backend,
		Poller:  poller,
		Fixes:   fixes.NewApplicator(backend, logger),
		Clock:   application.SystemClock{},
		Logger:  logger.With().Str("component", "analyses").Logger(),
	}
}

// ScoredResult is a normalized result with its compliance score.
type ScoredResult struct {
	AnalysisID domain.AnalysisID `json:"analysis_id"`
	Score      int               `json:"score"`
	Result     *domain.Result    `json:"result"`
}

// WatchResult is the terminal outcome of Watch.
type WatchResult struct {
	AnalysisID domain.AnalysisID `json:"analysis_id"`
	Status     domain.Status     `json:"status"`
	Score      int               `json:"score"`
	Attempts   int               `json:"attempts"`
	Result     *domain.Result    `json:"result,omitempty"`
}

// Stats dashboard numbers
type Stats struct {
	TotalScans      int `json:"total_scans"`
	CriticalIssues  int `json:"critical_issues"`
	AutoFixes       int `json:"auto_fixes"`
	ComplianceScore int `json:"compliance_score"`
}

// Submit trigger a new analysis
func (s *Service) Submit(ctx context.Context, repoURL, token string) (domain.TriggerResponse, error) {
	res, err := s.Backend.Submit(ctx, domain.Request{RepositoryURL: repoURL}, token)
	if err != nil {
		return domain.TriggerResponse{}, err
	}
	s.Logger.Info().Str("analysis_id", string(res.AnalysisID)).Str("repo_url", repoURL).Msg("analysis submitted")
	return res, nil
}

// SubmitPullRequest forwards a pull request event to the service
func (s *Service) SubmitPullRequest(ctx context.Context, ev domain.PullRequestEvent, token string) (domain.TriggerResponse, error) {
	res, err := s.Backend.SubmitWebhook(ctx, ev, token)
	if err != nil {
		return domain.TriggerResponse{}, err
	}
	s.Logger.Info().
		Str("analysis_id", string(res.AnalysisID)).
		Str("repo_url", ev.Repository.CloneURL).
		Int("pr", ev.Number).
		Msg("pull request analysis submitted")
	return res, nil
}

// Watch tracks the analysis until a terminal state and persists the
// completed result. onStatus may be nil.
func (s *Service) Watch(ctx context.Context, id domain.AnalysisID, token string, onStatus func(domain.Status)) (WatchResult, error) {
	out := s.Poller.Track(ctx, lifecycle.TrackRequest{
		ID:       id,
		Token:    token,
		OnStatus: onStatus,
		OnTickError: func(phase string, err error) {
			if s.TickErrorHook != nil {
				s.TickErrorHook(phase, err)
			}
			s.recordIncident(id, phase, err)
		},
	})
	wr := WatchResult{AnalysisID: id, Status: out.Status, Attempts: out.Attempts}
	if out.Err != nil {
		return wr, out.Err
	}
	wr.Result = out.Result
	wr.Score = domain.Score(out.Result)
	s.persist(ctx, id, out.Result, out.Raw)
	return wr, nil
}

// Result fetch + normalize + score
func (s *Service) Result(ctx context.Context, id domain.AnalysisID, token string) (ScoredResult, error) {
	raw, err := s.Backend.Fetch(ctx, id, token)
	if err != nil {
		return ScoredResult{}, err
	}
	r := domain.Normalize(raw)
	return ScoredResult{AnalysisID: id, Score: domain.Score(r), Result: r}, nil
}

// ApplyFix resolves fixRef (a stable fix id, or a numeric server index)
// against the current result and applies it.
func (s *Service) ApplyFix(ctx context.Context, id domain.AnalysisID, fixRef, token string) (fixes.Report, error) {
	var (
		rep fixes.Report
		err error
	)
	if idx, convErr := strconv.Atoi(fixRef); convErr == nil {
		if idx < 0 {
			return fixes.Report{AnalysisID: id, Index: -1}, fmt.Errorf("%w: %s", domain.ErrFixNotFound, fixRef)
		}
		rep, err = s.Fixes.ApplyAt(ctx, id, idx, token)
	} else {
		// resolve against the current server state right before applying
		raw, ferr := s.Backend.Fetch(ctx, id, token)
		if ferr != nil {
			return fixes.Report{AnalysisID: id, Index: -1}, ferr
		}
		rep, err = s.Fixes.Apply(ctx, id, fixRef, domain.Normalize(raw), token)
	}

	if err != nil {
		if !errors.Is(err, domain.ErrFixNotFound) {
			s.recordIncident(id, domain.PhaseFix, err)
		}
		return rep, err
	}
	if rep.Rejected() {
		s.recordIncident(id, domain.PhaseFix, rep.Err())
		return rep, nil
	}
	s.persist(ctx, id, rep.Refreshed, rep.Raw)
	return rep, nil
}

// History remote paginated list, each item normalized and scored
func (s *Service) History(ctx context.Context, page, limit int, token string) (domain.Page, error) {
	raw, err := s.Backend.List(ctx, page, limit, token)
	if err != nil {
		return domain.Page{}, err
	}
	out := domain.Page{
		Data:       make([]*domain.Result, 0, len(raw.Data)),
		Scores:     make([]int, 0, len(raw.Data)),
		Pagination: raw.Pagination,
	}
	for _, item := range raw.Data {
		r := domain.Normalize(item)
		out.Data = append(out.Data, r)
		out.Scores = append(out.Scores, domain.Score(r))
	}
	return out, nil
}

// Dashboard aggregate numbers over one page of past analyses
func (s *Service) Dashboard(ctx context.Context, page, limit int, token string) (Stats, error) {
	p, err := s.History(ctx, page, limit, token)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalScans: len(p.Data), ComplianceScore: domain.AggregateScore(p.Data)}
	for _, r := range p.Data {
		st.CriticalIssues += r.Summary.TotalCritical
		st.AutoFixes += len(r.AutoFixes)
	}
	return st, nil
}

// LocalSnapshots history persisted by this console
func (s *Service) LocalSnapshots(ctx context.Context, page, size int) (domain.PaginatedSnapshots, error) {
	if s.Snapshots == nil {
		return domain.PaginatedSnapshots{Data: []*domain.Snapshot{}, Page: 1, PageSize: size}, nil
	}
	return s.Snapshots.Paginate(ctx, page, size)
}

// LocalSnapshot latest persisted view of one analysis
func (s *Service) LocalSnapshot(ctx context.Context, id domain.AnalysisID) (*domain.Snapshot, error) {
	if s.Snapshots == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return s.Snapshots.Get(ctx, id)
}

// ListIncidents absorbed failures recorded for an analysis
func (s *Service) ListIncidents(ctx context.Context, id domain.AnalysisID, limit int) ([]*domain.Incident, error) {
	if s.Incidents == nil {
		return []*domain.Incident{}, nil
	}
	return s.Incidents.ListByAnalysis(ctx, id, limit)
}

// Health of the remote service
func (s *Service) Health(ctx context.Context) (domain.HealthInfo, error) {
	return s.Backend.Health(ctx)
}

// persist saves a snapshot and archives the raw payload. Failures here
// never fail the caller.
func (s *Service) persist(ctx context.Context, id domain.AnalysisID, r *domain.Result, raw json.RawMessage) {
	if r == nil || (s.Snapshots == nil && s.Archive == nil) {
		return
	}
	now := s.Clock.Now()
	resultJSON, err := json.Marshal(r)
	if err != nil {
		s.Logger.Error().Err(err).Msg("marshal result")
		return
	}
	snap := domain.NewSnapshot(id, r, string(resultJSON), now)

	if s.Archive != nil && len(raw) > 0 {
		key := path.Join("analyses", string(id), fmt.Sprintf("%d.json", now.UnixNano()))
		url, err := s.Archive.PutJSON(ctx, key, raw)
		if err != nil {
			s.Logger.Warn().Err(err).Str("analysis_id", string(id)).Msg("archive failed")
			s.recordIncident(id, domain.PhaseArchive, err)
		} else {
			snap.ArchiveURL = url
		}
	}

	if s.Snapshots != nil {
		if err := s.Snapshots.Save(ctx, snap); err != nil {
			s.Logger.Error().Err(err).Str("analysis_id", string(id)).Msg("save snapshot failed")
		}
	}
}

func (s *Service) recordIncident(id domain.AnalysisID, phase string, err error) {
	if s.Incidents == nil || err == nil {
		return
	}
	inc := &domain.Incident{
		AnalysisID: id,
		Phase:      phase,
		Message:    err.Error(),
		CreatedAt:  s.Clock.Now(),
	}
	if apiErr, ok := domain.AsAPIError(err); ok {
		inc.Code = apiErr.Code
		inc.Message = apiErr.Message
		if apiErr.Details != nil {
			if b, mErr := json.Marshal(apiErr.Details); mErr == nil {
				inc.DetailsJSON = string(b)
			}
		}
	} else if errors.Is(err, domain.ErrFixRejected) {
		inc.Code = "FIX_REJECTED"
		inc.Message = strings.TrimPrefix(err.Error(), domain.ErrFixRejected.Error()+": ")
	}
	// own context: the caller's may already be done
	ctx, cancel := context.WithTimeout(context.Background(), incidentTimeout)
	defer cancel()
	if err := s.Incidents.Save(ctx, inc); err != nil {
		s.Logger.Warn().Err(err).Msg("record incident failed")
	}
}
