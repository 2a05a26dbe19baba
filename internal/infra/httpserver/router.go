package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	appai "github.com/bryanwahyu/aegis-console/internal/application/ai"
	appanalyses "github.com/bryanwahyu/aegis-console/internal/application/analyses"
	domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
	"github.com/bryanwahyu/aegis-console/internal/middleware"
)

// Options wiring for NewRouter
type Options struct {
	Analyses *appanalyses.Service
	Briefing *appai.Service
	Checkers map[string]middleware.HealthChecker
	Logger   zerolog.Logger

	AllowedOrigins []string
	// FallbackToken is forwarded when a request carries no bearer token.
	FallbackToken  string
	RateCapacity   int
	RateRefillRate int
}

type Router struct {
	analyses *appanalyses.Service
	briefing *appai.Service
	logger   zerolog.Logger
}

func NewRouter(opts Options) http.Handler {
	r := &Router{analyses: opts.Analyses, briefing: opts.Briefing, logger: opts.Logger}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestLogger(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	mux.Get("/", middleware.LivenessHandler)
	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	capacity, refill := opts.RateCapacity, opts.RateRefillRate
	if capacity <= 0 {
		capacity = 10
	}
	if refill <= 0 {
		refill = 1
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.BearerAuth(opts.FallbackToken))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/webhook", r.wrap(r.handleWebhook))
		rt.Get("/analyses", r.wrap(r.handleHistory))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Get("/snapshots", r.wrap(r.handleSnapshots))
		rt.Get("/snapshots/{id}", r.wrap(r.handleSnapshot))
		rt.Route("/analysis/{id}", func(ar chi.Router) {
			ar.Get("/", r.wrap(r.handleResult))
			ar.Get("/watch", r.wrap(r.handleWatch))
			ar.Get("/briefing", r.wrap(r.handleBriefing))
			ar.Get("/incidents", r.wrap(r.handleIncidents))
			ar.With(middleware.RateLimitMiddleware(capacity, refill)).
				Post("/fixes/{fixRef}", r.wrap(r.handleApplyFix))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks validation failures
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func invalid(err error) error { return badRequest{msg: err.Error()} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		// client went away, nobody to answer
		if errors.Is(err, context.Canceled) && req.Context().Err() != nil {
			return
		}
		status, body := errorResponse(err)
		if status >= 500 {
			r.logger.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
		}
		writeJSON(w, status, body)
	}
}

// errorResponse maps an error onto the console's HTTP status and body.
func errorResponse(err error) (int, map[string]any) {
	body := map[string]any{"error": err.Error(), "class": domain.Classify(err).String()}

	var br badRequest
	if errors.As(err, &br) {
		return http.StatusBadRequest, body
	}
	if errors.Is(err, domai.ErrQuotaExceeded) {
		body["error"] = "ai quota exceeded"
		return http.StatusTooManyRequests, body
	}
	switch {
	case errors.Is(err, domain.ErrAnalysisFailed):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrFixNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout, body
	}

	if apiErr, ok := domain.AsAPIError(err); ok {
		body["error"] = apiErr.Message
		body["code"] = apiErr.Code
		if apiErr.Details != nil {
			body["details"] = apiErr.Details
		}
		switch {
		case apiErr.HTTP() && apiErr.Status < 500:
			return apiErr.Status, body
		case errors.Is(err, context.DeadlineExceeded):
			return http.StatusGatewayTimeout, body
		default:
			return http.StatusBadGateway, body
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, body
	}
	return http.StatusInternalServerError, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func analysisID(req *http.Request) (domain.AnalysisID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return "", invalid(err)
	}
	return domain.AnalysisID(id), nil
}

func queryInt(req *http.Request, key string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(key))
	return n
}

// POST /api/webhook, forwards a pull request event
func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) error {
	var ev domain.PullRequestEvent
	if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
		return invalid(errors.New("invalid request body"))
	}
	if err := middleware.ValidateRepoURL(ev.Repository.CloneURL); err != nil {
		return invalid(err)
	}

	res, err := r.analyses.SubmitPullRequest(req.Context(), ev, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	middleware.IncrementSubmitted()
	writeJSON(w, http.StatusAccepted, res)
	return nil
}

// POST /api/analyze
// Body: {"repo_url": "<url>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domain.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return invalid(errors.New("invalid request body"))
	}
	body.RepositoryURL = middleware.SanitizeString(body.RepositoryURL)
	if err := middleware.ValidateRepoURL(body.RepositoryURL); err != nil {
		return invalid(err)
	}

	res, err := r.analyses.Submit(req.Context(), body.RepositoryURL, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	middleware.IncrementSubmitted()
	writeJSON(w, http.StatusAccepted, res)
	return nil
}

// GET /api/analysis/{id}
func (r *Router) handleResult(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	res, err := r.analyses.Result(req.Context(), id, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /api/analysis/{id}/watch
// Long-polls until the analysis is terminal. Closing the connection stops tracking.
func (r *Router) handleWatch(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	middleware.IncrementTracking()
	defer middleware.DecrementTracking()

	res, err := r.analyses.Watch(req.Context(), id, middleware.TokenFromContext(req.Context()), nil)
	switch {
	case errors.Is(err, domain.ErrAnalysisFailed):
		middleware.IncrementAnalysesFailed()
	case err == nil:
		middleware.IncrementCompleted()
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /api/analysis/{id}/fixes/{fixRef}
// fixRef is a fix id from the result or the numeric position of the fix.
func (r *Router) handleApplyFix(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	ref := chi.URLParam(req, "fixRef")
	if err := middleware.ValidateFixRef(ref); err != nil {
		return invalid(err)
	}

	rep, err := r.analyses.ApplyFix(req.Context(), id, ref, middleware.TokenFromContext(req.Context()))
	if err != nil && !rep.Outcome.Success {
		return err
	}
	// the fix went through upstream even when the refresh after it failed
	status := http.StatusOK
	if rep.Rejected() {
		middleware.IncrementFixesRejected()
		status = http.StatusConflict
	} else {
		middleware.IncrementFixesApplied()
	}
	body := map[string]any{
		"analysis_id":  rep.AnalysisID,
		"index":        rep.Index,
		"outcome":      rep.Outcome,
		"notification": rep.Notification(),
		"refreshed":    rep.Refreshed,
		"score":        scoreOrNil(rep.Refreshed),
	}
	if err != nil {
		body["refresh_error"] = err.Error()
	}
	writeJSON(w, status, body)
	return nil
}

func scoreOrNil(res *domain.Result) any {
	if res == nil {
		return nil
	}
	return domain.Score(res)
}

// GET /api/analyses?page=&limit=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	page := middleware.ValidatePage(queryInt(req, "page"))
	limit := middleware.ValidateLimit(queryInt(req, "limit"))

	list, err := r.analyses.History(req.Context(), page, limit, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /api/dashboard?limit=
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(queryInt(req, "limit"))
	stats, err := r.analyses.Dashboard(req.Context(), 1, limit, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats)
	return nil
}

// GET /api/snapshots?page=&page_size=
func (r *Router) handleSnapshots(w http.ResponseWriter, req *http.Request) error {
	page := middleware.ValidatePage(queryInt(req, "page"))
	size := middleware.ValidateLimit(queryInt(req, "page_size"))

	list, err := r.analyses.LocalSnapshots(req.Context(), page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// GET /api/snapshots/{id}
func (r *Router) handleSnapshot(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	snap, err := r.analyses.LocalSnapshot(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, snap)
	return nil
}

// GET /api/analysis/{id}/incidents?limit=
func (r *Router) handleIncidents(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	list, err := r.analyses.ListIncidents(req.Context(), id, middleware.ValidateLimit(queryInt(req, "limit")))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": list})
	return nil
}

// GET /api/analysis/{id}/briefing
func (r *Router) handleBriefing(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	res, err := r.analyses.Result(req.Context(), id, middleware.TokenFromContext(req.Context()))
	if err != nil {
		return err
	}
	b, err := r.briefing.Brief(req.Context(), id, res.Result)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analysis_id": id,
		"score":       res.Score,
		"briefing":    b,
	})
	return nil
}
