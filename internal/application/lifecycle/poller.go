package lifecycle

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

// DefaultInterval between status checks
const DefaultInterval = 3 * time.Second

// Checker is the part of the backend the poller needs.
type Checker interface {
	Status(ctx context.Context, id domain.AnalysisID, token string) (domain.Status, error)
	Fetch(ctx context.Context, id domain.AnalysisID, token string) (json.RawMessage, error)
}

// Ticker abstraction supaya gampang ditest
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// NewSystemTicker wraps time.NewTicker.
func NewSystemTicker(d time.Duration) Ticker { return systemTicker{t: time.NewTicker(d)} }

// TrackRequest identifies one analysis to track.
type TrackRequest struct {
	ID    domain.AnalysisID
	Token string
	// OnStatus receives every observed status while tracking is active.
	OnStatus func(domain.Status)
	// OnTickError receives absorbed per-tick errors.
	OnTickError func(phase string, err error)
}

// Outcome is the single resolution of a tracking run.
type Outcome struct {
	ID     domain.AnalysisID `json:"analysis_id"`
	Status domain.Status     `json:"status"`
	Result *domain.Result    `json:"result,omitempty"`
	// Raw is the payload Result was normalized from.
	Raw      json.RawMessage `json:"-"`
	Err      error           `json:"-"`
	Attempts int             `json:"attempts"`
}

// Poller drives processing -> completed/failed for one analysis at a time
// per Track call. It is safe to share between goroutines; each Track call
// owns its own ticker.
type Poller struct {
	Checker  Checker
	Interval time.Duration
	// MaxAttempts caps the number of status checks, 0 means unbounded.
	MaxAttempts int
	// MaxWait caps total tracking time, 0 means unbounded.
	MaxWait   time.Duration
	NewTicker func(time.Duration) Ticker
	Logger    zerolog.Logger
}

func NewPoller(c Checker, logger zerolog.Logger) *Poller {
	return &Poller{
		Checker:   c,
		Interval:  DefaultInterval,
		NewTicker: NewSystemTicker,
		Logger:    logger.With().Str("component", "poller").Logger(),
	}
}

// Track blocks until a terminal state, a bound is exceeded, or ctx ends.
func (p *Poller) Track(ctx context.Context, req TrackRequest) Outcome {
	if p.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.MaxWait)
		defer cancel()
	}
	log := p.Logger.With().Str("analysis_id", string(req.ID)).Logger()
	out := Outcome{ID: req.ID, Status: domain.StatusProcessing}

	// immediate check, errors here are surfaced
	out.Attempts++
	st, err := p.Checker.Status(ctx, req.ID, req.Token)
	if ctx.Err() != nil {
		return p.stopped(ctx, out)
	}
	if err != nil {
		out.Err = err
		return out
	}
	res, done := p.evaluate(ctx, req, st, &out)
	if ctx.Err() != nil {
		return p.stopped(ctx, out)
	}
	if done {
		return res
	}

	newTicker := p.NewTicker
	if newTicker == nil {
		newTicker = NewSystemTicker
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := newTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.stopped(ctx, out)
		case <-ticker.C():
		}
		if ctx.Err() != nil {
			return p.stopped(ctx, out)
		}
		if p.MaxAttempts > 0 && out.Attempts >= p.MaxAttempts {
			log.Warn().Int("attempts", out.Attempts).Msg("giving up on analysis")
			out.Err = domain.ErrPollTimeout
			return out
		}

		out.Attempts++
		st, err := p.Checker.Status(ctx, req.ID, req.Token)
		if ctx.Err() != nil {
			return p.stopped(ctx, out)
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", out.Attempts).Msg("status check failed")
			p.tickError(req, domain.PhasePoll, err)
			continue
		}
		res, done := p.evaluate(ctx, req, st, &out)
		if ctx.Err() != nil {
			return p.stopped(ctx, out)
		}
		if !done {
			continue
		}
		if res.Err != nil && res.Status == domain.StatusCompleted {
			// fetch failed on a tick, try again on the next one
			log.Warn().Err(res.Err).Msg("result fetch failed")
			p.tickError(req, domain.PhaseFetch, res.Err)
			continue
		}
		return res
	}
}

// evaluate applies the three-way branch on an observed status.
func (p *Poller) evaluate(ctx context.Context, req TrackRequest, st domain.Status, out *Outcome) (Outcome, bool) {
	out.Status = st
	if req.OnStatus != nil && ctx.Err() == nil {
		req.OnStatus(st)
	}
	switch st {
	case domain.StatusCompleted:
		raw, err := p.Checker.Fetch(ctx, req.ID, req.Token)
		res := *out
		if err != nil {
			res.Err = err
			return res, true
		}
		res.Raw = raw
		res.Result = domain.Normalize(raw)
		p.Logger.Info().
			Str("analysis_id", string(req.ID)).
			Int("attempts", out.Attempts).
			Int("critical", len(res.Result.CriticalRisks)).
			Msg("analysis completed")
		return res, true
	case domain.StatusFailed:
		res := *out
		res.Err = domain.ErrAnalysisFailed
		return res, true
	}
	return Outcome{}, false
}

func (p *Poller) tickError(req TrackRequest, phase string, err error) {
	if req.OnTickError != nil {
		req.OnTickError(phase, err)
	}
}

func (p *Poller) stopped(ctx context.Context, out Outcome) Outcome {
	out.Result = nil
	out.Raw = nil
	if ctx.Err() == context.DeadlineExceeded && p.MaxWait > 0 {
		out.Err = domain.ErrPollTimeout
		return out
	}
	out.Err = ctx.Err()
	return out
}

// Tracking is a cancellable background Track run.
type Tracking struct {
	cancel context.CancelFunc
	done   chan Outcome
	mu     sync.Mutex
}

// Start runs Track in the background. Done yields exactly one Outcome,
// or is closed without a value once Cancel was called.
func (p *Poller) Start(ctx context.Context, req TrackRequest) *Tracking {
	ctx, cancel := context.WithCancel(ctx)
	t := &Tracking{cancel: cancel, done: make(chan Outcome, 1)}

	go func() {
		defer close(t.done)
		out := p.Track(ctx, req)
		t.mu.Lock()
		defer t.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		t.done <- out
		cancel()
	}()
	return t
}

// Cancel stops tracking. An outcome not yet received is discarded and
// no status callback starts after Cancel returns.
func (t *Tracking) Cancel() {
	t.cancel()
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.done:
	default:
	}
}

func (t *Tracking) Done() <-chan Outcome { return t.done }
