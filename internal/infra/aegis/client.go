package aegis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
	"github.com/bryanwahyu/aegis-console/internal/infra/transport"
)

// Client implements domain.Backend over the service's HTTP contract.
type Client struct {
	t      *transport.Client
	status singleflight.Group
}

func NewClient(t *transport.Client) *Client {
	return &Client{t: t}
}

// Submit POST /api/analyze
func (c *Client) Submit(ctx context.Context, req domain.Request, token string) (domain.TriggerResponse, error) {
	var out domain.TriggerResponse
	err := c.t.Do(ctx, http.MethodPost, "/api/analyze", req, token, &out)
	return out, err
}

// SubmitWebhook POST /webhook, used when a pull request event drives the analysis
func (c *Client) SubmitWebhook(ctx context.Context, ev domain.PullRequestEvent, token string) (domain.TriggerResponse, error) {
	var out domain.TriggerResponse
	err := c.t.Do(ctx, http.MethodPost, "/webhook", ev, token, &out)
	return out, err
}

// sharedStatusTimeout bounds a shared status request once it no longer
// follows any single caller's context.
const sharedStatusTimeout = 30 * time.Second

// Status GET /api/analysis/{id}/status. Concurrent callers asking for the
// same analysis with the same token share one request. The shared request
// is detached from the caller that started it; each caller only stops
// waiting when its own ctx ends.
func (c *Client) Status(ctx context.Context, id domain.AnalysisID, token string) (domain.Status, error) {
	key := string(id) + "\x00" + token
	ch := c.status.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedStatusTimeout)
		defer cancel()

		var body struct {
			Status string `json:"status"`
		}
		if err := c.t.Do(sctx, http.MethodGet, analysisPath(id)+"/status", nil, token, &body); err != nil {
			return domain.Status(""), err
		}
		st, ok := domain.ParseStatus(body.Status)
		if !ok {
			return domain.Status(""), &domain.APIError{
				Code:    domain.CodeUnknown,
				Message: fmt.Sprintf("unexpected status %q", body.Status),
				Cause:   domain.ErrUnknownStatus,
			}
		}
		return st, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(domain.Status), nil
	}
}

// Fetch GET /api/analysis/{id}, raw payload for the normalizer
func (c *Client) Fetch(ctx context.Context, id domain.AnalysisID, token string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.t.Do(ctx, http.MethodGet, analysisPath(id), nil, token, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// List GET /api/analyses?page=&limit=
func (c *Client) List(ctx context.Context, page, limit int, token string) (domain.RawPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))

	var out domain.RawPage
	if err := c.t.Do(ctx, http.MethodGet, "/api/analyses?"+q.Encode(), nil, token, &out); err != nil {
		return domain.RawPage{}, err
	}
	if out.Data == nil {
		out.Data = []json.RawMessage{}
	}
	return out, nil
}

// ApplyFix POST /api/analysis/{id}/fix/{index}
func (c *Client) ApplyFix(ctx context.Context, id domain.AnalysisID, index int, token string) (domain.FixOutcome, error) {
	var out domain.FixOutcome
	err := c.t.Do(ctx, http.MethodPost, fmt.Sprintf("%s/fix/%d", analysisPath(id), index), nil, token, &out)
	return out, err
}

// Health GET /, unauthenticated
func (c *Client) Health(ctx context.Context) (domain.HealthInfo, error) {
	var out domain.HealthInfo
	err := c.t.Do(ctx, http.MethodGet, "/", nil, "", &out)
	return out, err
}

func analysisPath(id domain.AnalysisID) string {
	return "/api/analysis/" + url.PathEscape(string(id))
}
