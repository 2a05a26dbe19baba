package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

const defaultTimeout = 30 * time.Second

// Client performs JSON requests against the analysis service. Every
// error it returns is a *domain.APIError.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l.With().Str("component", "transport").Logger() }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL of the remote service
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body (if non-nil) as JSON and decodes a 2xx response into out
// (if non-nil). token is attached as a bearer credential when non-empty.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string, out any) error {
	target := c.baseURL + path

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return unknown(err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return unknown(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Bool("has_token", token != "").
			Err(err).
			Msg("request failed")
		return c.classify(target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Bool("has_token", token != "").
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return c.classify(target, err)
		}
		return unknown(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// httpError builds HTTP_<status>, preferring the server's {"error": ...} body.
func httpError(resp *http.Response) error {
	statusText := http.StatusText(resp.StatusCode)
	fallback := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText)

	var details map[string]any
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &details); err != nil || details == nil {
		details = map[string]any{"error": fallback}
	}

	msg, _ := details["error"].(string)
	if msg == "" {
		msg = fallback
	}
	return &domain.APIError{
		Code:    domain.HTTPCode(resp.StatusCode),
		Message: msg,
		Details: details,
		Status:  resp.StatusCode,
	}
}

func (c *Client) classify(target string, err error) error {
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr), errors.As(err, &urlErr):
		return &domain.APIError{
			Code: domain.CodeNetwork,
			Message: fmt.Sprintf("cannot connect to backend at %s. Make sure the backend server is running on %s",
				target, c.baseURL),
			Cause: err,
		}
	}
	return unknown(err)
}

func unknown(err error) error {
	msg := "an unexpected error occurred"
	if err != nil {
		msg = err.Error()
	}
	return &domain.APIError{Code: domain.CodeUnknown, Message: msg, Cause: err}
}
