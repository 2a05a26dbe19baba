package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

func TestDo_SendsJSONAndBearer(t *testing.T) {
	var gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"analysis_id":"a1","status":"processing","message":"started"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	var out domain.TriggerResponse
	err := c.Do(context.Background(), http.MethodPost, "/api/analyze", domain.Request{RepositoryURL: "https://github.com/acme/app"}, "tok", &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"repo_url":"https://github.com/acme/app"}`, gotBody)
	assert.Equal(t, domain.AnalysisID("a1"), out.AnalysisID)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).Do(context.Background(), http.MethodGet, "/", nil, "", nil))
	assert.Empty(t, gotAuth)
}

func TestDo_HTTPErrorWithJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Analysis not found","id":"x"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).Do(context.Background(), http.MethodGet, "/api/analysis/x", nil, "", nil)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "HTTP_404", apiErr.Code)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Analysis not found", apiErr.Message)
	assert.Equal(t, map[string]any{"error": "Analysis not found", "id": "x"}, apiErr.Details)
}

func TestDo_HTTPErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	err := New(srv.URL).Do(context.Background(), http.MethodGet, "/", nil, "", nil)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "HTTP_500", apiErr.Code)
	assert.Equal(t, "HTTP 500: Internal Server Error", apiErr.Message)
	assert.Equal(t, map[string]any{"error": "HTTP 500: Internal Server Error"}, apiErr.Details)
	assert.Equal(t, domain.ClassTransport, domain.Classify(err))
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	err := New(base).Do(context.Background(), http.MethodGet, "/api/analysis/a1/status", nil, "", nil)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNetwork, apiErr.Code)
	assert.Contains(t, apiErr.Message, "cannot connect to backend at "+base+"/api/analysis/a1/status")
	assert.Contains(t, apiErr.Message, "running on "+base)
	assert.Error(t, apiErr.Cause)
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, WithTimeout(50*time.Millisecond)).Do(context.Background(), http.MethodGet, "/", nil, "", nil)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNetwork, apiErr.Code)
}

func TestDo_UndecodableBodyIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).Do(context.Background(), http.MethodGet, "/", nil, "", &out)
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUnknown, apiErr.Code)
}
