package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/quotecard"
	"github.com/arran4/quotecard/internal/metrics"
	"github.com/arran4/quotecard/theme"
)

// recordingRenderer captures requests and answers with a canned result.
type recordingRenderer struct {
	mu   sync.Mutex
	reqs []quotecard.RenderRequest
}

func (r *recordingRenderer) Render(req quotecard.RenderRequest) quotecard.RenderResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return quotecard.RenderResult{ID: req.ID, Success: true, DataURL: "data:image/png;base64,AA=="}
}

func (r *recordingRenderer) last() quotecard.RenderRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, rr Renderer, rl *RateLimiter) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(NewRouter(Deps{
		Renderer:    rr,
		Themes:      theme.Bundled(quietLogger()),
		Logger:      quietLogger(),
		Metrics:     metrics.NewCollector(reg),
		Gatherer:    reg,
		RateLimiter: rl,
		CORSOrigins: []string{"*"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &recordingRenderer{}, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListThemes(t *testing.T) {
	srv := newTestServer(t, &recordingRenderer{}, nil)
	resp, err := http.Get(srv.URL + "/v1/themes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Themes []themeSummary `json:"themes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Themes)
	kinds := map[string]string{}
	for _, th := range body.Themes {
		kinds[th.ID] = th.Background
	}
	assert.Equal(t, "gradient", kinds["midnight"])
	assert.Equal(t, "image", kinds["paper"])
	assert.Equal(t, "solid", kinds["scholarly"])
}

func TestRenderResanitizesMarkup(t *testing.T) {
	rr := &recordingRenderer{}
	srv := newTestServer(t, rr, nil)

	resp := postJSON(t, srv.URL+"/v1/render", `{"id":"abc","text":"Hi","html":"<div onclick=\"x()\"><h2>Hi</h2><script>bad()</script></div>"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res quotecard.RenderResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "abc", res.ID)
	assert.True(t, res.Success)
	assert.Equal(t, "<strong>Hi</strong>", rr.last().HTML)
	assert.NotZero(t, rr.last().CreatedAt)
}

func TestRenderMarkdown(t *testing.T) {
	rr := &recordingRenderer{}
	srv := newTestServer(t, rr, nil)

	resp := postJSON(t, srv.URL+"/v1/render", `{"markdown":"**bold** words"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := rr.last()
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "<p><strong>bold</strong> words</p>", got.HTML)
	assert.Equal(t, "bold words", got.Text)
}

func TestRenderBadJSON(t *testing.T) {
	srv := newTestServer(t, &recordingRenderer{}, nil)
	resp := postJSON(t, srv.URL+"/v1/render", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenderEndToEnd(t *testing.T) {
	r, err := quotecard.New(quotecard.Options{Scale: 0.25, Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	srv := newTestServer(t, r, nil)

	resp := postJSON(t, srv.URL+"/v1/render", `{"id":"e2e","text":"hello","settingsOverride":{"themeId":"noir","exportFormat":"jpeg"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res quotecard.RenderResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success, res.ErrorMessage)
	assert.True(t, strings.HasPrefix(res.DataURL, "data:image/jpeg;base64,"))

	resp = postJSON(t, srv.URL+"/v1/render", `{"id":"e2e-2","text":"hello","settingsOverride":{"themeId":"missing"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = quotecard.RenderResult{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Success)
	assert.Equal(t, "Theme 'missing' not found", res.ErrorMessage)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, quietLogger())
	t.Cleanup(rl.Stop)
	srv := newTestServer(t, &recordingRenderer{}, rl)

	body := `{"text":"x"}`
	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/v1/render", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := postJSON(t, srv.URL+"/v1/render", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is not rate limited")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &recordingRenderer{}, nil)
	_ = postJSON(t, srv.URL+"/v1/render", `{"text":"x"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), `quotecard_http_status_total{status_code="200"}`)
}

func TestRateLimiterEvicts(t *testing.T) {
	rl := NewRateLimiter(1, 1, quietLogger())
	t.Cleanup(rl.Stop)
	rl.limiter("1.2.3.4")
	rl.evict(rl.clients["1.2.3.4"].lastAccess.Add(rl.cleanup*2 + 1))
	assert.Empty(t, rl.clients)
}
