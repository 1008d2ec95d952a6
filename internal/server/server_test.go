package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthscan-ai/truthscan/internal/config"
	"github.com/truthscan-ai/truthscan/internal/inference"
	"github.com/truthscan-ai/truthscan/internal/mockprovider"
	"github.com/truthscan-ai/truthscan/internal/provider"
)

const moonText = "Scientists confirm the moon is made of cheese"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.GinMode = "test"
	cfg.Provider.Model = "gemini-test"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, p provider.Provider) *Server {
	t.Helper()

	s, err := New(context.Background(), cfg, Options{
		Provider: p,
		Now:      func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func sessionFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("expected %s cookie to be set", sessionCookie)
	return nil
}

func postCheck(s *Server, cookie *http.Cookie, text string) *httptest.ResponseRecorder {
	form := url.Values{"text": {text}}
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return do(s, req)
}

func postAnalyze(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, newTestConfig(t), provider.NewFake(mockprovider.DefaultReply))

	rr := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRobots(t *testing.T) {
	s := newTestServer(t, newTestConfig(t), provider.NewFake(mockprovider.DefaultReply))

	rr := do(s, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, robotsTxt, rr.Body.String())
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, newTestConfig(t), provider.NewFake(mockprovider.DefaultReply))

	rr := do(s, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "characters entered")
}

func TestIndexSetsSessionCookie(t *testing.T) {
	s := newTestServer(t, newTestConfig(t), provider.NewFake(mockprovider.DefaultReply))

	rr := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionFrom(t, rr)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	body := rr.Body.String()
	assert.Contains(t, body, "TruthScan")
	assert.Contains(t, body, "Check Authenticity")
	assert.Contains(t, body, "&copy; 2026 TruthScan AI")
	assert.NotContains(t, body, `id="result"`)
}

func TestCheckMoonCheese(t *testing.T) {
	fake := provider.NewFake(`{"verdict":"Fake","confidenceScore":97,"analysis":"There is no credible evidence.","keyFindings":["No peer-reviewed evidence","Contradicts established lunar geology"]}`)
	s := newTestServer(t, newTestConfig(t), fake)

	rr := postCheck(s, nil, moonText)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, fake.Calls())

	body := rr.Body.String()
	assert.Contains(t, body, `data-treatment="red"`)
	assert.Contains(t, body, "97%")
	assert.Contains(t, body, "<li>No peer-reviewed evidence</li>")
	assert.Contains(t, body, "<li>Contradicts established lunar geology</li>")
	assert.NotContains(t, body, `id="sources"`)
	assert.Contains(t, body, "45 characters entered")
	assert.NotContains(t, body, `role="alert"`)

	// The outcome stays with the session.
	cookie := sessionFrom(t, rr)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	again := do(s, req)
	assert.Contains(t, again.Body.String(), `data-treatment="red"`)
	assert.Equal(t, 1, fake.Calls())
}

func TestCheckNetworkFailureShowsBanner(t *testing.T) {
	fake := &provider.FakeProvider{Error: &url.Error{Op: "Post", URL: "https://example.invalid", Err: context.DeadlineExceeded}}
	s := newTestServer(t, newTestConfig(t), fake)

	rr := postCheck(s, nil, "anything")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "Failed to analyze the news text. Please try again.")
	assert.NotContains(t, body, `id="result"`)
	assert.NotContains(t, body, "Analyzing...")
}

func TestCheckBlankDoesNothing(t *testing.T) {
	fake := provider.NewFake(mockprovider.DefaultReply)
	s := newTestServer(t, newTestConfig(t), fake)

	rr := postCheck(s, nil, "   \n\t")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, fake.Calls())

	body := rr.Body.String()
	assert.NotContains(t, body, `id="result"`)
	assert.NotContains(t, body, `role="alert"`)
	assert.Contains(t, body, `id="check-button" disabled`)
}

func TestCheckListsWebSourcesInOrder(t *testing.T) {
	fake := provider.NewFake(`{"verdict":"Real","confidenceScore":88,"analysis":"Confirmed.","keyFindings":["Matches official statements"]}`,
		inference.GroundingChunk{Kind: inference.ChunkWeb, Title: "NASA", URI: "https://nasa.gov/moon"},
		inference.GroundingChunk{Kind: inference.ChunkRetrievedContext},
		inference.GroundingChunk{Kind: inference.ChunkWeb, Title: "USGS", URI: "https://usgs.gov/lunar"},
	)
	s := newTestServer(t, newTestConfig(t), fake)

	rr := postCheck(s, nil, "Moon landing confirmed")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Equal(t, 2, strings.Count(body, `class="source-card"`))
	nasa := strings.Index(body, "https://nasa.gov/moon")
	usgs := strings.Index(body, "https://usgs.gov/lunar")
	require.NotEqual(t, -1, nasa)
	require.NotEqual(t, -1, usgs)
	assert.Less(t, nasa, usgs)
	assert.Contains(t, body, `data-treatment="green"`)
}

type blockingProvider struct {
	started chan struct{}
	release chan struct{}
	reply   string
}

func (b *blockingProvider) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	b.started <- struct{}{}
	<-b.release
	return &inference.Response{Text: b.reply}, nil
}

func TestCheckWhileInFlightReturnsConflict(t *testing.T) {
	bp := &blockingProvider{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		reply:   mockprovider.DefaultReply,
	}
	s := newTestServer(t, newTestConfig(t), bp)

	cookie := sessionFrom(t, do(s, httptest.NewRequest(http.MethodGet, "/", nil)))

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- postCheck(s, cookie, "first") }()

	select {
	case <-bp.started:
	case <-time.After(2 * time.Second):
		t.Fatal("analysis never started")
	}

	rr := postCheck(s, cookie, "second")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "Analyzing...")
	assert.Contains(t, rr.Body.String(), ">first</textarea>")

	close(bp.release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `data-treatment="red"`)
}

func TestAnalyzeAPI(t *testing.T) {
	fake := provider.NewFake(mockprovider.DefaultReply,
		inference.GroundingChunk{Kind: inference.ChunkWeb, Title: "NASA", URI: "https://nasa.gov/moon"})
	s := newTestServer(t, newTestConfig(t), fake)

	rr := postAnalyze(s, `{"text":"`+moonText+`"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Verdict         string   `json:"verdict"`
		ConfidenceScore float64  `json:"confidenceScore"`
		KeyFindings     []string `json:"keyFindings"`
		Sources         []struct {
			Title string `json:"title"`
			URI   string `json:"uri"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Fake", got.Verdict)
	assert.Equal(t, float64(97), got.ConfidenceScore)
	assert.Len(t, got.KeyFindings, 2)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "https://nasa.gov/moon", got.Sources[0].URI)
}

func TestAnalyzeAPIRejectsBadInput(t *testing.T) {
	fake := provider.NewFake(mockprovider.DefaultReply)
	s := newTestServer(t, newTestConfig(t), fake)

	for _, body := range []string{`{"text":"  "}`, `{}`, `not json`} {
		rr := postAnalyze(s, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Contains(t, rr.Body.String(), `"error"`, body)
	}
	assert.Zero(t, fake.Calls())
}

func TestAnalyzeAPIFailures(t *testing.T) {
	cases := []struct {
		name    string
		prov    provider.Provider
		kind    string
		message string
	}{
		{
			name:    "provider error",
			prov:    &provider.FakeProvider{Error: context.DeadlineExceeded},
			kind:    "analysis_failed",
			message: "Failed to analyze the news text. Please try again.",
		},
		{
			name:    "malformed reply",
			prov:    provider.NewFake(`{"verdict":"Maybe"}`),
			kind:    "malformed_response",
			message: "The analysis service returned an unexpected response. Please try again.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, newTestConfig(t), tc.prov)

			rr := postAnalyze(s, `{"text":"x"}`)
			require.Equal(t, http.StatusBadGateway, rr.Code)

			var got errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.message, got.Error)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxRequestBodyBytes = 32
	fake := provider.NewFake(mockprovider.DefaultReply)
	s := newTestServer(t, cfg, fake)

	long := strings.Repeat("a", 256)
	assert.Equal(t, http.StatusRequestEntityTooLarge, postAnalyze(s, `{"text":"`+long+`"}`).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, postCheck(s, nil, long).Code)
	assert.Zero(t, fake.Calls())
}

func TestCORSPreflight(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.CORSAllowedOrigins = []string{"https://app.example.com"}
	s := newTestServer(t, cfg, provider.NewFake(mockprovider.DefaultReply))

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := do(s, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabledByDefault(t *testing.T) {
	s := newTestServer(t, newTestConfig(t), provider.NewFake(mockprovider.DefaultReply))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.com")
	rr := do(s, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndToEndThroughMockGemini(t *testing.T) {
	shutdown, baseURL, err := mockprovider.StartMockProvider("127.0.0.1:0", mockprovider.Options{
		Sources: []mockprovider.Source{
			{Title: "NASA", URI: "https://nasa.gov/moon"},
			{Title: "USGS", URI: "https://usgs.gov/lunar"},
		},
		RetrievedChunks: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	cfg := newTestConfig(t)
	cfg.Provider.Type = "gemini"
	cfg.Provider.BaseURL = baseURL
	cfg.Provider.APIKeyEnv = "TRUTHSCAN_TEST_KEY"
	t.Setenv("TRUTHSCAN_TEST_KEY", "test-key")

	s := newTestServer(t, cfg, nil)

	rr := postCheck(s, nil, moonText)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `data-treatment="red"`)
	assert.Contains(t, body, "97%")
	assert.Equal(t, 2, strings.Count(body, `class="source-card"`))
}

func TestMissingKeyServesPageAndFailsAnalysis(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Provider.Type = "gemini"
	cfg.Provider.APIKeyEnv = "TRUTHSCAN_TEST_MISSING_KEY"
	cfg.Provider.APIKey = ""
	t.Setenv("TRUTHSCAN_TEST_MISSING_KEY", "")

	s := newTestServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	rr := postCheck(s, nil, moonText)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to analyze the news text. Please try again.")
}
