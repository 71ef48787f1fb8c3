package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPulse/internal/analytics"
	"StockPulse/internal/catalog"
	"StockPulse/internal/collector"
	"StockPulse/internal/enricher"
	"StockPulse/internal/model"
	"StockPulse/internal/series"
	"StockPulse/internal/store"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *collector.MockFetcher) {
	t.Helper()
	now := time.Now()
	mock := &collector.MockFetcher{Bars: map[string][]model.RawBar{
		"TCS.NS":  collector.GenerateMockBars(3500, 252, now),
		"INFY.NS": collector.GenerateMockBars(1500, 252, now),
	}}
	cat := catalog.Default()
	seriesSvc := series.NewService(cat, collector.NewCollector(mock, cat), enricher.New(), store.NewMemoryStore(), series.Options{})
	srv := httptest.NewServer(NewServer(seriesSvc, analytics.NewService(seriesSvc), opts).Routes())
	t.Cleanup(srv.Close)
	return srv, mock
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealthAndRoot(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	var health map[string]string
	resp := getJSON(t, srv.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var root map[string]any
	resp = getJSON(t, srv.URL+"/", &root)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, root, "endpoints")
}

func TestCompanies(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	var body companiesResponse
	resp := getJSON(t, srv.URL+"/api/companies", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, body.Count)
	assert.Contains(t, body.Symbols, "TCS")
}

func TestSeries_FreshThenCache(t *testing.T) {
	srv, mock := newTestServer(t, Options{})

	var first struct {
		Status string              `json:"status"`
		Days   int                 `json:"days"`
		Data   []model.EnrichedBar `json:"data"`
	}
	resp := getJSON(t, srv.URL+"/api/data/tcs?days=5", &first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fresh", resp.Header.Get("X-Data-Source"))
	assert.Equal(t, "success", first.Status)
	require.Len(t, first.Data, 5)
	assert.Equal(t, 5, first.Days)
	for i := 1; i < len(first.Data); i++ {
		assert.True(t, first.Data[i-1].Date.Before(first.Data[i].Date))
	}

	resp = getJSON(t, srv.URL+"/api/data/TCS?days=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cache", resp.Header.Get("X-Data-Source"))
	assert.Len(t, mock.Calls(), 1)
}

func TestSeries_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Options{MaxDays: 365})

	tests := []struct {
		path   string
		status int
		detail string
	}{
		{"/api/data/TCS?days=0", http.StatusBadRequest, "between 1 and 365"},
		{"/api/data/TCS?days=366", http.StatusBadRequest, "between 1 and 365"},
		{"/api/data/TCS?days=abc", http.StatusBadRequest, "between 1 and 365"},
		{"/api/data/NOPE", http.StatusNotFound, "Available companies"},
		{"/api/data/WIPRO?days=5", http.StatusNotFound, "no data available"},
		{"/api/summary/NOPE", http.StatusNotFound, "unknown symbol"},
		{"/api/compare?symbol1=TCS", http.StatusBadRequest, "required"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body errorResponse
			resp := getJSON(t, srv.URL+tt.path, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "error", body.Status)
			assert.Contains(t, body.Detail, tt.detail)
		})
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	resp := getJSON(t, srv.URL+"/api/summary/TCS", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "summary reads storage only")

	getJSON(t, srv.URL+"/api/data/TCS?days=30", nil)

	var body summaryResponse
	resp = getJSON(t, srv.URL+"/api/summary/TCS", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TCS", body.Symbol)
	assert.Equal(t, 252, body.Summary.TotalRecords)
	assert.GreaterOrEqual(t, body.Summary.High52w, body.Summary.Low52w)
}

func TestCompare(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	var body compareResponse
	resp := getJSON(t, srv.URL+"/api/compare?symbol1=tcs&symbol2=INFY", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TCS", body.Comparison.Symbol1)
	assert.Equal(t, "INFY", body.Comparison.Symbol2)
	assert.InDelta(t, 1.0, body.Comparison.Correlation, 1e-9)
	assert.Equal(t, "Strong positive", body.Comparison.Insights.CorrelationInterpretation)

	resp = getJSON(t, srv.URL+"/api/compare?symbol1=TCS&symbol2=NOPE", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/companies", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "GET")
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowAll(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowAllOrigins: true})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://anywhere.example")
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Expose-Headers"), "X-Data-Source"))
}
