package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"StockPulse/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithYahooBaseURL points the fetcher at another host, e.g. a test server.
func WithYahooBaseURL(u string) YahooOption {
	return func(f *YahooFetcher) { f.BaseURL = u }
}

// WithYahooRateLimit caps outbound requests per second.
func WithYahooRateLimit(perSecond int) YahooOption {
	return func(f *YahooFetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithYahooClock overrides the clock used for day-count windows.
func WithYahooClock(now func() time.Time) YahooOption {
	return func(f *YahooFetcher) { f.now = now }
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, opts ...YahooOption) *YahooFetcher {
	f := &YahooFetcher{
		BaseURL: defaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []null.Float `json:"open"`
					High   []null.Float `json:"high"`
					Low    []null.Float `json:"low"`
					Close  []null.Float `json:"close"`
					Volume []null.Float `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) chartURL(providerID string, window model.Window) string {
	q := url.Values{}
	q.Set("interval", "1d")
	if window.IsPeriod() {
		q.Set("range", window.Period)
	} else {
		end := f.now()
		q.Set("period1", fmt.Sprint(end.AddDate(0, 0, -window.Days).Unix()))
		q.Set("period2", fmt.Sprint(end.Unix()))
	}
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(providerID), q.Encode())
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, providerID string, window model.Window) ([]model.RawBar, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("yahoo rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(providerID, window), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error for %s: %s", providerID, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", providerID, ErrNoBars)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	at := func(vals []null.Float, i int) null.Float {
		if i < len(vals) {
			return vals[i]
		}
		return null.Float{}
	}

	bars := make([]model.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.RawBar{
			// Shift to exchange local time so the bar lands on its trading day.
			Date:   model.DateOf(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
