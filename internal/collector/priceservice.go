package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"StockPulse/internal/model"
)

// PriceServiceFetcher implements Fetcher against a self-hosted price service
// that serves daily bars as JSON.
type PriceServiceFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewPriceServiceFetcher creates a new fetcher with optional proxy support.
// perSecond <= 0 disables throttling.
func NewPriceServiceFetcher(baseURL, apiKey, proxyURL string, perSecond int) *PriceServiceFetcher {
	f := &PriceServiceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
	if perSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return f
}

func (f *PriceServiceFetcher) Name() string { return "priceservice" }

// priceBar is the expected JSON shape from the price service.
type priceBar struct {
	Date   string     `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume null.Float `json:"volume"`
}

var priceDateLayouts = []string{model.DateLayout, time.RFC3339, "2006-01-02 15:04:05"}

func parsePriceDate(s string) (time.Time, error) {
	for _, layout := range priceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (f *PriceServiceFetcher) FetchDailyBars(ctx context.Context, providerID string, window model.Window) ([]model.RawBar, error) {
	q := url.Values{}
	q.Set("symbol", providerID)
	if window.IsPeriod() {
		q.Set("range", window.Period)
	} else {
		q.Set("limit", fmt.Sprint(window.Days))
	}
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("price service rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows []priceBar
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("price service %s: %w", providerID, ErrNoBars)
	}

	bars := make([]model.RawBar, 0, len(rows))
	for _, r := range rows {
		d, err := parsePriceDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode bars: %w", err)
		}
		bars = append(bars, model.RawBar{
			Date:   d,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
