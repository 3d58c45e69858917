package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rmaia-dev/evradar/internal/models"
)

const userAgent = "EVRadarBot/1.0"

// HTTPFetcher pulls live match snapshots from a JSON feed endpoint.
type HTTPFetcher struct {
	feedURL        string
	limit          int
	filter         Filter
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// feedMatch is the wire shape of one match in the upstream feed. Numeric
// fields arrive as strings in some feed versions, so minute is kept raw.
type feedMatch struct {
	ID        string  `json:"id"`
	League    string  `json:"league"`
	Home      string  `json:"home"`
	Away      string  `json:"away"`
	Score     string  `json:"score"`
	Minute    string  `json:"minute"`
	URL       string  `json:"url"`
	XGTotal   float64 `json:"xg_total"`
	SOT       int     `json:"sot"`
	Pressure  float64 `json:"pressure"`
	OddsOver  string  `json:"odds_over25"`
	Liquidity float64 `json:"liquidity"`
}

// NewHTTPFetcher creates a fetcher against feedURL with the given per-request
// timeout and retry policy.
func NewHTTPFetcher(feedURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration, limit int, filter Filter) *HTTPFetcher {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &HTTPFetcher{
		feedURL:        feedURL,
		limit:          limit,
		filter:         filter,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Fetch retrieves the current live matches, applying the league and minute
// filters and the configured limit.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]models.Match, error) {
	u, err := url.Parse(f.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed URL: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(f.limit))
	u.RawQuery = q.Encode()

	resp, err := f.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches: %w", err)
	}
	defer resp.Body.Close()

	var raw []feedMatch
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}

	now := time.Now()
	matches := make([]models.Match, 0, len(raw))
	for _, fm := range raw {
		if fm.Home == "" || fm.Away == "" {
			continue
		}
		m := models.Match{
			ID:         fm.ID,
			League:     fm.League,
			Home:       fm.Home,
			Away:       fm.Away,
			Score:      fm.Score,
			Minute:     ParseMinute(fm.Minute),
			URL:        fm.URL,
			XGTotal:    fm.XGTotal,
			SOT:        fm.SOT,
			Pressure:   fm.Pressure,
			OddsOver25: parseOdds(fm.OddsOver),
			Liquidity:  fm.Liquidity,
			FetchedAt:  now,
		}
		if m.ID == "" {
			m.ID = models.Identity(m.Home, m.Away)
		}
		if !f.filter.Keep(m) {
			continue
		}
		matches = append(matches, m)
		if len(matches) >= f.limit {
			break
		}
	}
	return matches, nil
}

// doRequest performs a GET with linear-backoff retry on transport errors and
// 5xx responses.
func (f *HTTPFetcher) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < f.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(f.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(f.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ParseMinute extracts the elapsed minute from indicators like "72'", "45+2"
// or "HT". Anything without digits parses as 0.
func ParseMinute(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			break // stop at the first non-digit after digits ("45+2" -> 45)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// parseOdds parses a decimal quote, accepting comma decimal separators.
// Missing or malformed quotes parse as 0, which can never pass the odds
// floor.
func parseOdds(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 1.0 {
		return 0
	}
	return v
}
