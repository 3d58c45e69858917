// Package feed supplies live match snapshots to the radar pipeline.
package feed

import (
	"context"
	"strings"

	"github.com/rmaia-dev/evradar/internal/models"
)

// Fetcher produces the current cycle's match snapshots. Implementations may
// fail; failures skip the cycle and are never fatal to the scheduler.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.Match, error)
}

// Filter holds the pre-scoring eligibility rules: monitored leagues and the
// in-play minute window of interest.
type Filter struct {
	Leagues   []string
	MinuteMin int
	MinuteMax int
}

// Keep reports whether m passes the league and minute filters. An empty
// league list admits every league.
func (f Filter) Keep(m models.Match) bool {
	if m.Minute < f.MinuteMin || m.Minute > f.MinuteMax {
		return false
	}
	if len(f.Leagues) == 0 {
		return true
	}
	league := strings.ToLower(m.League)
	for _, want := range f.Leagues {
		if strings.Contains(league, strings.ToLower(strings.TrimSpace(want))) {
			return true
		}
	}
	return false
}

// Apply returns the subset of matches passing the filter, preserving order.
func (f Filter) Apply(matches []models.Match) []models.Match {
	kept := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if f.Keep(m) {
			kept = append(kept, m)
		}
	}
	return kept
}
