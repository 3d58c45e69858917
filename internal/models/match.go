// Package models defines the core domain entities: live matches, scored
// matches, and decisions.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Match is one cycle's snapshot of a live match's observable signals.
// It is built fresh by the fetcher every cycle and never mutated afterwards.
// Identity derives from team names only, so recurring fixtures with the same
// pairing collide across dates. Known weakness, kept for upstream parity.
type Match struct {
	ID     string `json:"id"`
	League string `json:"league"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Score  string `json:"score"`
	Minute int    `json:"minute"`
	URL    string `json:"url"`

	XGTotal    float64 `json:"xg_total"`
	SOT        int     `json:"sot"`
	Pressure   float64 `json:"pressure"`
	OddsOver25 float64 `json:"odds_over25"` // 0 = no quote available
	Liquidity  float64 `json:"liquidity"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Identity builds the dedup key for a home/away pairing.
func Identity(home, away string) string {
	slug := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return fmt.Sprintf("%s-%s", slug(home), slug(away))
}

// Validate checks match field constraints.
func (m *Match) Validate() error {
	if m.ID == "" {
		return errors.New("match ID must not be empty")
	}
	if m.Home == "" || m.Away == "" {
		return errors.New("home and away team names must not be empty")
	}
	if m.Minute < 0 {
		return errors.New("minute must not be negative")
	}
	if m.XGTotal < 0 {
		return errors.New("xg_total must not be negative")
	}
	if m.SOT < 0 {
		return errors.New("sot must not be negative")
	}
	if m.Pressure < 0 || m.Pressure > 100 {
		return errors.New("pressure must be between 0 and 100")
	}
	if m.OddsOver25 != 0 && m.OddsOver25 < 1.0 {
		return errors.New("odds_over25 must be at least 1.0 when present")
	}
	if m.Liquidity < 0 {
		return errors.New("liquidity must not be negative")
	}
	return nil
}

// HasOdds reports whether a usable over 2.5 quote was found this cycle.
func (m *Match) HasOdds() bool {
	return m.OddsOver25 >= 1.0
}
