// Package radar turns raw match snapshots into a ranked, deduplicated set of
// alert candidates: score, decide, rank, filter already-alerted identities.
package radar

import (
	"sort"
	"time"

	"github.com/rmaia-dev/evradar/internal/logger"
	"github.com/rmaia-dev/evradar/internal/models"
	"github.com/rmaia-dev/evradar/internal/scoring"
)

type Config struct {
	EnterThreshold   int
	DisplayThreshold int
	OddsFloor        float64
	MaxGames         int
	BaselineContext  float64
	BaselineForm     float64
}

func DefaultConfig() Config {
	return Config{
		EnterThreshold:   65,
		DisplayThreshold: 55,
		OddsFloor:        1.50,
		MaxGames:         10,
		BaselineContext:  scoring.DefaultBaselineContext,
		BaselineForm:     scoring.DefaultBaselineForm,
	}
}

type Radar struct {
	scorer *scoring.Scorer
	ledger *Ledger
	config Config
}

func New(ledger *Ledger, config Config) *Radar {
	return &Radar{
		scorer: scoring.New(config.BaselineContext, config.BaselineForm),
		ledger: ledger,
		config: config,
	}
}

// Ledger exposes the dedup ledger owned by this radar.
func (r *Radar) Ledger() *Ledger {
	return r.ledger
}

// Decide maps a score and an over 2.5 quote to a decision. A missing quote
// (odds 0) fails the floor test, so such matches can never reach enter.
func (r *Radar) Decide(score int, odds float64) models.Decision {
	switch {
	case score >= r.config.EnterThreshold && odds >= r.config.OddsFloor:
		return models.DecisionEnter
	case score >= r.config.DisplayThreshold:
		return models.DecisionMonitor
	default:
		return models.DecisionIgnore
	}
}

// Evaluate scores and decides every match of the current cycle.
func (r *Radar) Evaluate(matches []models.Match) []models.ScoredMatch {
	now := time.Now()
	scored := make([]models.ScoredMatch, 0, len(matches))
	for _, m := range matches {
		score := r.scorer.Score(m)
		decision := r.Decide(score, m.OddsOver25)
		if decision != models.DecisionIgnore {
			logger.Debug("Scored %s vs %s: ev=%d decision=%s odds=%.2f xg=%.2f sot=%d pressure=%.0f liq=%.0f",
				m.Home, m.Away, score, decision, m.OddsOver25, m.XGTotal, m.SOT, m.Pressure, m.Liquidity)
		}
		scored = append(scored, models.ScoredMatch{
			Match:    m,
			EVScore:  score,
			Decision: decision,
			ScoredAt: now,
		})
	}
	return scored
}

// Rank selects the displayable subset of the cycle's scored matches, sorted
// descending by (score, liquidity) and truncated to MaxGames. The sort is
// stable, so equal (score, liquidity) pairs keep their input order.
func (r *Radar) Rank(scored []models.ScoredMatch) []models.ScoredMatch {
	ranked := make([]models.ScoredMatch, 0, len(scored))
	for _, sm := range scored {
		if sm.Decision == models.DecisionIgnore {
			continue
		}
		if sm.EVScore < r.config.DisplayThreshold || sm.OddsOver25 < r.config.OddsFloor {
			continue
		}
		ranked = append(ranked, sm)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].EVScore != ranked[j].EVScore {
			return ranked[i].EVScore > ranked[j].EVScore
		}
		return ranked[i].Liquidity > ranked[j].Liquidity
	})

	if len(ranked) > r.config.MaxGames {
		ranked = ranked[:r.config.MaxGames]
	}
	return ranked
}

// FilterAlerted drops ranked matches whose identity has already produced a
// terminal alert.
func (r *Radar) FilterAlerted(ranked []models.ScoredMatch) []models.ScoredMatch {
	var fresh []models.ScoredMatch
	for _, sm := range ranked {
		if r.ledger.ShouldAlert(sm.ID) {
			fresh = append(fresh, sm)
		}
	}
	return fresh
}

// RecordNotified commits enter identities to the ledger. Called after the
// notification attempt; delivery failure does not roll the entries back.
func (r *Radar) RecordNotified(notified []models.ScoredMatch) []string {
	var ids []string
	for _, sm := range notified {
		if sm.Decision != models.DecisionEnter {
			continue
		}
		r.ledger.Record(sm.ID)
		ids = append(ids, sm.ID)
	}
	return ids
}
