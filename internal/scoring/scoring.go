// Package scoring computes the bounded EV score for a match snapshot.
package scoring

import (
	"math"

	"github.com/rmaia-dev/evradar/internal/models"
)

// Sub-score weights and normalization caps. Each signal is capped before
// weighting so one runaway input cannot dominate the bounded output.
const (
	pressureWeight  = 20.0
	xgWeight        = 30.0
	xgCap           = 3.0
	sotWeight       = 20.0
	sotCap          = 10.0
	liquidityWeight = 10.0
	liquidityCap    = 3_000_000.0

	maxScore = 100
)

// Default baseline contributions for unmodeled context. The floor keeps a
// zero-signal match distinguishable from an actively bad one.
const (
	DefaultBaselineContext = 6.0
	DefaultBaselineForm    = 4.0
)

// Scorer maps a match to an integer EV score in [0,100]. Pure and total:
// out-of-range inputs are clamped, never rejected.
type Scorer struct {
	baselineContext float64
	baselineForm    float64
}

// New creates a scorer with the given baseline tunables. Negative baselines
// are treated as zero.
func New(baselineContext, baselineForm float64) *Scorer {
	return &Scorer{
		baselineContext: math.Max(0, baselineContext),
		baselineForm:    math.Max(0, baselineForm),
	}
}

// NewDefault creates a scorer with the default baselines.
func NewDefault() *Scorer {
	return New(DefaultBaselineContext, DefaultBaselineForm)
}

// Score computes the EV score for m.
func (s *Scorer) Score(m models.Match) int {
	pressure := clamp(m.Pressure, 0, 100)
	sum := (pressure / 100) * pressureWeight
	sum += capped(m.XGTotal, xgCap) * xgWeight
	sum += capped(float64(m.SOT), sotCap) * sotWeight
	sum += capped(m.Liquidity, liquidityCap) * liquidityWeight
	sum += s.baselineContext + s.baselineForm

	return int(math.Round(clamp(sum, 0, maxScore)))
}

// capped normalizes v against limit into [0,1]. Negative inputs count as zero.
func capped(v, limit float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Min(v/limit, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
