package models

import "time"

// Decision classifies a scored match. Exactly one per match per cycle.
type Decision int

const (
	DecisionIgnore Decision = iota
	DecisionMonitor
	DecisionEnter
)

func (d Decision) String() string {
	switch d {
	case DecisionEnter:
		return "enter"
	case DecisionMonitor:
		return "monitor"
	default:
		return "ignore"
	}
}

// ParseDecision maps a stored decision string back to its variant.
// Unknown values fall back to ignore.
func ParseDecision(s string) Decision {
	switch s {
	case "enter":
		return DecisionEnter
	case "monitor":
		return DecisionMonitor
	default:
		return DecisionIgnore
	}
}

// ScoredMatch is a match plus its derived EV score and decision. Created once
// per cycle and superseded, never merged, by the next cycle's record.
type ScoredMatch struct {
	Match

	EVScore  int      `json:"ev_score"`
	Decision Decision `json:"decision"`

	ScoredAt time.Time `json:"scored_at"`
}
