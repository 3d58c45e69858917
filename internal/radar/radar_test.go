package radar

import (
	"testing"

	"github.com/rmaia-dev/evradar/internal/models"
)

func newTestRadar() *Radar {
	return New(NewLedger(nil), DefaultConfig())
}

func TestDecide(t *testing.T) {
	r := newTestRadar()

	tests := []struct {
		name  string
		score int
		odds  float64
		want  models.Decision
	}{
		{"above enter with odds above floor", 72, 1.60, models.DecisionEnter},
		{"between thresholds", 60, 1.60, models.DecisionMonitor},
		{"below display regardless of odds", 40, 5.00, models.DecisionIgnore},
		{"enter score but odds below floor", 72, 1.40, models.DecisionMonitor},
		{"enter score with missing odds", 72, 0, models.DecisionMonitor},
		{"exactly at enter threshold", 65, 1.50, models.DecisionEnter},
		{"exactly at display threshold", 55, 1.60, models.DecisionMonitor},
		{"one below display", 54, 1.60, models.DecisionIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Decide(tt.score, tt.odds); got != tt.want {
				t.Errorf("Decide(%d, %.2f) = %s, want %s", tt.score, tt.odds, got, tt.want)
			}
		})
	}
}

// Increasing score at fixed odds must never demote a decision.
func TestDecideMonotonic(t *testing.T) {
	r := newTestRadar()

	for _, odds := range []float64{0, 1.40, 1.50, 2.10} {
		prev := models.DecisionIgnore
		for score := 0; score <= 100; score++ {
			got := r.Decide(score, odds)
			if got < prev {
				t.Fatalf("Decide(%d, %.2f) = %s demoted from %s", score, odds, got, prev)
			}
			prev = got
		}
	}
}

func TestDecideIdempotent(t *testing.T) {
	r := newTestRadar()
	first := r.Decide(72, 1.60)
	for i := 0; i < 5; i++ {
		if got := r.Decide(72, 1.60); got != first {
			t.Fatalf("Decide() not idempotent: got %s then %s", first, got)
		}
	}
}

func scoredWith(id string, score int, odds, liquidity float64, d models.Decision) models.ScoredMatch {
	return models.ScoredMatch{
		Match: models.Match{
			ID:         id,
			Home:       id,
			Away:       "opp",
			OddsOver25: odds,
			Liquidity:  liquidity,
		},
		EVScore:  score,
		Decision: d,
	}
}

func TestRankOrderAndTieBreak(t *testing.T) {
	r := newTestRadar()

	scored := []models.ScoredMatch{
		scoredWith("a", 90, 1.60, 100, models.DecisionEnter),
		scoredWith("b", 90, 1.60, 200, models.DecisionEnter),
		scoredWith("c", 70, 1.60, 500, models.DecisionMonitor),
	}

	ranked := r.Rank(scored)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked matches, got %d", len(ranked))
	}
	wantOrder := []string{"b", "a", "c"} // liquidity breaks the 90/90 tie
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Errorf("rank %d = %s, want %s", i, ranked[i].ID, want)
		}
	}

	// Re-ranking the same input must give the same order.
	again := r.Rank(scored)
	for i := range ranked {
		if again[i].ID != ranked[i].ID {
			t.Errorf("rank unstable across calls at position %d: %s vs %s", i, again[i].ID, ranked[i].ID)
		}
	}
}

func TestRankFilters(t *testing.T) {
	r := newTestRadar()

	scored := []models.ScoredMatch{
		scoredWith("ignored", 40, 1.60, 100, models.DecisionIgnore),
		scoredWith("below-display", 50, 1.60, 100, models.DecisionMonitor),
		scoredWith("below-floor", 80, 1.20, 100, models.DecisionMonitor),
		scoredWith("no-odds", 80, 0, 100, models.DecisionMonitor),
		scoredWith("keeper", 80, 1.60, 100, models.DecisionEnter),
	}

	ranked := r.Rank(scored)
	if len(ranked) != 1 || ranked[0].ID != "keeper" {
		t.Fatalf("expected only 'keeper' to survive, got %v", ids(ranked))
	}
}

func TestRankTruncates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxGames = 2
	r := New(NewLedger(nil), cfg)

	scored := []models.ScoredMatch{
		scoredWith("a", 90, 1.60, 0, models.DecisionEnter),
		scoredWith("b", 80, 1.60, 0, models.DecisionEnter),
		scoredWith("c", 70, 1.60, 0, models.DecisionMonitor),
	}
	ranked := r.Rank(scored)
	if len(ranked) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(ranked))
	}
	if ranked[0].ID != "a" || ranked[1].ID != "b" {
		t.Errorf("unexpected order after truncation: %v", ids(ranked))
	}
}

func TestFilterAlertedAndRecord(t *testing.T) {
	r := newTestRadar()

	enter := scoredWith("arsenal-spurs", 80, 1.60, 0, models.DecisionEnter)
	monitor := scoredWith("mainz-augsburg", 60, 1.60, 0, models.DecisionMonitor)

	fresh := r.FilterAlerted([]models.ScoredMatch{enter, monitor})
	if len(fresh) != 2 {
		t.Fatalf("expected 2 fresh matches, got %d", len(fresh))
	}

	recorded := r.RecordNotified(fresh)
	if len(recorded) != 1 || recorded[0] != "arsenal-spurs" {
		t.Fatalf("expected only the enter identity recorded, got %v", recorded)
	}

	// Enter identity is now filtered; the monitor match stays visible.
	fresh = r.FilterAlerted([]models.ScoredMatch{enter, monitor})
	if len(fresh) != 1 || fresh[0].ID != "mainz-augsburg" {
		t.Fatalf("expected only the monitor match after recording, got %v", ids(fresh))
	}
}

// A match that stays enter-worthy over many cycles alerts exactly once.
func TestDedupAcrossCycles(t *testing.T) {
	r := newTestRadar()

	match := models.Match{
		ID:         "bahia-fortaleza",
		Home:       "Bahia",
		Away:       "Fortaleza",
		XGTotal:    3.0,
		SOT:        10,
		Pressure:   100,
		Liquidity:  3_000_000,
		OddsOver25: 1.80,
	}

	alerts := 0
	for cycle := 0; cycle < 20; cycle++ {
		scored := r.Evaluate([]models.Match{match})
		fresh := r.FilterAlerted(r.Rank(scored))
		if len(fresh) > 0 {
			alerts++
			r.RecordNotified(fresh)
		}
	}

	if alerts != 1 {
		t.Errorf("expected exactly 1 alert across 20 cycles, got %d", alerts)
	}
	if r.Ledger().Size() != 1 {
		t.Errorf("expected ledger size 1, got %d", r.Ledger().Size())
	}
}

func TestEvaluateScoresAll(t *testing.T) {
	r := newTestRadar()

	matches := []models.Match{
		{ID: "hot", Home: "A", Away: "B", XGTotal: 3, SOT: 10, Pressure: 100, Liquidity: 3_000_000, OddsOver25: 1.8},
		{ID: "cold", Home: "C", Away: "D"},
	}
	scored := r.Evaluate(matches)
	if len(scored) != 2 {
		t.Fatalf("expected every match scored, got %d", len(scored))
	}
	if scored[0].Decision != models.DecisionEnter {
		t.Errorf("hot match decision = %s, want enter", scored[0].Decision)
	}
	if scored[1].Decision != models.DecisionIgnore {
		t.Errorf("cold match decision = %s, want ignore", scored[1].Decision)
	}
	if scored[1].EVScore != 10 {
		t.Errorf("cold match score = %d, want baseline 10", scored[1].EVScore)
	}
}

func ids(matches []models.ScoredMatch) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}
	return out
}
