package feed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/rmaia-dev/evradar/internal/models"
)

// DemoFetcher generates synthetic live matches for local runs without any
// upstream feed. The generator is seeded once, so repeated runs with the
// same seed produce the same sequence of cycles.
type DemoFetcher struct {
	rng    *rand.Rand
	filter Filter
	limit  int
}

var demoFixtures = []struct {
	league, home, away string
}{
	{"Premier League", "Arsenal", "Spurs"},
	{"La Liga", "Sevilla", "Betis"},
	{"Serie A", "Torino", "Genoa"},
	{"Bundesliga", "Mainz", "Augsburg"},
	{"Ligue 1", "Nantes", "Brest"},
	{"Brazil Serie A", "Bahia", "Fortaleza"},
	{"Championship", "Leeds", "Millwall"},
	{"Serie B", "Avellino", "Bari"},
}

// NewDemoFetcher creates a demo fetcher with a deterministic seed.
func NewDemoFetcher(seed int64, limit int, filter Filter) *DemoFetcher {
	return &DemoFetcher{
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // synthetic data only
		filter: filter,
		limit:  limit,
	}
}

// Fetch synthesizes one cycle of matches. It never fails.
func (f *DemoFetcher) Fetch(_ context.Context) ([]models.Match, error) {
	now := time.Now()
	matches := make([]models.Match, 0, len(demoFixtures))
	for _, fx := range demoFixtures {
		minute := 40 + f.rng.Intn(50)
		goals := f.rng.Intn(3)
		m := models.Match{
			ID:         models.Identity(fx.home, fx.away),
			League:     fx.league,
			Home:       fx.home,
			Away:       fx.away,
			Score:      fmt.Sprintf("%d–%d", goals, f.rng.Intn(3)),
			Minute:     minute,
			URL:        fmt.Sprintf("https://example.com/match/%s", uuid.New().String()),
			XGTotal:    f.rng.Float64() * 4,
			SOT:        f.rng.Intn(14),
			Pressure:   f.rng.Float64() * 100,
			OddsOver25: 1.2 + f.rng.Float64(),
			Liquidity:  f.rng.Float64() * 4_000_000,
			FetchedAt:  now,
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
