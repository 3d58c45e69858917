package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rmaia-dev/evradar/internal/health"
	"github.com/rmaia-dev/evradar/internal/models"
	"github.com/rmaia-dev/evradar/internal/radar"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context) ([]models.Match, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]models.Match, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fetchFn(ctx)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu         sync.Mutex
	sent       []string
	errorSends int
	recoveries []int
	sendErr    error
}

func (n *fakeNotifier) Send(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return n.sendErr
}

func (n *fakeNotifier) SendError(error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errorSends++
	return nil
}

func (n *fakeNotifier) SendRecovery(count int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recoveries = append(n.recoveries, count)
	return nil
}

func (n *fakeNotifier) sendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeExporter struct {
	batches [][]models.ScoredMatch
}

func (e *fakeExporter) Export(scored []models.ScoredMatch) error {
	e.batches = append(e.batches, scored)
	return nil
}

type fakeStore struct {
	saved  [][]models.ScoredMatch
	alerts []string
}

func (s *fakeStore) SaveScored(scored []models.ScoredMatch) error {
	s.saved = append(s.saved, scored)
	return nil
}

func (s *fakeStore) RecordAlert(sm models.ScoredMatch) error {
	s.alerts = append(s.alerts, sm.ID)
	return nil
}

func hotMatch(id string) models.Match {
	return models.Match{
		ID:         id,
		League:     "Premier League",
		Home:       "Arsenal",
		Away:       "Spurs",
		Minute:     72,
		XGTotal:    3.0,
		SOT:        10,
		Pressure:   100,
		OddsOver25: 1.80,
		Liquidity:  3_000_000,
	}
}

func coldMatch(id string) models.Match {
	return models.Match{ID: id, Home: "Nantes", Away: "Brest", Minute: 50}
}

func newScheduler(fetcher *fakeFetcher, notifier Notifier, exporter Exporter, store Store) *Scheduler {
	r := radar.New(radar.NewLedger(nil), radar.DefaultConfig())
	return New(fetcher, r, store, exporter, notifier, nil, time.Minute)
}

func TestCycleHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return []models.Match{hotMatch("arsenal-spurs"), coldMatch("nantes-brest")}, nil
	}}
	notifier := &fakeNotifier{}
	exporter := &fakeExporter{}
	store := &fakeStore{}
	s := newScheduler(fetcher, notifier, exporter, store)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if got := notifier.sendCount(); got != 1 {
		t.Fatalf("expected 1 digest, got %d", got)
	}
	if !strings.Contains(notifier.sent[0], "Arsenal") {
		t.Errorf("digest missing match: %s", notifier.sent[0])
	}
	if len(exporter.batches) != 1 || len(exporter.batches[0]) != 2 {
		t.Errorf("exporter should receive all scored records, got %v", exporter.batches)
	}
	if len(store.saved) != 1 || len(store.saved[0]) != 2 {
		t.Errorf("store should receive all scored records")
	}
	if len(store.alerts) != 1 || store.alerts[0] != "arsenal-spurs" {
		t.Errorf("store alerts = %v, want [arsenal-spurs]", store.alerts)
	}
}

// Zero qualifying records: the notifier is never invoked, the exporter still
// receives every raw record.
func TestEmptyCandidates(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return []models.Match{coldMatch("a"), coldMatch("b")}, nil
	}}
	notifier := &fakeNotifier{}
	exporter := &fakeExporter{}
	s := newScheduler(fetcher, notifier, exporter, nil)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if got := notifier.sendCount(); got != 0 {
		t.Errorf("notifier must not be invoked with no candidates, got %d sends", got)
	}
	if len(exporter.batches) != 1 || len(exporter.batches[0]) != 2 {
		t.Errorf("exporter should still receive all records")
	}
}

// The same enter-worthy identity across N cycles produces exactly one digest.
func TestDedupAcrossCycles(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return []models.Match{hotMatch("arsenal-spurs")}, nil
	}}
	notifier := &fakeNotifier{}
	s := newScheduler(fetcher, notifier, nil, nil)

	for i := 0; i < 10; i++ {
		if err := s.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}
	if got := notifier.sendCount(); got != 1 {
		t.Errorf("expected exactly 1 digest across 10 cycles, got %d", got)
	}
}

// Delivery failure does not roll back the ledger: one attempt per identity.
func TestNotifyFailureStillCommitsLedger(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return []models.Match{hotMatch("arsenal-spurs")}, nil
	}}
	notifier := &fakeNotifier{sendErr: errors.New("telegram down")}
	s := newScheduler(fetcher, notifier, nil, nil)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if got := notifier.sendCount(); got != 1 {
		t.Errorf("expected 1 attempt despite delivery failure, got %d", got)
	}
}

func TestFetchFailureIsolation(t *testing.T) {
	failing := true
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		if failing {
			return nil, errors.New("feed unreachable")
		}
		return []models.Match{hotMatch("arsenal-spurs")}, nil
	}}
	notifier := &fakeNotifier{}
	s := newScheduler(fetcher, notifier, nil, nil)

	// Two consecutive failures notify once, then recovery notifies once.
	s.handleCycleResult(s.RunCycle(context.Background()))
	s.handleCycleResult(s.RunCycle(context.Background()))
	failing = false
	s.handleCycleResult(s.RunCycle(context.Background()))

	if notifier.errorSends != 1 {
		t.Errorf("expected 1 error notification, got %d", notifier.errorSends)
	}
	if len(notifier.recoveries) != 1 || notifier.recoveries[0] != 2 {
		t.Errorf("expected recovery after 2 failures, got %v", notifier.recoveries)
	}
	// The failed cycles did not poison the successful one.
	if got := notifier.sendCount(); got != 1 {
		t.Errorf("expected 1 digest after recovery, got %d", got)
	}

	st := s.Status()
	if st.Cycles != 3 || st.CycleFailures != 2 {
		t.Errorf("Status() = %+v, want 3 cycles / 2 failures", st)
	}
}

func TestPanicContained(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		panic("parser exploded")
	}}
	s := newScheduler(fetcher, nil, nil, nil)

	err := s.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected panic converted to error")
	}
	if !strings.Contains(err.Error(), "parser exploded") {
		t.Errorf("error should carry the panic value: %v", err)
	}
}

// A tick arriving mid-cycle is skipped, never queued.
func TestSkipWhileRunning(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		close(started)
		<-block
		return nil, nil
	}}
	s := newScheduler(fetcher, nil, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.RunCycle(context.Background()) }()
	<-started

	// Second invocation while the first is in flight must return immediately.
	if err := s.RunCycle(context.Background()); err != nil {
		t.Errorf("skipped cycle should return nil, got %v", err)
	}
	if got := fetcher.callCount(); got != 1 {
		t.Errorf("skipped cycle must not fetch, got %d fetches", got)
	}

	close(block)
	if err := <-done; err != nil {
		t.Errorf("blocked cycle failed: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return nil, nil
	}}
	s := newScheduler(fetcher, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop promptly after cancellation")
	}
	if fetcher.callCount() < 1 {
		t.Error("expected the immediate first cycle to have run")
	}
}

func TestMetricsWired(t *testing.T) {
	fetcher := &fakeFetcher{fetchFn: func(context.Context) ([]models.Match, error) {
		return []models.Match{hotMatch("arsenal-spurs")}, nil
	}}
	r := radar.New(radar.NewLedger(nil), radar.DefaultConfig())
	m := health.NewMetrics()
	s := New(fetcher, r, nil, nil, &fakeNotifier{}, m, time.Minute)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	st := s.Status()
	if st.Cycles != 1 || st.LedgerSize != 1 {
		t.Errorf("Status() = %+v, want 1 cycle and ledger size 1", st)
	}
	if !strings.Contains(s.StatusText(), "ledger size: 1") {
		t.Errorf("StatusText() = %q", s.StatusText())
	}
}
