// Package scheduler drives the radar pipeline on a fixed interval: fetch,
// score, decide, persist, export, rank, dedup, notify. It is the single
// top-level error boundary; nothing that happens inside one cycle can affect
// the next one.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rmaia-dev/evradar/internal/digest"
	"github.com/rmaia-dev/evradar/internal/feed"
	"github.com/rmaia-dev/evradar/internal/health"
	"github.com/rmaia-dev/evradar/internal/logger"
	"github.com/rmaia-dev/evradar/internal/models"
	"github.com/rmaia-dev/evradar/internal/radar"
)

// Notifier delivers rendered digests. Delivery failure is logged, never
// fatal, and does not roll back ledger entries.
type Notifier interface {
	Send(text string) error
	SendError(cycleErr error) error
	SendRecovery(failureCount int) error
}

// Exporter receives every scored match of a cycle, alerted or not.
type Exporter interface {
	Export(scored []models.ScoredMatch) error
}

// Store persists scored matches and the durable alert ledger.
type Store interface {
	SaveScored(scored []models.ScoredMatch) error
	RecordAlert(sm models.ScoredMatch) error
}

// Scheduler runs cycles strictly sequentially. A tick arriving while a cycle
// is still in flight is skipped, not queued.
type Scheduler struct {
	fetcher  feed.Fetcher
	radar    *radar.Radar
	store    Store
	exporter Exporter
	notifier Notifier
	metrics  *health.Metrics
	interval time.Duration

	running   atomic.Bool
	cycles    atomic.Uint64
	failures  atomic.Uint64
	lastCycle atomic.Int64 // unix nanos, 0 = never

	consecutiveFailures int
	startedAt           time.Time
}

// New wires a scheduler. store, exporter and notifier may be nil when the
// corresponding collaborator is disabled.
func New(fetcher feed.Fetcher, r *radar.Radar, store Store, exporter Exporter, notifier Notifier, metrics *health.Metrics, interval time.Duration) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		radar:    r,
		store:    store,
		exporter: exporter,
		notifier: notifier,
		metrics:  metrics,
		interval: interval,
	}
}

// Run executes an immediate first cycle, then one per interval tick until ctx
// is cancelled. The inter-cycle wait is interruptible, so shutdown is prompt.
func (s *Scheduler) Run(ctx context.Context) {
	s.startedAt = time.Now()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Debug("Running initial radar cycle")
	s.handleCycleResult(s.RunCycle(ctx))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled radar cycle")
			s.handleCycleResult(s.RunCycle(ctx))
		}
	}
}

// RunCycle executes one cycle unless another is already in flight, in which
// case it is skipped. Cycle errors, including panics inside the pipeline, are
// contained here.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warn("Previous cycle still running, skipping this tick")
		return nil
	}
	defer s.running.Store(false)

	start := time.Now()
	err := s.cycle(ctx)

	s.cycles.Add(1)
	s.lastCycle.Store(start.UnixNano())
	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		s.metrics.LedgerSize.Set(float64(s.radar.Ledger().Size()))
		if err != nil {
			s.metrics.CycleFailuresTotal.Inc()
		}
	}
	return err
}

func (s *Scheduler) cycle(ctx context.Context) (err error) {
	recordCount := 0
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked at %s after %d records: %v",
				start.Format(time.RFC3339), recordCount, r)
		}
	}()

	logger.Info("Starting radar cycle")

	matches, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch matches: %w", err)
	}
	recordCount = len(matches)
	if s.metrics != nil {
		s.metrics.MatchesFetchedTotal.Add(float64(recordCount))
	}
	logger.Info("Fetched %d live matches", recordCount)

	scored := s.radar.Evaluate(matches)

	// Every scored record is persisted and exported, alerted or not.
	if s.store != nil {
		if err := s.store.SaveScored(scored); err != nil {
			logger.Warn("Failed to persist scored matches: %v", err)
		}
	}
	if s.exporter != nil {
		if err := s.exporter.Export(scored); err != nil {
			logger.Warn("Failed to export scored matches: %v", err)
		}
	}

	ranked := s.radar.Rank(scored)
	fresh := s.radar.FilterAlerted(ranked)
	logger.Info("Ranked %d candidates, %d not yet alerted", len(ranked), len(fresh))

	if len(fresh) == 0 {
		logger.Info("No fresh candidates this cycle")
		logger.Info("Radar cycle completed in %v", time.Since(start))
		return nil
	}

	text := digest.Render(fresh)
	if s.notifier != nil {
		if sendErr := s.notifier.Send(text); sendErr != nil {
			logger.Error("Failed to send digest: %v", sendErr)
		} else {
			logger.Info("Sent digest with %d matches", len(fresh))
		}
	} else {
		logger.Debug("Notifier disabled, digest dropped")
	}

	// Commit enter identities regardless of delivery outcome: at most one
	// alert attempt per identity, not at least one successful delivery.
	entered := s.radar.RecordNotified(fresh)
	if s.metrics != nil {
		s.metrics.AlertsSentTotal.Add(float64(len(entered)))
	}
	if s.store != nil {
		for _, sm := range fresh {
			if sm.Decision != models.DecisionEnter {
				continue
			}
			if err := s.store.RecordAlert(sm); err != nil {
				logger.Warn("Failed to persist alert for %s: %v", sm.ID, err)
			}
		}
	}

	logger.Info("Radar cycle completed in %v (%d alerted)", time.Since(start), len(entered))
	return nil
}

// handleCycleResult tracks consecutive failures, notifying on the first
// failure of a sequence and on recovery.
func (s *Scheduler) handleCycleResult(err error) {
	if err != nil {
		s.failures.Add(1)
		s.consecutiveFailures++
		logger.Error("Radar cycle failed: %v", err)
		if s.consecutiveFailures == 1 && s.notifier != nil {
			if sendErr := s.notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		}
		return
	}
	if s.consecutiveFailures > 0 && s.notifier != nil {
		if sendErr := s.notifier.SendRecovery(s.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification: %v", sendErr)
		}
	}
	s.consecutiveFailures = 0
}

// Status returns a read-only snapshot for the health surface.
func (s *Scheduler) Status() health.Status {
	status := health.Status{
		Status:        "ok",
		Cycles:        s.cycles.Load(),
		CycleFailures: s.failures.Load(),
		LedgerSize:    s.radar.Ledger().Size(),
	}
	if !s.startedAt.IsZero() {
		status.UptimeSeconds = time.Since(s.startedAt).Seconds()
	}
	if nanos := s.lastCycle.Load(); nanos != 0 {
		status.LastCycleAt = time.Unix(0, nanos)
	}
	return status
}

// StatusText renders the snapshot for the /status bot command.
func (s *Scheduler) StatusText() string {
	st := s.Status()
	last := "never"
	if !st.LastCycleAt.IsZero() {
		last = st.LastCycleAt.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("cycles: %d (failures: %d)\nlast cycle: %s\nledger size: %d",
		st.Cycles, st.CycleFailures, last, st.LedgerSize)
}
