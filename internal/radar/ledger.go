package radar

import (
	"sync"
	"time"
)

// Ledger tracks match identities that have already produced a terminal enter
// alert. Entries are recorded after the alert attempt regardless of delivery
// outcome (at-most-one attempt per identity) and never expire while the
// process is alive. Mutated only by the cycle goroutine; Size is safe to read
// from the health surface.
type Ledger struct {
	mu      sync.RWMutex
	alerted map[string]time.Time
}

// NewLedger creates a ledger seeded with previously alerted identities,
// typically restored from storage so restarts do not re-alert.
func NewLedger(seed map[string]time.Time) *Ledger {
	alerted := make(map[string]time.Time, len(seed))
	for id, at := range seed {
		alerted[id] = at
	}
	return &Ledger{alerted: alerted}
}

// ShouldAlert reports whether id is still alert-eligible.
func (l *Ledger) ShouldAlert(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, seen := l.alerted[id]
	return !seen
}

// Record marks id as alerted. Recording an already present identity is a
// no-op and keeps the original timestamp.
func (l *Ledger) Record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.alerted[id]; !seen {
		l.alerted[id] = time.Now()
	}
}

// Size returns the number of alerted identities.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerted)
}
