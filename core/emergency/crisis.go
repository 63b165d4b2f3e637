package emergency

import (
	"sync"
	"time"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// CrisisDetector tracks withdrawals in a sliding window. More than the
// threshold inside the window escalates from single-swap handling to a full
// crisis re-plan.
type CrisisDetector struct {
	mu     sync.Mutex
	window time.Duration
	events []model.Withdrawal
}

// NewCrisisDetector builds a detector over the standard crisis window.
func NewCrisisDetector() *CrisisDetector {
	return &CrisisDetector{window: rules.CrisisWindow}
}

// Record adds a withdrawal and reports whether the fleet is now in crisis.
func (d *CrisisDetector) Record(w model.Withdrawal) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(w.ReportedAt)
	d.events = append(d.events, w)
	return len(d.events) > rules.CrisisThreshold
}

// Active reports whether the window still holds a crisis-level count.
func (d *CrisisDetector) Active(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)
	return len(d.events) > rules.CrisisThreshold
}

// Recent returns the withdrawals still inside the window.
func (d *CrisisDetector) Recent(now time.Time) []model.Withdrawal {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)
	return append([]model.Withdrawal(nil), d.events...)
}

func (d *CrisisDetector) prune(now time.Time) {
	cutoff := now.Add(-d.window)
	kept := d.events[:0]
	for _, e := range d.events {
		if e.ReportedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	d.events = kept
}
