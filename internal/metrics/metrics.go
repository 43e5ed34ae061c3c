// Package metrics holds the process-wide counters of the storefront
// background work: reconciliation, notification delivery and order
// transitions.
package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry groups the counters one process reports.
type Registry struct {
	ReconcileRuns     Counter
	ReconcileMerged   Counter
	ReconcileDropped  Counter
	ReconcileAborted  Counter
	PollSnapshots     Counter
	PollFailures      Counter
	PushReceived      Counter
	PushReconnects    Counter
	TransitionsOK     Counter
	TransitionsDenied Counter

	// Nanoseconds spent in reconciliation passes.
	reconcileNanos Counter
}

// Default is the registry the server wires into every component.
var Default = &Registry{}

func (r *Registry) ObserveReconcile(d time.Duration) {
	if d > 0 {
		r.reconcileNanos.Add(uint64(d))
	}
}

// Snapshot returns a stable name -> value view for the metrics endpoint.
func (r *Registry) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"reconcile_runs_total":               r.ReconcileRuns.Load(),
		"reconcile_items_merged_total":       r.ReconcileMerged.Load(),
		"reconcile_items_dropped_total":      r.ReconcileDropped.Load(),
		"reconcile_aborted_total":            r.ReconcileAborted.Load(),
		"reconcile_duration_ms_total":        r.reconcileNanos.Load() / uint64(time.Millisecond),
		"notification_polls_total":           r.PollSnapshots.Load(),
		"notification_poll_failures_total":   r.PollFailures.Load(),
		"notification_push_received_total":   r.PushReceived.Load(),
		"notification_push_reconnects_total": r.PushReconnects.Load(),
		"order_transitions_total":            r.TransitionsOK.Load(),
		"order_transitions_denied_total":     r.TransitionsDenied.Load(),
	}
}
