package input

import (
	"sync/atomic"
	"time"
)

// Metrics counts normalizer outcomes. All methods are safe for concurrent
// use so a status view on another goroutine can read a snapshot.
type Metrics struct {
	keyEvents     atomic.Uint64
	textCommits   atomic.Uint64
	declined      atomic.Uint64
	dropped       atomic.Uint64
	pushFailures  atomic.Uint64
	peakLatencyNs atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordKeyEvent counts a delivered KeyDown or KeyUp.
func (m *Metrics) RecordKeyEvent() { m.keyEvents.Add(1) }

// RecordTextCommit counts a delivered TextCommit.
func (m *Metrics) RecordTextCommit() { m.textCommits.Add(1) }

// RecordDeclined counts a raw event handed back to the host.
func (m *Metrics) RecordDeclined() { m.declined.Add(1) }

// RecordDropped counts a raw event rejected as a TranslationError.
func (m *Metrics) RecordDropped() { m.dropped.Add(1) }

// RecordPushFailure counts a runtime intake call that returned an error.
func (m *Metrics) RecordPushFailure() { m.pushFailures.Add(1) }

// RecordLatency tracks the peak time spent translating one raw event.
func (m *Metrics) RecordLatency(d time.Duration) {
	for {
		peak := m.peakLatencyNs.Load()
		if int64(d) <= peak {
			return
		}
		if m.peakLatencyNs.CompareAndSwap(peak, int64(d)) {
			return
		}
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	KeyEvents    uint64
	TextCommits  uint64
	Declined     uint64
	Dropped      uint64
	PushFailures uint64
	PeakLatency  time.Duration
	Uptime       time.Duration
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		KeyEvents:    m.keyEvents.Load(),
		TextCommits:  m.textCommits.Load(),
		Declined:     m.declined.Load(),
		Dropped:      m.dropped.Load(),
		PushFailures: m.pushFailures.Load(),
		PeakLatency:  time.Duration(m.peakLatencyNs.Load()),
		Uptime:       time.Since(m.startTime),
	}
}
