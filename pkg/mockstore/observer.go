package mockstore

import (
	"sync/atomic"
	"time"
)

// Observer receives store events for metrics and debugging.
type Observer interface {
	// OnGenerate is called after a generator created a new record.
	OnGenerate(key Key, duration time.Duration)

	// OnGet is called after a successful read. hit is false when the read
	// triggered generation.
	OnGet(key Key, hit bool, duration time.Duration)

	// OnSet is called after fields were merged into a record.
	OnSet(key Key, fields int, duration time.Duration)

	// OnDelete is called after a record was removed.
	OnDelete(key Key)

	// OnError is called when an operation fails.
	OnError(operation string, key Key, err error)

	// OnReset is called after the store was cleared.
	OnReset(cleared int)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) OnGenerate(Key, time.Duration)  {}
func (NoopObserver) OnGet(Key, bool, time.Duration) {}
func (NoopObserver) OnSet(Key, int, time.Duration)  {}
func (NoopObserver) OnDelete(Key)                   {}
func (NoopObserver) OnError(string, Key, error)     {}
func (NoopObserver) OnReset(int)                    {}

// MetricsObserver counts store operations with atomic counters.
type MetricsObserver struct {
	generateCount  atomic.Int64
	hitCount       atomic.Int64
	missCount      atomic.Int64
	setCount       atomic.Int64
	deleteCount    atomic.Int64
	errorCount     atomic.Int64
	resetCount     atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewMetricsObserver creates a new MetricsObserver.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnGenerate(_ Key, duration time.Duration) {
	m.generateCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnGet(_ Key, hit bool, duration time.Duration) {
	if hit {
		m.hitCount.Add(1)
	} else {
		m.missCount.Add(1)
	}
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnSet(_ Key, _ int, duration time.Duration) {
	m.setCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnDelete(Key) {
	m.deleteCount.Add(1)
}

func (m *MetricsObserver) OnError(string, Key, error) {
	m.errorCount.Add(1)
}

func (m *MetricsObserver) OnReset(int) {
	m.resetCount.Add(1)
}

// Snapshot returns a point-in-time copy of the counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		GenerateCount: m.generateCount.Load(),
		HitCount:      m.hitCount.Load(),
		MissCount:     m.missCount.Load(),
		SetCount:      m.setCount.Load(),
		DeleteCount:   m.deleteCount.Load(),
		ErrorCount:    m.errorCount.Load(),
		ResetCount:    m.resetCount.Load(),
		TotalLatency:  time.Duration(m.totalLatencyNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time snapshot of store metrics.
type MetricsSnapshot struct {
	GenerateCount int64         `json:"generateCount"`
	HitCount      int64         `json:"hitCount"`
	MissCount     int64         `json:"missCount"`
	SetCount      int64         `json:"setCount"`
	DeleteCount   int64         `json:"deleteCount"`
	ErrorCount    int64         `json:"errorCount"`
	ResetCount    int64         `json:"resetCount"`
	TotalLatency  time.Duration `json:"totalLatencyNs"`
}

// Reads returns the total number of successful reads.
func (s MetricsSnapshot) Reads() int64 {
	return s.HitCount + s.MissCount
}
