package ingest

import (
	"sync"
	"time"
)

// Metrics accumulates the counters described in §4.8: physical lines
// read, raw records parsed (excluding the header), records emitted,
// errors recorded, the last physical line touched, and the stream's
// start/completion time. A Metrics is safe for concurrent use so the
// suspendable pull surface can read a snapshot from a different
// goroutine than the one advancing the counters.
type Metrics struct {
	mu sync.Mutex

	LinesRead       int
	RawRecordsParsed int
	RecordsEmitted  int
	ErrorCount      int
	LastLine        int
	StartedAt       time.Time
	CompletedAt     time.Time

	lastSnapshotRecords int
	lastSnapshotAt      time.Time
}

// NewMetrics builds a Metrics with StartedAt set to now.
func NewMetrics(now time.Time) *Metrics {
	return &Metrics{StartedAt: now, lastSnapshotAt: now}
}

// AddLine records a physical line advance.
func (m *Metrics) AddLine(line int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesRead++
	m.LastLine = line
}

// AddRawRecord records a raw (pre-guard-rail) record having been parsed.
func (m *Metrics) AddRawRecord() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RawRecordsParsed++
}

// AddEmitted records a record having been successfully yielded.
func (m *Metrics) AddEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsEmitted++
}

// AddError records a fault having been reported.
func (m *Metrics) AddError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCount++
}

// Complete stamps CompletedAt. Safe to call more than once; only the
// first call has an effect.
func (m *Metrics) Complete(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CompletedAt.IsZero() {
		m.CompletedAt = now
	}
}

// Snapshot is an immutable copy of the counters at a point in time, plus
// an optional completion percentage when the byte position is known.
type Snapshot struct {
	Lines   int
	Records int
	Errors  int
	Percent float64 // -1 when unknown
	Elapsed time.Duration
}

// Snapshot copies the current counters into a Snapshot. percent is -1 if
// the byte position (and therefore percent-complete) is unknown.
func (m *Metrics) Snapshot(now time.Time, percent float64) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Lines:   m.LinesRead,
		Records: m.RecordsEmitted,
		Errors:  m.ErrorCount,
		Percent: percent,
		Elapsed: now.Sub(m.StartedAt),
	}
}

// ShouldEmit reports whether a new progress snapshot is due: either the
// record-count delta since the last emitted snapshot has reached
// recordInterval, or the wall-clock delta has reached timeInterval.
// recordInterval <= 0 disables the record-delta trigger; same for
// timeInterval. Calling ShouldEmit resets the "since last" counters when
// it returns true.
func (m *Metrics) ShouldEmit(now time.Time, recordInterval int, timeInterval time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	recordsDue := recordInterval > 0 && m.RecordsEmitted-m.lastSnapshotRecords >= recordInterval
	timeDue := timeInterval > 0 && now.Sub(m.lastSnapshotAt) >= timeInterval
	if !recordsDue && !timeDue {
		return false
	}
	m.lastSnapshotRecords = m.RecordsEmitted
	m.lastSnapshotAt = now
	return true
}

// A ProgressFunc receives throttled progress snapshots. The reader calls
// it synchronously through SafeEmit, which recovers a panic so it cannot
// crash the reader; a ProgressFunc that blocks stalls the reader until it
// returns.
type ProgressFunc func(Snapshot)

// SafeEmit invokes fn(s), recovering any panic and logging it instead of
// propagating it into the parser loop.
func SafeEmit(fn ProgressFunc, log Logger, s Snapshot) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.WithField("panic", r).Error("progress callback panicked; discarding")
			}
		}
	}()
	fn(s)
}
