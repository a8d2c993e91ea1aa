// Package stats aggregates the latency of repeated exchanges.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Range: 1 microsecond to 1 hour, 3 significant figures
	histogramMin     int64 = 1
	histogramMax     int64 = 3600000000
	histogramSigFigs       = 3
)

// Recorder collects latencies and status codes using an HDR histogram.
//
// Recorder is safe for concurrent use. Counters use atomic operations and
// the histogram is protected by a mutex.
type Recorder struct {
	hist   *hdrhistogram.Histogram
	histMu sync.Mutex

	statuses   map[int]int64
	statusesMu sync.Mutex

	total    atomic.Int64
	failures atomic.Int64
	errors   atomic.Int64
}

// Summary is a snapshot of the recorded exchanges.
type Summary struct {
	Count    int64         `json:"count" yaml:"count"`
	Errors   int64         `json:"errors" yaml:"errors"`
	Failures int64         `json:"failures" yaml:"failures"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P90      time.Duration `json:"p90" yaml:"p90"`
	P99      time.Duration `json:"p99" yaml:"p99"`
	Statuses []StatusCount `json:"statuses" yaml:"statuses"`
}

// StatusCount is the number of responses received with one status code.
type StatusCount struct {
	Status int   `json:"status" yaml:"status"`
	Count  int64 `json:"count" yaml:"count"`
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:     hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statuses: make(map[int]int64),
	}
}

// Record records an exchange that produced a response. Responses with a
// status of 400 or above are counted as errors.
func (r *Recorder) Record(duration time.Duration, status int) {
	latencyMicros := duration.Microseconds()
	if latencyMicros < histogramMin {
		latencyMicros = histogramMin
	}
	if latencyMicros > histogramMax {
		latencyMicros = histogramMax
	}

	// RecordValue is not thread-safe.
	r.histMu.Lock()
	_ = r.hist.RecordValue(latencyMicros)
	r.histMu.Unlock()

	r.statusesMu.Lock()
	r.statuses[status]++
	r.statusesMu.Unlock()

	r.total.Add(1)
	if status >= 400 {
		r.errors.Add(1)
	}
}

// RecordFailure records an exchange that produced no response.
func (r *Recorder) RecordFailure() {
	r.total.Add(1)
	r.failures.Add(1)
}

// Summary returns the statistics recorded so far. Latency figures only
// cover exchanges that produced a response.
func (r *Recorder) Summary() Summary {
	s := Summary{
		Count:    r.total.Load(),
		Errors:   r.errors.Load(),
		Failures: r.failures.Load(),
	}

	r.histMu.Lock()
	if r.hist.TotalCount() > 0 {
		s.Min = micros(r.hist.Min())
		s.Max = micros(r.hist.Max())
		s.Mean = time.Duration(r.hist.Mean() * float64(time.Microsecond))
		s.P50 = micros(r.hist.ValueAtQuantile(50))
		s.P90 = micros(r.hist.ValueAtQuantile(90))
		s.P99 = micros(r.hist.ValueAtQuantile(99))
	}
	r.histMu.Unlock()

	r.statusesMu.Lock()
	for status, count := range r.statuses {
		s.Statuses = append(s.Statuses, StatusCount{Status: status, Count: count})
	}
	r.statusesMu.Unlock()
	sort.Slice(s.Statuses, func(i, j int) bool {
		return s.Statuses[i].Status < s.Statuses[j].Status
	})

	return s
}

// SuccessRate returns the share of exchanges that got a non-error response.
func (s Summary) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Count-s.Errors-s.Failures) / float64(s.Count)
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
