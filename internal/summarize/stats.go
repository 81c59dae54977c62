package summarize

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
}

// StatsSnapshot is a point-in-time aggregate of LLM latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats tracks recent call latencies per actor within a rolling
// window.
type LatencyStats struct {
	mu      sync.Mutex
	samples map[Actor][]sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples: make(map[Actor][]sample),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one call duration for actor. Negative durations count as 0.
func (s *LatencyStats) Record(actor Actor, d time.Duration) {
	d = max(d, 0)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[actor] = append(s.pruneLocked(actor, now), sample{at: now, duration: d})
}

// Snapshot aggregates the live samples of every actor that has any.
func (s *LatencyStats) Snapshot() map[Actor]StatsSnapshot {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Actor]StatsSnapshot, len(s.samples))
	for actor := range s.samples {
		live := s.pruneLocked(actor, now)
		s.samples[actor] = live
		if len(live) > 0 {
			out[actor] = aggregate(live)
		}
	}
	return out
}

func (s *LatencyStats) pruneLocked(actor Actor, now time.Time) []sample {
	cutoff := now.Add(-s.maxAge)
	return slices.DeleteFunc(s.samples[actor], func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

func aggregate(samples []sample) StatsSnapshot {
	values := make([]int64, len(samples))
	var sum int64
	for i, sm := range samples {
		values[i] = sm.duration.Milliseconds()
		sum += values[i]
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100.0
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
