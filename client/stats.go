package client

import (
	"math"
	"sync/atomic"
	"time"
)

// Stats holds the counters shared by every worker and the reporter. Each
// counter is updated independently, so a reader may observe a request that
// has not yet been counted as a success or an error.
//
// The window counters track successful calls since the last Drain and are
// only ever reset by the reporter.
type Stats struct {
	requests  atomic.Uint64
	successes atomic.Uint64
	errors    atomic.Uint64

	windowLatency atomic.Uint64 // nanoseconds
	windowSamples atomic.Uint64
}

// Snapshot is a point-in-time read of Stats. Fields are read one at a time.
type Snapshot struct {
	Requests  uint64
	Successes uint64
	Errors    uint64

	WindowLatency time.Duration
	WindowSamples uint64
}

// Requested counts a call before it is issued.
func (s *Stats) Requested() {
	s.requests.Add(1)
}

// Succeeded records a successful call that took latency.
func (s *Stats) Succeeded(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	s.windowLatency.Add(uint64(latency))
	s.windowSamples.Add(1)
	s.successes.Add(1)
}

// Failed records a failed call.
func (s *Stats) Failed() {
	s.errors.Add(1)
}

// Snapshot reads every counter without resetting the window.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Requests:      s.requests.Load(),
		Successes:     s.successes.Load(),
		Errors:        s.errors.Load(),
		WindowLatency: time.Duration(s.windowLatency.Load()),
		WindowSamples: s.windowSamples.Load(),
	}
}

// Drain reads every counter and zeroes the window counters. Increments that
// land between the two swaps are attributed to the next window.
func (s *Stats) Drain() Snapshot {
	snap := Snapshot{
		Requests:  s.requests.Load(),
		Successes: s.successes.Load(),
		Errors:    s.errors.Load(),
	}
	snap.WindowLatency = time.Duration(s.windowLatency.Swap(0))
	snap.WindowSamples = s.windowSamples.Swap(0)
	return snap
}

// SuccessRate is the lifetime percentage of successful requests, rounded.
// With no requests yet it is 100.
func (snap Snapshot) SuccessRate() uint64 {
	if snap.Requests == 0 {
		return 100
	}
	return uint64(math.Round(float64(snap.Successes) / float64(snap.Requests) * 100))
}

// MeanLatency is the mean window latency expressed in unit, rounded. With
// no samples it is 0.
func (snap Snapshot) MeanLatency(unit time.Duration) uint64 {
	if snap.WindowSamples == 0 || unit <= 0 {
		return 0
	}
	mean := float64(snap.WindowLatency) / float64(unit) / float64(snap.WindowSamples)
	return uint64(math.Round(mean))
}
