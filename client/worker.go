package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/codahale/hdrhistogram"
)

// HourInMicros bounds the latencies recorded in a worker's histogram.
const HourInMicros int64 = 60 * 60 * 1000000

// Worker drives one connection through an unbounded sequence of calls until
// the shutdown flag is observed. Failed calls are never retried.
type Worker struct {
	ID       uint
	Address  string
	caller   Caller
	stats    *Stats
	shutdown *Shutdown

	// per-call timeout; zero means none
	timeout time.Duration
	// zero means unbounded
	errorBufferSize uint
	observe         func(time.Duration)
	out             io.Writer

	errs    []string
	dropped uint64
	latency *hdrhistogram.Histogram
}

func newWorker(id uint, address string, caller Caller, stats *Stats, shutdown *Shutdown, cfg Config) *Worker {
	return &Worker{
		ID:              id,
		Address:         address,
		caller:          caller,
		stats:           stats,
		shutdown:        shutdown,
		timeout:         cfg.ClientTimeout,
		errorBufferSize: cfg.ErrorBufferSize,
		out:             cfg.output(),
		latency:         hdrhistogram.New(1, HourInMicros, 2),
	}
}

// Name is the payload sent on every call.
func (w *Worker) Name() string {
	return fmt.Sprintf("Tester %d", w.ID)
}

// Run issues calls until the shutdown flag is set. The flag is only checked
// after a call completes, so an in-flight call is never interrupted.
func (w *Worker) Run() {
	name := w.Name()
	for {
		w.stats.Requested()

		start := time.Now()
		err := w.call(name)
		if err == nil {
			latency := time.Since(start)
			w.stats.Succeeded(latency)
			w.record(latency)
		} else {
			w.stats.Failed()
			w.buffer(err)
		}

		if w.shutdown.Triggered() {
			w.drainErrors()
			return
		}
	}
}

// Errors returns the buffered failure descriptions.
func (w *Worker) Errors() []string {
	return w.errs
}

// Latency returns the worker's lifetime latency histogram in microseconds.
func (w *Worker) Latency() *hdrhistogram.Histogram {
	return w.latency
}

func (w *Worker) call(name string) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	_, err := w.caller.SayHello(ctx, name)
	return err
}

func (w *Worker) record(latency time.Duration) {
	us := latency.Microseconds()
	if us < 1 {
		us = 1
	} else if us > HourInMicros {
		us = HourInMicros
	}
	w.latency.RecordValue(us)

	if w.observe != nil {
		w.observe(latency)
	}
}

func (w *Worker) buffer(err error) {
	if w.errorBufferSize > 0 && uint(len(w.errs)) >= w.errorBufferSize {
		w.dropped++
		return
	}
	w.errs = append(w.errs, err.Error())
}

func (w *Worker) drainErrors() {
	if len(w.errs) == 0 {
		return
	}

	fmt.Fprintf(w.out, "worker %d (%s) errors: %q\n", w.ID, w.Address, w.errs)
	if w.dropped > 0 {
		fmt.Fprintf(w.out, "worker %d (%s) dropped %d more errors\n", w.ID, w.Address, w.dropped)
	}
}
