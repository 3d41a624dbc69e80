package client

import (
	"bytes"
	"errors"
	"strings"

	. "gopkg.in/check.v1"
)

type WorkerTestSuite struct{}

var _ = Suite(&WorkerTestSuite{})

func newTestWorker(caller Caller, stats *Stats, shutdown *Shutdown, out *bytes.Buffer, bufferSize uint) *Worker {
	cfg := Config{ErrorBufferSize: bufferSize, Out: out}
	return newWorker(7, "127.0.0.1:18888", caller, stats, shutdown, cfg)
}

func (*WorkerTestSuite) TestPayload(c *C) {
	w := newTestWorker(nil, &Stats{}, NewShutdown(), &bytes.Buffer{}, 0)
	c.Assert(w.Name(), Equals, "Tester 7")
}

func (*WorkerTestSuite) TestChecksShutdownAfterEachCall(c *C) {
	stats := &Stats{}
	shutdown := NewShutdown()
	caller := &scriptedCaller{outcomes: make([]error, 5), shutdown: shutdown}
	out := &bytes.Buffer{}

	w := newTestWorker(caller, stats, shutdown, out, 0)
	w.Run()

	// The call that set the flag is still recorded before the worker stops.
	c.Check(caller.calls, Equals, 5)
	snap := stats.Snapshot()
	c.Check(snap.Requests, Equals, uint64(5))
	c.Check(snap.Successes, Equals, uint64(5))
	c.Check(snap.Errors, Equals, uint64(0))
	c.Check(snap.WindowSamples, Equals, uint64(5))
	c.Check(w.Latency().TotalCount(), Equals, int64(5))
	c.Check(out.String(), Equals, "")
}

func (*WorkerTestSuite) TestAlreadyShutdownMakesOneCall(c *C) {
	stats := &Stats{}
	shutdown := NewShutdown()
	shutdown.Trigger()
	caller := &scriptedCaller{outcomes: make([]error, 3), shutdown: shutdown}

	w := newTestWorker(caller, stats, shutdown, &bytes.Buffer{}, 0)
	w.Run()

	c.Check(caller.calls, Equals, 1)
	c.Check(stats.Snapshot().Requests, Equals, uint64(1))
}

func (*WorkerTestSuite) TestMixedOutcomes(c *C) {
	stats := &Stats{}
	shutdown := NewShutdown()
	boom := errors.New("boom")
	caller := &scriptedCaller{
		outcomes: []error{nil, boom, nil, boom, boom},
		shutdown: shutdown,
	}
	out := &bytes.Buffer{}

	w := newTestWorker(caller, stats, shutdown, out, 0)
	w.Run()

	snap := stats.Snapshot()
	c.Check(snap.Requests, Equals, uint64(5))
	c.Check(snap.Successes, Equals, uint64(2))
	c.Check(snap.Errors, Equals, uint64(3))
	c.Check(snap.Successes+snap.Errors, Equals, snap.Requests)
	c.Check(w.Errors(), DeepEquals, []string{"boom", "boom", "boom"})

	// Errors are printed once, as a single batch.
	c.Check(strings.Count(out.String(), "errors:"), Equals, 1)
	c.Check(strings.Contains(out.String(), `worker 7 (127.0.0.1:18888) errors: ["boom" "boom" "boom"]`), Equals, true)
}

func (*WorkerTestSuite) TestErrorBufferIsBounded(c *C) {
	stats := &Stats{}
	shutdown := NewShutdown()
	boom := errors.New("boom")
	caller := &scriptedCaller{
		outcomes: []error{boom, boom, boom, boom, boom},
		shutdown: shutdown,
	}
	out := &bytes.Buffer{}

	w := newTestWorker(caller, stats, shutdown, out, 2)
	w.Run()

	c.Check(stats.Snapshot().Errors, Equals, uint64(5))
	c.Check(len(w.Errors()), Equals, 2)
	c.Check(strings.Contains(out.String(), "worker 7 (127.0.0.1:18888) dropped 3 more errors"), Equals, true)
}
