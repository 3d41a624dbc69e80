package client

import (
	"bytes"
	"time"

	. "gopkg.in/check.v1"
)

type ReporterTestSuite struct{}

var _ = Suite(&ReporterTestSuite{})

func (*ReporterTestSuite) TestReportLine(c *C) {
	stats := &Stats{}
	for i := 0; i < 3; i++ {
		stats.Requested()
	}
	stats.Succeeded(2 * time.Millisecond)
	stats.Succeeded(3 * time.Millisecond)
	stats.Failed()

	out := &bytes.Buffer{}
	unit, err := parseLatencyUnit("ms")
	c.Assert(err, IsNil)
	r := &Reporter{stats: stats, interval: time.Second, unit: unit, out: out}

	snap := r.Report()
	c.Check(snap.WindowSamples, Equals, uint64(2))
	c.Check(out.String(), Equals,
		"Total: 3; Success: 2; Error: 1; Success rate: 67%; Requests/s: 2; Response time: 3ms\n")

	out.Reset()
	r.Report()
	c.Check(out.String(), Equals,
		"Total: 3; Success: 2; Error: 1; Success rate: 67%; Requests/s: 0; Response time: 0ms\n")
}

func (*ReporterTestSuite) TestMicroseconds(c *C) {
	stats := &Stats{}
	stats.Requested()
	stats.Succeeded(1500 * time.Microsecond)

	out := &bytes.Buffer{}
	unit, err := parseLatencyUnit("us")
	c.Assert(err, IsNil)
	r := &Reporter{stats: stats, interval: time.Second, unit: unit, out: out}

	r.Report()
	c.Check(out.String(), Equals,
		"Total: 1; Success: 1; Error: 0; Success rate: 100%; Requests/s: 1; Response time: 1500us\n")
}

func (*ReporterTestSuite) TestStopsOnShutdown(c *C) {
	unit, _ := parseLatencyUnit("ms")
	r := &Reporter{stats: &Stats{}, interval: time.Millisecond, unit: unit, out: &bytes.Buffer{}}

	shutdown := NewShutdown()
	done := make(chan struct{})
	go func() {
		r.Run(shutdown.Done())
		close(done)
	}()

	shutdown.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		c.Fatal("reporter did not stop")
	}
}

func (*ReporterTestSuite) TestUnknownUnit(c *C) {
	_, err := parseLatencyUnit("s")
	c.Assert(err, Not(IsNil))
}
