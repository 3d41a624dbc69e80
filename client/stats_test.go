package client

import (
	"sync"
	"time"

	. "gopkg.in/check.v1"
)

type StatsTestSuite struct{}

var _ = Suite(&StatsTestSuite{})

func (*StatsTestSuite) TestEmptyDefaults(c *C) {
	snap := (&Stats{}).Snapshot()
	c.Check(snap.SuccessRate(), Equals, uint64(100))
	c.Check(snap.MeanLatency(time.Millisecond), Equals, uint64(0))
}

func (*StatsTestSuite) TestRounding(c *C) {
	snap := Snapshot{Requests: 3, Successes: 2}
	c.Check(snap.SuccessRate(), Equals, uint64(67))

	snap = Snapshot{Requests: 3, Successes: 1}
	c.Check(snap.SuccessRate(), Equals, uint64(33))

	snap = Snapshot{WindowLatency: 5 * time.Millisecond, WindowSamples: 2}
	c.Check(snap.MeanLatency(time.Millisecond), Equals, uint64(3))
	c.Check(snap.MeanLatency(time.Microsecond), Equals, uint64(2500))

	snap = Snapshot{WindowLatency: 4 * time.Millisecond, WindowSamples: 3}
	c.Check(snap.MeanLatency(time.Millisecond), Equals, uint64(1))
}

func (*StatsTestSuite) TestDrainResetsOnlyTheWindow(c *C) {
	stats := &Stats{}
	for i := 0; i < 4; i++ {
		stats.Requested()
		stats.Succeeded(10 * time.Millisecond)
	}
	stats.Requested()
	stats.Failed()

	snap := stats.Drain()
	c.Check(snap.Requests, Equals, uint64(5))
	c.Check(snap.Successes, Equals, uint64(4))
	c.Check(snap.Errors, Equals, uint64(1))
	c.Check(snap.WindowSamples, Equals, uint64(4))
	c.Check(snap.WindowLatency, Equals, 40*time.Millisecond)
	c.Check(snap.MeanLatency(time.Millisecond), Equals, uint64(10))
	c.Check(snap.SuccessRate(), Equals, uint64(80))

	after := stats.Snapshot()
	c.Check(after.WindowSamples, Equals, uint64(0))
	c.Check(after.WindowLatency, Equals, time.Duration(0))
	c.Check(after.Requests, Equals, uint64(5))
	c.Check(after.Successes, Equals, uint64(4))
	c.Check(after.Errors, Equals, uint64(1))
}

func (*StatsTestSuite) TestNegativeLatencyIsClamped(c *C) {
	stats := &Stats{}
	stats.Succeeded(-time.Second)
	c.Check(stats.Snapshot().WindowLatency, Equals, time.Duration(0))
}

func (*StatsTestSuite) TestCountersAreMonotonic(c *C) {
	stats := &Stats{}
	const writers, perWriter = 8, 2000

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				stats.Requested()
				if (i+j)%3 == 0 {
					stats.Failed()
				} else {
					stats.Succeeded(time.Microsecond)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var last Snapshot
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}

		snap := stats.Drain()
		c.Assert(snap.Requests >= last.Requests, Equals, true)
		c.Assert(snap.Successes >= last.Successes, Equals, true)
		c.Assert(snap.Errors >= last.Errors, Equals, true)
		last = snap
	}

	final := stats.Snapshot()
	c.Check(final.Requests, Equals, uint64(writers*perWriter))
	c.Check(final.Successes+final.Errors, Equals, final.Requests)
}
