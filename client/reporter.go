package client

import (
	"fmt"
	"io"
	"time"

	"github.com/codahale/hdrhistogram"
)

// Reporter periodically prints a summary of Stats and resets the window
// counters.
type Reporter struct {
	stats    *Stats
	interval time.Duration
	unit     latencyUnit
	out      io.Writer
}

// Run reports every interval until done is closed.
func (r *Reporter) Run(done <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Report()
		case <-done:
			return
		}
	}
}

// Report prints one summary line and drains the window.
func (r *Reporter) Report() Snapshot {
	snap := r.stats.Drain()
	fmt.Fprintf(r.out,
		"Total: %d; Success: %d; Error: %d; Success rate: %d%%; Requests/s: %d; Response time: %d%s\n",
		snap.Requests,
		snap.Successes,
		snap.Errors,
		snap.SuccessRate(),
		snap.WindowSamples,
		snap.MeanLatency(r.unit.d),
		r.unit.name,
	)
	return snap
}

type latencyUnit struct {
	name string
	d    time.Duration
}

func parseLatencyUnit(s string) (latencyUnit, error) {
	switch s {
	case "", "ms":
		return latencyUnit{"ms", time.Millisecond}, nil
	case "us":
		return latencyUnit{"us", time.Microsecond}, nil
	case "ns":
		return latencyUnit{"ns", time.Nanosecond}, nil
	default:
		return latencyUnit{}, fmt.Errorf("latency unit should be [ms | us | ns], got %q", s)
	}
}

// Quantiles contains common latency quantiles.
type Quantiles struct {
	Quantile50  int64
	Quantile95  int64
	Quantile99  int64
	Quantile999 int64
}

func quantiles(hist *hdrhistogram.Histogram, unit time.Duration) Quantiles {
	at := func(q float64) int64 {
		return int64(time.Duration(hist.ValueAtQuantile(q)) * time.Microsecond / unit)
	}
	return Quantiles{
		Quantile50:  at(50),
		Quantile95:  at(95),
		Quantile99:  at(99),
		Quantile999: at(99.9),
	}
}

func logFinalReport(out io.Writer, res *Summary, unit latencyUnit) {
	q := quantiles(res.Latency, unit.d)
	fmt.Fprintf(out, "Final: Total: %d; Success: %d; Error: %d; Success rate: %d%%; Elapsed: %s\n",
		res.Requests, res.Successes, res.Errors, res.SuccessRate(), res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Latency (%s): p50 %d; p95 %d; p99 %d; p999 %d\n",
		unit.name, q.Quantile50, q.Quantile95, q.Quantile99, q.Quantile999)
}
