// Package client implements the load generating side of strest-hello: a
// pool of workers, each owning one connection to a Greeter replica, issuing
// SayHello calls as fast as the round trip allows until shut down.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/buoyantio/strest-hello/client/endpoints"
	"github.com/codahale/hdrhistogram"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Config configures a client run.
type Config struct {
	// Address of the first replica; replica i listens on its port plus i.
	Address         string
	Concurrency     uint
	Replicas        uint
	WorkerThreads   uint
	Interval        time.Duration
	LatencyUnit     string
	ClientTimeout   time.Duration
	ConnectTimeout  time.Duration
	ErrorBufferSize uint
	MetricAddr      string
	NoFinalReport   bool

	// Dialer defaults to GRPCDialer.
	Dialer Dialer
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Summary describes a finished run.
type Summary struct {
	Snapshot
	Elapsed time.Duration
	// merged latency histogram of all workers, in microseconds
	Latency *hdrhistogram.Histogram
}

func (cfg Config) output() io.Writer {
	if cfg.Out == nil {
		return os.Stdout
	}
	return cfg.Out
}

func (cfg Config) dialer() Dialer {
	if cfg.Dialer == nil {
		return GRPCDialer{}
	}
	return cfg.Dialer
}

// Run drives load until ctx is done, then waits for every worker to finish
// its in-flight call and prints the final report.
func (cfg Config) Run(ctx context.Context) error {
	res, err := cfg.Execute(ctx)
	if err != nil {
		return err
	}

	out := cfg.output()
	if !cfg.NoFinalReport {
		unit, _ := parseLatencyUnit(cfg.LatencyUnit)
		logFinalReport(out, res, unit)
	}
	fmt.Fprintln(out, "All done.")
	return nil
}

// Execute connects every worker, runs them and the reporter until ctx is
// done, then sets the shutdown flag and waits for all of them. If any
// worker fails to connect nothing is started.
func (cfg Config) Execute(ctx context.Context) (*Summary, error) {
	unit, err := parseLatencyUnit(cfg.LatencyUnit)
	if err != nil {
		return nil, err
	}

	table, err := endpoints.New(cfg.Address, cfg.Replicas)
	if err != nil {
		return nil, err
	}

	if cfg.WorkerThreads > 0 {
		runtime.GOMAXPROCS(int(cfg.WorkerThreads))
	}

	out := cfg.output()
	stats := &Stats{}
	shutdown := NewShutdown()

	callers, err := cfg.connect(ctx, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, c := range callers {
			c.Close()
		}
	}()

	var m *metrics
	if cfg.MetricAddr != "" {
		m = newMetrics(stats)
		stop := m.serve(cfg.MetricAddr)
		defer stop()
	}

	fmt.Fprintf(out, "Starting load test with concurrency: %d\n", cfg.Concurrency)

	workers := make([]*Worker, cfg.Concurrency)
	for i := range workers {
		w := newWorker(uint(i), table.For(uint(i)), callers[i], stats, shutdown, cfg)
		if m != nil {
			w.observe = m.observe
		}
		workers[i] = w
	}

	start := time.Now()

	var g errgroup.Group
	for _, w := range workers {
		w := w
		g.Go(func() error {
			w.Run()
			return nil
		})
	}

	if cfg.Interval > 0 {
		reporter := &Reporter{stats: stats, interval: cfg.Interval, unit: unit, out: out}
		g.Go(func() error {
			reporter.Run(shutdown.Done())
			return nil
		})
	}

	<-ctx.Done()
	fmt.Fprintln(out, "Received shutdown signal. Exiting, waiting for all workers to complete...")
	shutdown.Trigger()
	elapsed := time.Since(start)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Summary{
		Snapshot: stats.Snapshot(),
		Elapsed:  elapsed,
		Latency:  hdrhistogram.New(1, HourInMicros, 2),
	}
	for _, w := range workers {
		res.Latency.Merge(w.Latency())
	}
	return res, nil
}

// connect dials one connection per worker. On the first failure the
// remaining dials are cancelled and every opened connection is closed.
func (cfg Config) connect(ctx context.Context, table endpoints.Table) ([]Caller, error) {
	dialer := cfg.dialer()
	callers := make([]Caller, cfg.Concurrency)

	dialCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	g, gCtx := errgroup.WithContext(dialCtx)
	for i := range callers {
		i := i
		addr := table.For(uint(i))
		g.Go(func() error {
			c, err := dialer.Dial(gCtx, addr)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			callers[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var closeErr error
		for _, c := range callers {
			if c != nil {
				closeErr = errors.Join(closeErr, c.Close())
			}
		}
		if closeErr != nil {
			log.Debugf("closing connections after failed startup: %v", closeErr)
		}
		return nil, err
	}

	log.Infof("connected %d workers across %d replicas", len(callers), len(table))
	return callers, nil
}
