// Package server runs one or more Greeter replicas, each listening on its
// own port, with optional latency and error injection.
package server

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/buoyantio/strest-hello/client/endpoints"
	"github.com/buoyantio/strest-hello/distribution"
	"github.com/buoyantio/strest-hello/percentiles"
	"github.com/buoyantio/strest-hello/refserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	pb "google.golang.org/grpc/examples/helloworld/helloworld"
	"google.golang.org/grpc/status"
)

// Config configures a set of replicas.
type Config struct {
	// Address of the first replica; replica i listens on its port plus i.
	Address   string
	Instances uint
	// LatencyPercentiles is the artificial latency distribution in
	// milliseconds, e.g. "50=10,100=100".
	LatencyPercentiles string
	// ErrorRate is the chance for a call to fail with codes.Unknown.
	ErrorRate  float64
	MetricAddr string

	// Out defaults to os.Stdout.
	Out io.Writer
}

type metrics struct {
	registry *prometheus.Registry
	requests prometheus.Counter
	replies  prometheus.Counter
	injected prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "requests",
			Help: "Number of requests",
		}),
		replies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "responses",
			Help: "Number of responses sent",
		}),
		injected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "injected_errors",
			Help: "Number of errors returned on purpose",
		}),
	}
	m.registry.MustRegister(m.requests, m.replies, m.injected)
	return m
}

// greeter wraps the reference handler with latency and error injection.
type greeter struct {
	pb.UnimplementedGreeterServer

	ref       refserver.Greeter
	latency   distribution.Distribution
	errorRate float64
	metrics   *metrics
}

// SayHello waits for a latency drawn from the distribution, then either
// fails or greets.
func (g *greeter) SayHello(ctx context.Context, in *pb.HelloRequest) (*pb.HelloReply, error) {
	g.metrics.requests.Inc()

	if ms := g.latency.Get(rand.IntN(1000)); ms > 0 {
		timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}

	if g.errorRate > 0 && rand.Float64() < g.errorRate {
		g.metrics.injected.Inc()
		return nil, status.Error(codes.Unknown, "injected error")
	}

	g.metrics.replies.Inc()
	return g.ref.SayHello(ctx, in)
}

// Server serves the same greeter on any number of listeners.
type Server struct {
	cfg     Config
	greeter *greeter
	metrics *metrics
}

// New validates cfg and builds the handler.
func New(cfg Config) (*Server, error) {
	if cfg.ErrorRate < 0 || cfg.ErrorRate > 1 {
		return nil, fmt.Errorf("error rate %v is not in [0, 1]", cfg.ErrorRate)
	}

	latencyPercentiles := cfg.LatencyPercentiles
	if latencyPercentiles == "" {
		latencyPercentiles = "100=0"
	}
	p, err := percentiles.ParsePercentiles(latencyPercentiles)
	if err != nil {
		return nil, fmt.Errorf("latencyPercentiles was not valid: %w", err)
	}
	latency, err := distribution.FromMap(p)
	if err != nil {
		return nil, fmt.Errorf("unable to create latency distribution: %w", err)
	}

	m := newMetrics()
	return &Server{
		cfg:     cfg,
		metrics: m,
		greeter: &greeter{latency: latency, errorRate: cfg.ErrorRate, metrics: m},
	}, nil
}

func (s *Server) output() io.Writer {
	if s.cfg.Out == nil {
		return os.Stdout
	}
	return s.cfg.Out
}

// Run binds every replica, then serves until ctx is done. Failing to bind
// any replica is fatal for all of them.
func (cfg Config) Run(ctx context.Context) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}

	table, err := endpoints.New(cfg.Address, cfg.Instances)
	if err != nil {
		return err
	}

	listeners := make([]net.Listener, 0, len(table))
	for _, addr := range table {
		log.Infof("starting gRPC server on %s", addr)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return fmt.Errorf("listening on tcp:%s: %w", addr, err)
		}
		listeners = append(listeners, lis)
	}

	if cfg.MetricAddr != "" {
		stop := s.serveMetrics(cfg.MetricAddr)
		defer stop()
	}

	return s.run(ctx, listeners)
}

// run serves until ctx is done and reports a clean stop.
func (s *Server) run(ctx context.Context, listeners []net.Listener) error {
	if err := s.Serve(ctx, listeners); err != nil {
		return err
	}
	fmt.Fprintln(s.output(), "All done!")
	return nil
}

// Serve runs one gRPC server per listener until ctx is done, then stops
// them gracefully. The first serving error stops every replica.
func (s *Server) Serve(ctx context.Context, listeners []net.Listener) error {
	out := s.output()
	g, gCtx := errgroup.WithContext(ctx)

	for _, lis := range listeners {
		lis := lis
		srv := grpc.NewServer()
		pb.RegisterGreeterServer(srv, s.greeter)

		g.Go(func() error {
			fmt.Fprintf(out, "gRPC server %s started.\n", lis.Addr())
			if err := srv.Serve(lis); err != nil {
				return fmt.Errorf("serving on %s: %w", lis.Addr(), err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			srv.GracefulStop()
			fmt.Fprintf(out, "gRPC server %s: shutdown signal received, goodbye!\n", lis.Addr())
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serving metrics on %s: %v", addr, err)
		}
	}()

	return func() { srv.Close() }
}
