package maxrps

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/buoyantio/strest-hello/client"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Config configures a max-rps run.
type Config struct {
	Address           string
	Replicas          uint
	ConcurrencyLevels string
	TimePerLevel      time.Duration

	// Dialer defaults to client.GRPCDialer.
	Dialer client.Dialer
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Fit holds the Universal Scalability Law coefficients for a Greeter
// deployment, along with the concurrency that maximizes throughput.
type Fit struct {
	Sigma          float64 // the overhead of contention
	Kappa          float64 // the overhead of crosstalk
	Lambda         float64 // unloaded performance
	MaxConcurrency float64
	MaxRps         float64
}

// `max-rps` is designed to tell you the maximum rps that either a Greeter
// replica set or an intermediary can provide. It does this using the
// Universal Scalability Law.
//
// Thanks to @brendantracey for the go playground snippet least squared regression
// code that I borrowed verbatim.
func (cfg Config) Run(ctx context.Context) error {
	if cfg.TimePerLevel < time.Second {
		return fmt.Errorf("timePerLevel cannot be less than 1 second")
	}

	levels, err := parseLevels(cfg.ConcurrencyLevels)
	if err != nil {
		return err
	}

	var denseThroughput []float64
	for _, level := range levels {
		throughput, err := cfg.measure(ctx, level)
		if err != nil {
			return err
		}
		log.Debugf("%d %f", level, throughput)
		denseThroughput = append(denseThroughput, float64(level), throughput)
	}

	fit, err := fitUSL(denseThroughput)
	if err != nil {
		return err
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, "sigma (the overhead of contention): ", fit.Sigma)
	fmt.Fprintln(out, "kappa (the overhead of crosstalk): ", fit.Kappa)
	fmt.Fprintln(out, "lambda (unloaded performance): ", fit.Lambda)
	fmt.Fprintf(out, "maxConcurrency: %f\n", fit.MaxConcurrency)
	fmt.Fprintf(out, "maxRps: %f\n", fit.MaxRps)
	return nil
}

// measure drives the client harness at one concurrency level and returns
// successful completions per second.
func (cfg Config) measure(ctx context.Context, level uint) (float64, error) {
	levelCtx, cancel := context.WithTimeout(ctx, cfg.TimePerLevel)
	defer cancel()

	res, err := client.Config{
		Address:        cfg.Address,
		Concurrency:    level,
		Replicas:       cfg.Replicas,
		ConnectTimeout: 5 * time.Second,
		Dialer:         cfg.Dialer,
		Out:            io.Discard,
	}.Execute(levelCtx)
	if err != nil {
		return 0, err
	}
	if res.Errors > 0 {
		log.Warnf("%d of %d requests failed at concurrency %d", res.Errors, res.Requests, level)
	}

	return float64(res.Successes) / res.Elapsed.Seconds(), nil
}

func parseLevels(s string) ([]uint, error) {
	var levels []uint
	for _, l := range strings.Split(s, ",") {
		level, err := strconv.ParseUint(strings.TrimSpace(l), 10, 32)
		if err != nil || level == 0 {
			return nil, fmt.Errorf("unknown concurrency level: %q", l)
		}
		levels = append(levels, uint(level))
	}
	if len(levels) < 3 {
		return nil, fmt.Errorf("need at least 3 concurrency levels to fit 3 parameters, got %d", len(levels))
	}
	return levels, nil
}

// fitUSL takes (concurrency, throughput) pairs flattened into one slice.
func fitUSL(dense []float64) (*Fit, error) {
	samples := mat.NewDense(len(dense)/2, 2, dense)
	concurrency := mat.Col(nil, 0, samples)
	throughput := mat.Col(nil, 1, samples)

	// `f` and `grad` were borrowed from https://play.golang.org/p/wWUH4E5LhP
	f := func(x []float64) float64 {
		sigma, kappa, lambda := optvarsToGreek(x)
		var mismatch float64
		for i, N := range concurrency {
			pred := concurrencyToThroughput(N, sigma, kappa, lambda)
			truth := throughput[i]
			mismatch += (pred - truth) * (pred - truth)
		}
		return mismatch
	}

	grad := func(grad, x []float64) {
		for i := range grad {
			grad[i] = 0
		}
		sigma, kappa, lambda := optvarsToGreek(x)
		dSigmaDX, dKappaDX, dLambdaDX := optvarsToGreekDeriv(x)
		for i, N := range concurrency {
			pred := concurrencyToThroughput(N, sigma, kappa, lambda)
			truth := throughput[i]

			dMismatchDPred := 2 * (pred - truth)
			dPredDSigma, dPredDKappa, dPredDLambda := concurrencyToThroughputDeriv(N, sigma, kappa, lambda)

			grad[0] += dMismatchDPred * dPredDSigma * dSigmaDX
			grad[1] += dMismatchDPred * dPredDKappa * dKappaDX
			grad[2] += dMismatchDPred * dPredDLambda * dLambdaDX
		}
	}

	problem := optimize.Problem{
		Func: f,
		Grad: grad,
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-2,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 20,
		},
	}

	initX := []float64{0, -1, -3} // make sure they all start positive
	result, err := optimize.Minimize(problem, initX, settings, nil)
	if err != nil {
		log.Warnf("optimization error: %v", err)
	}
	if result == nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	fit := &Fit{}
	fit.Sigma, fit.Kappa, fit.Lambda = optvarsToGreek(result.X)

	if log.GetLevel() >= log.DebugLevel {
		for i, v := range throughput {
			N := concurrency[i]
			pred := concurrencyToThroughput(N, fit.Sigma, fit.Kappa, fit.Lambda)
			log.Debugf("true %+v pred %+v", v, pred)
		}
	}

	fit.MaxConcurrency = math.Floor(math.Sqrt((1 - fit.Sigma) / fit.Kappa))
	fit.MaxRps = concurrencyToThroughput(fit.MaxConcurrency, fit.Sigma, fit.Kappa, fit.Lambda)
	return fit, nil
}

// These math functions were borrowed from https://play.golang.org/p/wWUH4E5LhP
func optvarsToGreek(x []float64) (sigma, kappa, lambda float64) {
	return math.Exp(x[0]), math.Exp(x[1]), math.Exp(x[2])
}

func optvarsToGreekDeriv(x []float64) (dSigmaDX, dKappaDX, dLambdaDX float64) {
	return math.Exp(x[0]), math.Exp(x[1]), math.Exp(x[2])
}

func concurrencyToThroughput(concurrency, sigma, kappa, lambda float64) float64 {
	N := concurrency
	return lambda * N / (1 + sigma*(N-1) + kappa*N*(N-1))
}

func concurrencyToThroughputDeriv(concurrency, sigma, kappa, lambda float64) (dSigma, dKappa, dLambda float64) {
	// X(N) = lambda * N / (1 + sigma*(N-1) + kappa*N*(N-1))
	N := concurrency
	num := lambda * N
	denom := 1 + sigma*(N-1) + kappa*N*(N-1)
	dSigma = -(num / (denom * denom)) * (N - 1)
	dKappa = -(num / (denom * denom)) * (N - 1) * N
	dLambda = N / denom
	return dSigma, dKappa, dLambda
}
