package cmd

import (
	"time"

	"github.com/buoyantio/strest-hello/client"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var clientCfg = client.Config{}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "run the strest-hello load generating client",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if err := clientCfg.Run(ctx); err != nil {
			log.Fatalf("client: %v", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(clientCmd)
	flags := clientCmd.Flags()
	flags.UintVarP(&clientCfg.Concurrency, "concurrency", "c", 0, "number of concurrent workers, each with its own connection")
	flags.UintVarP(&clientCfg.Replicas, "replicas", "g", 1, "number of server replicas listening on consecutive ports; workers are spread round-robin")
	flags.UintVar(&clientCfg.WorkerThreads, "workerThreads", 0, "override the number of OS threads running workers. Default: number of CPUs")
	flags.StringVar(&clientCfg.Address, "address", "127.0.0.1:18888", "address of the first replica")
	flags.DurationVar(&clientCfg.Interval, "interval", time.Second, "reporting interval, 0 disables interval reports")
	flags.StringVar(&clientCfg.LatencyUnit, "latencyUnit", "ms", "latency units [ms|us|ns]")
	flags.DurationVar(&clientCfg.ClientTimeout, "clientTimeout", 0, "timeout for each call. Default: no timeout")
	flags.DurationVar(&clientCfg.ConnectTimeout, "connectTimeout", 5*time.Second, "how long every worker may take to connect before the run is aborted")
	flags.UintVar(&clientCfg.ErrorBufferSize, "errorBufferSize", 100, "errors kept per worker for the exit report, 0 keeps all")
	flags.StringVar(&clientCfg.MetricAddr, "metricAddr", "", "address to serve metrics on")
	flags.BoolVar(&clientCfg.NoFinalReport, "noFinalReport", false, "do not print the final report")
	clientCmd.MarkFlagRequired("concurrency")
}
