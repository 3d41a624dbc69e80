package cmd

import (
	"github.com/buoyantio/strest-hello/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCfg = server.Config{}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run one or more strest-hello Greeter replicas",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if err := serverCfg.Run(ctx); err != nil {
			log.Fatalf("server: %v", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(serverCmd)
	flags := serverCmd.Flags()
	flags.UintVarP(&serverCfg.Instances, "instances", "n", 1, "number of replicas, each listening on the next port")
	flags.StringVar(&serverCfg.Address, "address", "0.0.0.0:18888", "address of the first replica")
	flags.StringVar(&serverCfg.LatencyPercentiles, "latencyPercentiles", "100=0", "artificial latency percentile distribution in ms. (e.g. 50=10,100=100)")
	flags.Float64Var(&serverCfg.ErrorRate, "errorRate", 0.0, "the chance to return an error")
	flags.StringVar(&serverCfg.MetricAddr, "metricAddr", "", "address to serve metrics on")
}
