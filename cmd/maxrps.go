package cmd

import (
	"time"

	maxrps "github.com/buoyantio/strest-hello/max-rps"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var maxrpsCfg = maxrps.Config{}

var maxrpsCmd = &cobra.Command{
	Use:   "max-rps",
	Short: "compute max RPS",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if err := maxrpsCfg.Run(ctx); err != nil {
			log.Fatalf("max-rps: %v", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(maxrpsCmd)
	flags := maxrpsCmd.Flags()
	flags.StringVar(&maxrpsCfg.Address, "address", "127.0.0.1:18888", "hostname:port of the first Greeter replica or intermediary")
	flags.UintVar(&maxrpsCfg.Replicas, "replicas", 1, "number of replicas listening on consecutive ports")
	flags.StringVar(&maxrpsCfg.ConcurrencyLevels, "concurrencyLevels", "1,5,10,20,30", "levels of concurrency to test with")
	flags.DurationVar(&maxrpsCfg.TimePerLevel, "timePerLevel", 1*time.Second, "how much time to spend testing each concurrency level")
}
