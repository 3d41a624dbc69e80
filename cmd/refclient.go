package cmd

import (
	"time"

	"github.com/buoyantio/strest-hello/refclient"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var refClientCfg = refclient.Config{}

var refClientCmd = &cobra.Command{
	Use:   "ref-client",
	Short: "send a single SayHello and print the reply",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if err := refClientCfg.Run(ctx); err != nil {
			log.Fatalf("ref-client: %v", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(refClientCmd)
	flags := refClientCmd.Flags()
	flags.StringVar(&refClientCfg.Address, "address", "127.0.0.1:18888", "address of the Greeter replica")
	flags.StringVar(&refClientCfg.Name, "name", "world", "name to greet")
	flags.DurationVar(&refClientCfg.Timeout, "timeout", 5*time.Second, "timeout for connecting and the call")
}
