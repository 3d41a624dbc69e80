package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

// RootCmd is the strest-hello command; every mode is a subcommand.
var RootCmd = &cobra.Command{
	Use:   "strest-hello [client | server | ref-client | max-rps]",
	Short: "A load tester for gRPC Greeter services.",
	Long: `A load tester for gRPC Greeter services.

The client opens one connection per worker, spread round-robin across
replicas listening on consecutive ports, and issues SayHello calls as
fast as each round trip allows until interrupted.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

// signalContext is done on the first SIGINT or SIGTERM. It is the only
// place the process listens for signals.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "logLevel", log.InfoLevel.String(), "log level, one of [panic fatal error warn info debug trace]")
}
