// Package refclient issues a single SayHello call, mostly useful to check
// that a replica is reachable before starting a load test.
package refclient

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/buoyantio/strest-hello/client"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Config configures a single call.
type Config struct {
	Address string
	Name    string
	// Timeout bounds connecting and the call together; zero means none.
	Timeout time.Duration

	// Dialer defaults to client.GRPCDialer.
	Dialer client.Dialer
	// Out defaults to os.Stdout.
	Out io.Writer
}

// Run connects, greets once and prints the reply.
func (cfg Config) Run(ctx context.Context) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = client.GRPCDialer{}
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	log.Infof("connecting to %s", cfg.Address)
	conn, err := dialer.Dial(ctx, cfg.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	msg, err := conn.SayHello(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("SayHello(%q) to %s: %w", cfg.Name, cfg.Address, err)
	}

	fmt.Fprintln(out, msg)
	return nil
}
