package client

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	pb "google.golang.org/grpc/examples/helloworld/helloworld"
)

// Caller is an open connection able to issue SayHello calls.
type Caller interface {
	SayHello(ctx context.Context, name string) (string, error)
	Close() error
}

// Dialer opens a Caller to a single address. Dial returns only once the
// connection is usable, or fails.
type Dialer interface {
	Dial(ctx context.Context, address string) (Caller, error)
}

// GRPCDialer dials Greeter servers over plaintext gRPC. Options are appended
// after the transport credentials.
type GRPCDialer struct {
	Options []grpc.DialOption
}

// Dial connects to address and waits until the connection is ready. It
// fails as soon as the first connection attempt fails, or when ctx is done.
func (d GRPCDialer) Dial(ctx context.Context, address string) (Caller, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	opts = append(opts, d.Options...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("did not connect to %s: %w", address, err)
	}

	log.Debugf("connecting to %s", address)
	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			break
		}
		if state == connectivity.TransientFailure || state == connectivity.Shutdown {
			conn.Close()
			return nil, fmt.Errorf("did not connect to %s: connection state %s", address, state)
		}
		if !conn.WaitForStateChange(ctx, state) {
			conn.Close()
			return nil, fmt.Errorf("did not connect to %s (last state %s): %w", address, state, ctx.Err())
		}
	}

	return &greeterConn{conn: conn, client: pb.NewGreeterClient(conn)}, nil
}

type greeterConn struct {
	conn   *grpc.ClientConn
	client pb.GreeterClient
}

func (g *greeterConn) SayHello(ctx context.Context, name string) (string, error) {
	reply, err := g.client.SayHello(ctx, &pb.HelloRequest{Name: name})
	if err != nil {
		return "", err
	}
	return reply.GetMessage(), nil
}

func (g *greeterConn) Close() error {
	return g.conn.Close()
}
