// Package refserver holds the reference Greeter handler.
package refserver

import (
	"golang.org/x/net/context"
	pb "google.golang.org/grpc/examples/helloworld/helloworld"
)

// Greeter answers every SayHello with a greeting for the requested name.
// It holds no state and is safe for concurrent use.
type Greeter struct {
	pb.UnimplementedGreeterServer
}

// Greeting returns the reply message for name.
func Greeting(name string) string {
	return "Hello " + name + "!"
}

// SayHello implements helloworld.GreeterServer.
func (*Greeter) SayHello(ctx context.Context, in *pb.HelloRequest) (*pb.HelloReply, error) {
	return &pb.HelloReply{Message: Greeting(in.GetName())}, nil
}
