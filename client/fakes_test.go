package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var errUnavailable = errors.New("rpc error: code = Unavailable desc = replica down")

type fakeCaller struct {
	address string
	dialer  *fakeDialer
	closed  atomic.Bool
}

func (f *fakeCaller) SayHello(ctx context.Context, name string) (string, error) {
	f.dialer.countCall(f.address)
	if f.dialer.callErr != nil {
		return "", f.dialer.callErr
	}
	return "Hello " + name + "!", nil
}

func (f *fakeCaller) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeDialer hands out in-memory callers and records which addresses were
// dialed and called.
type fakeDialer struct {
	callErr  error
	failAddr string

	mu      sync.Mutex
	dials   map[string]int
	calls   map[string]int
	callers []*fakeCaller
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dials: map[string]int{}, calls: map[string]int{}}
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (Caller, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if address == d.failAddr {
		return nil, errors.New("connection refused")
	}

	d.dials[address]++
	c := &fakeCaller{address: address, dialer: d}
	d.callers = append(d.callers, c)
	return c, nil
}

func (d *fakeDialer) countCall(address string) {
	d.mu.Lock()
	d.calls[address]++
	d.mu.Unlock()
}

func (d *fakeDialer) dialCounts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := map[string]int{}
	for k, v := range d.dials {
		out[k] = v
	}
	return out
}

func (d *fakeDialer) callCounts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := map[string]int{}
	for k, v := range d.calls {
		out[k] = v
	}
	return out
}

func (d *fakeDialer) allClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.callers {
		if !c.closed.Load() {
			return false
		}
	}
	return true
}

// scriptedCaller returns the scripted outcome for each call and triggers
// shutdown when the script runs out.
type scriptedCaller struct {
	outcomes []error
	shutdown *Shutdown
	calls    int
}

func (s *scriptedCaller) SayHello(ctx context.Context, name string) (string, error) {
	err := s.outcomes[s.calls]
	s.calls++
	if s.calls == len(s.outcomes) {
		s.shutdown.Trigger()
	}
	if err != nil {
		return "", err
	}
	return "Hello " + name + "!", nil
}

func (s *scriptedCaller) Close() error { return nil }
