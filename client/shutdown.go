package client

import "sync"

// Shutdown is a one-way flag telling workers to stop after their current
// call. It can be triggered any number of times; only the first has effect.
type Shutdown struct {
	once sync.Once
	done chan struct{}
}

// NewShutdown returns an untriggered flag.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Trigger sets the flag. It reports whether this call was the one that set it.
func (s *Shutdown) Trigger() bool {
	triggered := false
	s.once.Do(func() {
		close(s.done)
		triggered = true
	})
	return triggered
}

// Triggered reports whether the flag has been set. It never blocks.
func (s *Shutdown) Triggered() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the flag is set.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}
