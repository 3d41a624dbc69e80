// Package endpoints spreads workers across a set of server replicas that
// listen on consecutive ports.
package endpoints

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrNoReplicas is returned when a table is requested for zero replicas.
var ErrNoReplicas = errors.New("replica count must be at least 1")

// Table is the ordered list of replica addresses. Entry i listens on the
// base port plus i. A Table is never empty.
type Table []string

// New builds a Table of replicas addresses starting at base, which must be
// a host:port pair.
func New(base string, replicas uint) (Table, error) {
	if replicas < 1 {
		return nil, ErrNoReplicas
	}

	host, port, err := splitBase(base)
	if err != nil {
		return nil, err
	}

	if port+int(replicas)-1 > 65535 {
		return nil, fmt.Errorf("%d replicas starting at port %d exceed the port range", replicas, port)
	}

	table := make(Table, replicas)
	for i := range table {
		table[i] = net.JoinHostPort(host, strconv.Itoa(port+i))
	}
	return table, nil
}

// For returns the address worker index is bound to.
func (t Table) For(index uint) string {
	return t[Replica(index, uint(len(t)))]
}

// Replica maps a worker index to a replica offset by round-robin.
// replicas must be at least 1.
func Replica(index, replicas uint) uint {
	return index % replicas
}

func splitBase(base string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(base)
	if err != nil {
		return "", 0, fmt.Errorf("invalid base address %q: %w", base, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in base address %q", base)
	}

	return host, port, nil
}
