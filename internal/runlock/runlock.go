// Package runlock guards against concurrent intake runs on one host by
// binding a loopback TCP port. The bind either succeeds, proving no other
// holder exists, or fails because one does. The kernel releases the port
// even when the process dies without cleanup.
package runlock

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrLocked reports that another process already holds the lock port.
var ErrLocked = errors.New("runlock: port already held")

// Lock is a host-wide mutual exclusion handle backed by one TCP port.
type Lock struct {
	port     int
	listener net.Listener
}

// New creates a Lock for the given port. No resources are held until
// Acquire.
func New(port int) *Lock {
	return &Lock{port: port}
}

// Acquire binds the lock port. It returns ErrLocked when the port cannot
// be bound. Acquiring an already-held lock is a no-op.
func (l *Lock) Acquire() error {
	if l.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(l.port)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}
	l.listener = ln
	return nil
}

// Release closes the lock port. Safe to call without a held lock.
func (l *Lock) Release() error {
	if l.listener == nil {
		return nil
	}
	err := l.listener.Close()
	l.listener = nil
	return err
}
