package queue

import (
	"net"
	"time"
)

const DefaultProbeTimeout = 500 * time.Millisecond

// Probe reports whether a TCP connection to addr completes within timeout.
// It is advisory only: a successful probe does not guarantee the subsequent
// queue construction will succeed, so construction failure is handled
// independently by the registry.
func Probe(addr string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
