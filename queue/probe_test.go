package queue

import (
	"net"
	"testing"
)

func TestProbe(t *testing.T) {
	t.Run("reachable endpoint", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		defer ln.Close()

		if !Probe(ln.Addr().String(), 0) {
			t.Errorf("expected probe of %s to succeed", ln.Addr())
		}
	})

	t.Run("closed endpoint", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		if Probe(addr, 0) {
			t.Errorf("expected probe of closed %s to fail", addr)
		}
	})

	t.Run("unresolvable host", func(t *testing.T) {
		if Probe("host.invalid:6379", 0) {
			t.Error("expected probe of unresolvable host to fail")
		}
	})
}
