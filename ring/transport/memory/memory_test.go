package memory

import (
	"testing"
	"time"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
)

const testTimeout = 100 * time.Millisecond

func TestExchangeRoundTrip(t *testing.T) {
	net := NewNetwork()

	server := net.NewTransport(testTimeout)
	if err := server.Listen("10.0.0.1"); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	client := net.NewTransport(testTimeout)

	done := make(chan struct{})
	go func() {
		defer close(done)
		delivery, ok := server.Next()
		if !ok {
			t.Error("Expected a delivery")
			return
		}
		if string(delivery.Payload) != "ping" {
			t.Errorf("Expected ping, got %q", delivery.Payload)
		}
		if err := delivery.Reply([]byte("pong")); err != nil {
			t.Errorf("Reply failed: %v", err)
		}
	}()

	resp, err := client.Exchange("10.0.0.1", []byte("ping"))
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if string(resp) != "pong" {
		t.Errorf("Expected pong, got %q", resp)
	}
	<-done
}

func TestNextTimesOut(t *testing.T) {
	net := NewNetwork()
	server := net.NewTransport(10 * time.Millisecond)
	server.Listen("10.0.0.1")

	start := time.Now()
	_, ok := server.Next()
	if ok {
		t.Error("Expected timeout, got a delivery")
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Next returned before the bound elapsed")
	}
}

func TestExchangeWithUnknownPeerTimesOut(t *testing.T) {
	net := NewNetwork()
	client := net.NewTransport(10 * time.Millisecond)

	_, err := client.Exchange("10.0.0.99", []byte("ping"))
	if !transport.IsTimeout(err) {
		t.Errorf("Expected a timeout error, got: %v", err)
	}
}

func TestPartitionedPeerTimesOut(t *testing.T) {
	net := NewNetwork()

	server := net.NewTransport(10 * time.Millisecond)
	server.Listen("10.0.0.1")
	client := net.NewTransport(10 * time.Millisecond)

	net.Partition("10.0.0.1")
	_, err := client.Exchange("10.0.0.1", []byte("ping"))
	if !transport.IsTimeout(err) {
		t.Errorf("Expected a timeout error, got: %v", err)
	}

	// After healing the exchange works again.
	net.Heal("10.0.0.1")
	go func() {
		if delivery, ok := server.Next(); ok {
			delivery.Reply([]byte("ok"))
		}
	}()
	resp, err := client.Exchange("10.0.0.1", []byte("ping"))
	if err != nil {
		t.Fatalf("Exchange after heal failed: %v", err)
	}
	if string(resp) != "ok" {
		t.Errorf("Expected ok, got %q", resp)
	}
}

func TestDuplicateListenRejected(t *testing.T) {
	net := NewNetwork()
	a := net.NewTransport(testTimeout)
	b := net.NewTransport(testTimeout)

	if err := a.Listen("10.0.0.1"); err != nil {
		t.Fatalf("First listen failed: %v", err)
	}
	if err := b.Listen("10.0.0.1"); err == nil {
		t.Error("Expected second listen on the same address to fail")
	}
}
