package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Strategy defines how a single latency measurement is performed against
// one candidate.
type Strategy interface {
	// Name returns the strategy identifier ("tcp" or "dns").
	Name() string
	// Probe performs one measurement and returns the round-trip time.
	// All failures are returned as errors; Probe never panics.
	Probe(ctx context.Context, c Candidate) (time.Duration, error)
}

// TCPStrategy measures latency via a TCP handshake to the candidate's
// ip:port. When Samples > 1, that many handshakes run concurrently and the
// reported latency is the mean of the successful ones; a candidate with zero
// successful samples fails with the last error seen.
type TCPStrategy struct {
	Samples int
}

func (s *TCPStrategy) Name() string { return "tcp" }

func (s *TCPStrategy) Probe(ctx context.Context, c Candidate) (time.Duration, error) {
	n := s.Samples
	if n <= 0 {
		n = 1
	}

	type sample struct {
		elapsed time.Duration
		err     error
	}
	samples := make(chan sample, n)

	for i := 0; i < n; i++ {
		go func() {
			dialer := net.Dialer{}
			start := time.Now()
			conn, err := dialer.DialContext(ctx, "tcp", c.HostPort())
			if err != nil {
				samples <- sample{err: err}
				return
			}
			elapsed := time.Since(start)
			conn.Close()
			samples <- sample{elapsed: elapsed}
		}()
	}

	var total time.Duration
	var succeeded int
	var lastErr error
	for i := 0; i < n; i++ {
		s := <-samples
		if s.err != nil {
			lastErr = s.err
			continue
		}
		total += s.elapsed
		succeeded++
	}

	if succeeded == 0 {
		return 0, fmt.Errorf("tcp handshake failed: %w", lastErr)
	}
	return total / time.Duration(succeeded), nil
}

// NewStrategy creates a Strategy by name. Valid names: "tcp", "dns".
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "tcp", "":
		return &TCPStrategy{Samples: DefaultSamples}, nil
	case "dns":
		return &DNSStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown probe strategy: %s (available: tcp, dns)", name)
	}
}

// DefaultSamples is the number of TCP handshakes averaged per measurement.
const DefaultSamples = 4
