package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"testing"
	"time"
)

func TestCandidateHostPort(t *testing.T) {
	tests := []struct {
		ip   string
		port int
		want string
	}{
		{"10.0.0.1", 443, "10.0.0.1:443"},
		{"2001:db8::1", 53, "[2001:db8::1]:53"},
	}
	for _, tt := range tests {
		c := Candidate{IP: netip.MustParseAddr(tt.ip), Port: tt.port}
		if got := c.HostPort(); got != tt.want {
			t.Errorf("HostPort(%s) = %s, want %s", tt.ip, got, tt.want)
		}
	}
}

func TestCandidateIsIPv6(t *testing.T) {
	if (Candidate{IP: netip.MustParseAddr("10.0.0.1")}).IsIPv6() {
		t.Error("IPv4 reported as IPv6")
	}
	if !(Candidate{IP: netip.MustParseAddr("2001:db8::1")}).IsIPv6() {
		t.Error("IPv6 not reported as IPv6")
	}
	if (Candidate{IP: netip.MustParseAddr("::ffff:10.0.0.1")}).IsIPv6() {
		t.Error("IPv4-mapped address reported as IPv6")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"nil", nil, ReasonNone},
		{"context deadline", context.DeadlineExceeded, ReasonTimeout},
		{"wrapped deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), ReasonTimeout},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), ReasonRefused},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ReasonRefused},
		{"host unreachable", fmt.Errorf("dial: %w", syscall.EHOSTUNREACH), ReasonNoRoute},
		{"net unreachable", fmt.Errorf("dial: %w", syscall.ENETUNREACH), ReasonNoRoute},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, ReasonResolution},
		{"unknown", errors.New("weird"), ReasonRefused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyNetTimeout(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: &timeoutErr{}}
	if got := Classify(err); got != ReasonTimeout {
		t.Errorf("Classify(net timeout) = %s, want %s", got, ReasonTimeout)
	}
}

type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }

func TestTCPStrategyMeasuresLocalListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	c := Candidate{IP: netip.MustParseAddr("127.0.0.1"), Port: port}

	strategy := &TCPStrategy{Samples: 3}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	elapsed, err := strategy.Probe(ctx, c)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if elapsed <= 0 {
		t.Errorf("elapsed = %s, want > 0", elapsed)
	}
}

func TestTCPStrategyRefusedPort(t *testing.T) {
	// Grab a free port and close it so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	c := Candidate{IP: netip.MustParseAddr("127.0.0.1"), Port: port}
	strategy := &TCPStrategy{Samples: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := strategy.Probe(ctx, c); err == nil {
		t.Fatal("Probe() succeeded against a closed port")
	} else if got := Classify(err); got != ReasonRefused {
		t.Errorf("Classify() = %s, want %s", got, ReasonRefused)
	}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"", "tcp", "dns"} {
		if _, err := NewStrategy(name); err != nil {
			t.Errorf("NewStrategy(%q) error: %v", name, err)
		}
	}
	if _, err := NewStrategy("icmp"); err == nil {
		t.Error("NewStrategy accepted an unknown strategy")
	}
}
