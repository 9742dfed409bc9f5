package probe

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"syscall"
	"time"

	pkgerrors "sethosts/pkg/errors"
)

// Candidate is one probe target: an IP that may serve a hostname, or a
// bare DNS server address. Candidates are immutable once enumerated.
type Candidate struct {
	IP       netip.Addr
	Hostname string // empty for DNS server candidates
	Port     int    // 443 for host IPs, 53 for DNS servers
}

// HostPort returns the dialable "ip:port" form, bracketing IPv6 addresses.
func (c Candidate) HostPort() string {
	return net.JoinHostPort(c.IP.String(), strconv.Itoa(c.Port))
}

// IsIPv6 reports whether the candidate address is IPv6.
func (c Candidate) IsIPv6() bool {
	return c.IP.Is6() && !c.IP.Is4In6()
}

// FailureReason classifies why a probe failed.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonTimeout
	ReasonRefused
	ReasonNoRoute
	ReasonResolution
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonTimeout:
		return "timeout"
	case ReasonRefused:
		return "refused"
	case ReasonNoRoute:
		return "no-route"
	case ReasonResolution:
		return "resolution-error"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for the reason, nil for ReasonNone.
func (r FailureReason) Err() error {
	switch r {
	case ReasonTimeout:
		return pkgerrors.ErrProbeTimeout
	case ReasonRefused:
		return pkgerrors.ErrProbeRefused
	case ReasonNoRoute:
		return pkgerrors.ErrProbeNoRoute
	case ReasonResolution:
		return pkgerrors.ErrResolutionFailure
	default:
		return nil
	}
}

// Classify maps a network error onto the failure taxonomy.
func Classify(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonResolution
	}
	if errors.Is(err, pkgerrors.ErrResolutionFailure) {
		return ReasonResolution
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return ReasonRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return ReasonNoRoute
	}
	return ReasonRefused
}

// Result holds the outcome of a single probe. A successful probe carries a
// non-negative latency; a failed probe carries a classified reason and the
// underlying error. Results are never mutated after creation.
type Result struct {
	Candidate Candidate
	Latency   time.Duration
	Reason    FailureReason
	Err       error
}

// OK reports whether the probe succeeded.
func (r Result) OK() bool { return r.Err == nil }

func success(c Candidate, latency time.Duration) Result {
	return Result{Candidate: c, Latency: latency}
}

func failure(c Candidate, reason FailureReason, err error) Result {
	return Result{
		Candidate: c,
		Reason:    reason,
		Err:       &pkgerrors.ProbeError{Target: c.HostPort(), Err: err},
	}
}
