package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	pkgerrors "sethosts/pkg/errors"
)

const defaultQueryDomain = "www.github.com"

// DNSStrategy measures a DNS server candidate by issuing an A query for a
// reference domain and timing the exchange. The server must answer with
// RcodeSuccess for the probe to count; a reachable server that cannot
// resolve the reference domain is reported as a resolution failure.
type DNSStrategy struct {
	// QueryDomain is the name resolved against the candidate server.
	QueryDomain string
}

func (s *DNSStrategy) Name() string { return "dns" }

func (s *DNSStrategy) Probe(ctx context.Context, c Candidate) (time.Duration, error) {
	domain := s.QueryDomain
	if domain == "" {
		domain = defaultQueryDomain
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)

	client := &dns.Client{}
	resp, rtt, err := client.ExchangeContext(ctx, msg, c.HostPort())
	if err != nil {
		return 0, fmt.Errorf("dns exchange failed: %w", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return 0, fmt.Errorf("%w: %s for %s",
			pkgerrors.ErrResolutionFailure, dns.RcodeToString[resp.Rcode], domain)
	}
	return rtt, nil
}
