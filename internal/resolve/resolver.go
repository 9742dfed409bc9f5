// Package resolve enumerates candidate IPs for a domain from a resolver
// pool, a persistent record cache, and a web record lookup fallback.
package resolve

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"time"

	"github.com/miekg/dns"

	"sethosts/internal/storage"
	"sethosts/internal/storage/models"
	pkgerrors "sethosts/pkg/errors"
)

// Config holds configuration for the Resolver.
type Config struct {
	Servers     []string      // resolver pool, IP literals with optional port
	Timeout     time.Duration // per-server query budget
	CacheExpiry time.Duration // cached record lifetime

	Store storage.Storage // optional record cache
	Web   *WebLookup      // optional web record fallback
}

// Resolver turns a domain into a deduplicated, stably ordered candidate
// address set.
type Resolver struct {
	servers     []string
	timeout     time.Duration
	cacheExpiry time.Duration
	store       storage.Storage
	web         *WebLookup
	client      *dns.Client
}

// New creates a new Resolver.
func New(cfg Config) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	servers := make([]string, len(cfg.Servers))
	for i, s := range cfg.Servers {
		servers[i] = serverAddr(s)
	}
	return &Resolver{
		servers:     servers,
		timeout:     cfg.Timeout,
		cacheExpiry: cfg.CacheExpiry,
		store:       cfg.Store,
		web:         cfg.Web,
		client:      &dns.Client{Timeout: cfg.Timeout},
	}
}

// serverAddr normalizes a resolver pool entry to host:port.
func serverAddr(s string) string {
	if _, err := netip.ParseAddr(s); err == nil {
		return net.JoinHostPort(s, "53")
	}
	return s
}

// Resolve returns every known address for domain: answers from the first
// pool server that responds, cached records when fresh, and a web lookup
// when nothing is cached. The result is deduplicated and sorted so the
// enumeration order is identical across runs with identical data.
func (r *Resolver) Resolve(ctx context.Context, domain string) ([]netip.Addr, error) {
	var addrs []netip.Addr

	addrs = append(addrs, r.resolveViaDNS(ctx, domain)...)

	cached := false
	if r.store != nil {
		record, err := r.store.GetRecord(ctx, domain, r.cacheExpiry)
		if err == nil {
			cached = true
			addrs = append(addrs, parseAddrs(record.Addrs())...)
		}
	}

	if !cached && r.web != nil {
		ipv4, ipv6, err := r.web.Lookup(ctx, domain)
		if err == nil {
			addrs = append(addrs, parseAddrs(ipv4)...)
			addrs = append(addrs, parseAddrs(ipv6)...)
			if r.store != nil {
				r.store.UpsertRecord(ctx, &models.DNSRecord{
					Domain: domain,
					IPv4:   ipv4,
					IPv6:   ipv6,
					Source: models.SourceWeb,
				})
			}
		}
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no addresses for %s", pkgerrors.ErrResolutionFailure, domain)
	}
	return Dedupe(addrs), nil
}

// resolveViaDNS queries the pool in order and keeps the answers of the
// first server that returns any.
func (r *Resolver) resolveViaDNS(ctx context.Context, domain string) []netip.Addr {
	for _, server := range r.servers {
		var addrs []netip.Addr
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			addrs = append(addrs, r.query(ctx, server, domain, qtype)...)
		}
		if len(addrs) > 0 {
			return addrs
		}
	}
	return nil
}

func (r *Resolver) query(ctx context.Context, server, domain string, qtype uint16) []netip.Addr {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)

	resp, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return nil
	}

	var addrs []netip.Addr
	for _, rr := range resp.Answer {
		var ip net.IP
		switch record := rr.(type) {
		case *dns.A:
			ip = record.A
		case *dns.AAAA:
			ip = record.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return addrs
}

// parseAddrs parses IP literals, silently dropping malformed entries.
func parseAddrs(literals []string) []netip.Addr {
	addrs := make([]netip.Addr, 0, len(literals))
	for _, s := range literals {
		if addr, err := netip.ParseAddr(s); err == nil {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return addrs
}

// Dedupe sorts addresses (IPv4 before IPv6) and removes duplicates,
// producing the stable enumeration order the ranking tie-break depends on.
func Dedupe(addrs []netip.Addr) []netip.Addr {
	out := append([]netip.Addr(nil), addrs...)
	slices.SortFunc(out, netip.Addr.Compare)
	return slices.Compact(out)
}
