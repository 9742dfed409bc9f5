// Package hostsmap assembles selector output into hostname→IP resolution
// records ready for serialization.
package hostsmap

import (
	"net/netip"
	"time"

	"sethosts/internal/rank"
	pkgerrors "sethosts/pkg/errors"
)

// HostIP is one selected address with the latency that earned its rank.
type HostIP struct {
	Addr    netip.Addr
	Latency time.Duration
}

// IsIPv6 reports whether the address is IPv6.
func (h HostIP) IsIPv6() bool { return h.Addr.Is6() && !h.Addr.Is4In6() }

// Record maps one hostname to its ranked addresses, fastest first.
// Addresses within a record are unique and the list never exceeds the
// configured per-host cap.
type Record struct {
	Hostname string
	IPs      []HostIP
}

// Builder accumulates records across groups. When DedupeAcrossHosts is set,
// an IP already assigned to an earlier (faster-ranked) hostname is dropped
// from later records; otherwise the same IP may legitimately serve several
// hostnames.
type Builder struct {
	MaxPerHost        int
	DedupeAcrossHosts bool

	Cutoff time.Duration // recorded for zero-result reporting only

	claimed map[netip.Addr]string
	records []Record
}

// NewBuilder creates a Builder. maxPerHost <= 0 means no cap.
func NewBuilder(maxPerHost int, dedupe bool) *Builder {
	return &Builder{
		MaxPerHost:        maxPerHost,
		DedupeAcrossHosts: dedupe,
		claimed:           make(map[netip.Addr]string),
	}
}

// Add appends a record for hostname built from a selection. The per-record
// invariants (uniqueness, cap) are enforced here regardless of what the
// selector produced. A selection that yields zero addresses returns a
// *HostError wrapping ErrNoUsableHosts; no record is emitted for it.
func (b *Builder) Add(hostname string, selection rank.RankedSet) error {
	rec := Record{Hostname: hostname}
	seen := make(map[netip.Addr]bool)

	for _, e := range selection {
		if b.MaxPerHost > 0 && len(rec.IPs) == b.MaxPerHost {
			break
		}
		addr := e.Candidate.IP
		if seen[addr] {
			continue
		}
		if b.DedupeAcrossHosts {
			if owner, taken := b.claimed[addr]; taken && owner != hostname {
				continue
			}
		}
		seen[addr] = true
		rec.IPs = append(rec.IPs, HostIP{Addr: addr, Latency: e.Latency})
	}

	if len(rec.IPs) == 0 {
		return &pkgerrors.HostError{Hostname: hostname, Cutoff: b.Cutoff}
	}

	if b.DedupeAcrossHosts {
		for _, ip := range rec.IPs {
			b.claimed[ip.Addr] = hostname
		}
	}
	b.records = append(b.records, rec)
	return nil
}

// Records returns the accumulated records in insertion order.
func (b *Builder) Records() []Record {
	return b.records
}
