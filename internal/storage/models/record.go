package models

import "time"

// Record sources.
const (
	SourceDNS    = "dns"
	SourceWeb    = "web"
	SourceStatic = "static"
)

// DNSRecord is a cached set of resolved addresses for one domain.
type DNSRecord struct {
	ID        int64     `json:"id"`
	Domain    string    `json:"domain"`
	IPv4      []string  `json:"ipv4"`
	IPv6      []string  `json:"ipv6"`
	Source    string    `json:"source"` // dns, web, static
	FetchedAt time.Time `json:"fetched_at"`
}

// Addrs returns all cached addresses, IPv4 first.
func (r *DNSRecord) Addrs() []string {
	out := make([]string, 0, len(r.IPv4)+len(r.IPv6))
	out = append(out, r.IPv4...)
	out = append(out, r.IPv6...)
	return out
}

// Expired reports whether the record is older than maxAge.
func (r *DNSRecord) Expired(maxAge time.Duration, now time.Time) bool {
	return maxAge > 0 && now.Sub(r.FetchedAt) > maxAge
}
