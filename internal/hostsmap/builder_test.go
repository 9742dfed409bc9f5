package hostsmap

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"sethosts/internal/probe"
	"sethosts/internal/rank"
	pkgerrors "sethosts/pkg/errors"
)

func entry(ip string, ms int) rank.Entry {
	return rank.Entry{
		Candidate: probe.Candidate{IP: netip.MustParseAddr(ip), Port: 443},
		Latency:   time.Duration(ms) * time.Millisecond,
	}
}

func TestBuilderCapsAndOrdersRecord(t *testing.T) {
	b := NewBuilder(2, false)
	selection := rank.RankedSet{entry("10.0.0.1", 10), entry("10.0.0.2", 20), entry("10.0.0.3", 30)}

	if err := b.Add("example.com", selection); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	records := b.Records()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if len(rec.IPs) != 2 {
		t.Fatalf("record has %d IPs, want cap of 2", len(rec.IPs))
	}
	if rec.IPs[0].Latency > rec.IPs[1].Latency {
		t.Error("record IPs not in rank order")
	}
}

func TestBuilderDeduplicatesWithinRecord(t *testing.T) {
	b := NewBuilder(0, false)
	selection := rank.RankedSet{entry("10.0.0.1", 10), entry("10.0.0.1", 12), entry("10.0.0.2", 20)}

	if err := b.Add("example.com", selection); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if got := len(b.Records()[0].IPs); got != 2 {
		t.Errorf("record has %d IPs, want 2 after dedupe", got)
	}
}

func TestBuilderAllowsSharedIPAcrossHostsByDefault(t *testing.T) {
	b := NewBuilder(1, false)
	selection := rank.RankedSet{entry("10.0.0.1", 10)}

	if err := b.Add("a.example.com", selection); err != nil {
		t.Fatal(err)
	}
	if err := b.Add("b.example.com", selection); err != nil {
		t.Fatalf("shared IP rejected without dedupe enabled: %v", err)
	}
	if len(b.Records()) != 2 {
		t.Fatalf("got %d records, want 2", len(b.Records()))
	}
}

func TestBuilderDedupeAcrossHostsKeepsFirstOwner(t *testing.T) {
	b := NewBuilder(2, true)

	if err := b.Add("a.example.com", rank.RankedSet{entry("10.0.0.1", 10)}); err != nil {
		t.Fatal(err)
	}
	err := b.Add("b.example.com", rank.RankedSet{entry("10.0.0.1", 10), entry("10.0.0.2", 20)})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	records := b.Records()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	second := records[1]
	if len(second.IPs) != 1 || second.IPs[0].Addr != netip.MustParseAddr("10.0.0.2") {
		t.Errorf("second record = %v, want only 10.0.0.2", second.IPs)
	}
}

func TestBuilderDedupeCanEmptyARecord(t *testing.T) {
	b := NewBuilder(1, true)

	if err := b.Add("a.example.com", rank.RankedSet{entry("10.0.0.1", 10)}); err != nil {
		t.Fatal(err)
	}
	err := b.Add("b.example.com", rank.RankedSet{entry("10.0.0.1", 10)})
	if !errors.Is(err, pkgerrors.ErrNoUsableHosts) {
		t.Fatalf("Add() = %v, want ErrNoUsableHosts", err)
	}
	if len(b.Records()) != 1 {
		t.Errorf("empty record was emitted")
	}
}

func TestBuilderEmptySelectionSignalsZeroResult(t *testing.T) {
	b := NewBuilder(3, false)
	b.Cutoff = 300 * time.Millisecond

	err := b.Add("example.com", nil)
	if err == nil {
		t.Fatal("Add() accepted an empty selection silently")
	}
	if !errors.Is(err, pkgerrors.ErrNoUsableHosts) {
		t.Errorf("err = %v, want ErrNoUsableHosts", err)
	}
	var hostErr *pkgerrors.HostError
	if !errors.As(err, &hostErr) || hostErr.Hostname != "example.com" {
		t.Errorf("err = %v, want *HostError for example.com", err)
	}
	if len(b.Records()) != 0 {
		t.Error("record emitted for empty selection")
	}
}
