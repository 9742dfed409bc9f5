package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error types
var (
	// Probe errors
	ErrProbeTimeout      = errors.New("probe timed out")
	ErrProbeRefused      = errors.New("connection refused")
	ErrProbeNoRoute      = errors.New("no route to host")
	ErrResolutionFailure = errors.New("resolution failed")
	ErrDeadlineExceeded  = errors.New("global probe deadline exceeded")

	// Selection errors
	ErrNoUsableHosts = errors.New("no usable hosts")
	ErrNoCandidates  = errors.New("no candidates to probe")

	// Group errors
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupEmpty    = errors.New("group has no domains")

	// Record cache errors
	ErrRecordNotFound = errors.New("no cached record")
	ErrRecordExpired  = errors.New("cached record expired")

	// Web lookup errors
	ErrLookupFetchFailed = errors.New("failed to fetch web records")
	ErrLookupNoRecords   = errors.New("web lookup returned no records")

	// Hosts file errors
	ErrHostsNotWritable = errors.New("hosts file is not writable")
	ErrNotElevated      = errors.New("administrator privileges required")
)

// ProbeError wraps a probe failure with its target.
type ProbeError struct {
	Target string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Target, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// GroupError represents a failure while processing one domain group.
type GroupError struct {
	Group string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group '%s': %v", e.Group, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}

// HostError reports that a required hostname ended up with zero usable IPs.
// It wraps ErrNoUsableHosts so callers can match the condition with errors.Is
// while still seeing which hostname was affected and what cutoff was in force.
type HostError struct {
	Hostname string
	Cutoff   time.Duration
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host '%s': no IPs under %s", e.Hostname, e.Cutoff)
}

func (e *HostError) Unwrap() error {
	return ErrNoUsableHosts
}

// LookupError represents a web record lookup failure for a domain.
type LookupError struct {
	Domain string
	URL    string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup '%s': %v", e.Domain, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
