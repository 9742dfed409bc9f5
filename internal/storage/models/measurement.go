package models

import "time"

// Measurement is one latency probe outcome for an IP.
type Measurement struct {
	ID           int64     `json:"id"`
	IP           string    `json:"ip"`
	Hostname     string    `json:"hostname,omitempty"`
	LatencyMS    *int64    `json:"latency_ms,omitempty"` // NULL if failed
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Strategy     string    `json:"strategy"` // tcp, dns
	ProbedAt     time.Time `json:"probed_at"`
}
