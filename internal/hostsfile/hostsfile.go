// Package hostsfile rewrites the managed block of the system hosts file.
package hostsfile

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"sethosts/internal/hostsmap"
)

const (
	markerStart = "# sethosts start"
	markerEnd   = "# sethosts end"
)

// Path returns the hosts file location for the current OS.
func Path() (string, error) {
	switch runtime.GOOS {
	case "windows":
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return root + `\System32\drivers\etc\hosts`, nil
	case "linux", "darwin":
		return "/etc/hosts", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// Backup copies the hosts file to path+".bak". Missing file is not an error.
func Backup(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}
	if err := os.WriteFile(path+".bak", data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Update rewrites the managed block of the hosts file at path with the
// given records, backing up the original first. Lines outside the block
// are preserved; stale entries for hostnames we manage are removed.
func Update(path string, records []hostsmap.Record, now time.Time) error {
	if err := Backup(path); err != nil {
		return err
	}

	var existing []string
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}
	if err == nil {
		existing = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	merged := Merge(existing, records, now)
	content := strings.Join(merged, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write hosts file: %w", err)
	}
	return nil
}

// Merge produces the new hosts file lines: everything outside the previous
// managed block, minus stale entries for managed hostnames, followed by a
// fresh managed block.
func Merge(existing []string, records []hostsmap.Record, now time.Time) []string {
	managed := make(map[string]bool)
	for _, rec := range records {
		managed[rec.Hostname] = true
	}

	var out []string
	inBlock := false
	for _, line := range existing {
		trimmed := strings.TrimSpace(line)
		if trimmed == markerStart {
			inBlock = true
			continue
		}
		if trimmed == markerEnd {
			inBlock = false
			continue
		}
		if inBlock {
			continue
		}
		if fields := strings.Fields(trimmed); len(fields) >= 2 && !strings.HasPrefix(trimmed, "#") {
			if managed[fields[1]] {
				continue
			}
		}
		out = append(out, line)
	}

	// Trim trailing blank lines before appending the block.
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}

	out = append(out, "", markerStart)
	for _, rec := range records {
		for _, ip := range rec.IPs {
			out = append(out, formatEntry(ip.Addr.String(), rec.Hostname))
		}
	}
	out = append(out, "# updated: "+now.Format("2006-01-02 15:04:05 -07:00"), markerEnd)
	return out
}

// formatEntry pads the IP column with tabs so short IPv4 and long IPv6
// addresses still line up.
func formatEntry(ip, hostname string) string {
	var tabs string
	switch {
	case len(ip) <= 10:
		tabs = "\t\t\t"
	case len(ip) <= 16:
		tabs = "\t\t"
	default:
		tabs = "\t"
	}
	return ip + tabs + hostname
}

// Render returns only the managed block, for dry-run display.
func Render(records []hostsmap.Record, now time.Time) []string {
	return Merge(nil, records, now)[1:]
}
