package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"regexp"
	"time"

	pkgerrors "sethosts/pkg/errors"
)

const defaultLookupURL = "https://sites.ipaddress.com/"

var (
	ipv4Pattern = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
	ipv6Pattern = regexp.MustCompile(`(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}`)
)

// WebLookup scrapes published DNS records for a domain from a web source.
// It is the fallback when neither the resolver pool nor the cache yields
// addresses; retries live here, at the collaborator layer, so the probe
// core stays retry-free.
type WebLookup struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	retryDelay time.Duration
}

// WebLookupConfig represents web lookup configuration
type WebLookupConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultWebLookupConfig returns default web lookup configuration
func DefaultWebLookupConfig() WebLookupConfig {
	return WebLookupConfig{
		BaseURL:    defaultLookupURL,
		UserAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Second,
	}
}

// NewWebLookup creates a new web record lookup
func NewWebLookup(config WebLookupConfig) *WebLookup {
	if config.BaseURL == "" {
		config.BaseURL = defaultLookupURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &WebLookup{
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:    config.BaseURL,
		userAgent:  config.UserAgent,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}
}

// Lookup fetches the record page for domain and extracts IPv4 and IPv6
// literals, with retry and backoff on transient failures.
func (l *WebLookup) Lookup(ctx context.Context, domain string) (ipv4, ipv6 []string, err error) {
	url := l.baseURL + domain
	var lastErr error

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(l.retryDelay * time.Duration(attempt)):
			}
		}

		body, err := l.fetch(ctx, url)
		if err == nil {
			ipv4, ipv6 = extractAddrs(body)
			if len(ipv4)+len(ipv6) == 0 {
				return nil, nil, &pkgerrors.LookupError{
					Domain: domain, URL: url, Err: pkgerrors.ErrLookupNoRecords,
				}
			}
			return ipv4, ipv6, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}

		// Don't retry on client errors (4xx)
		if httpErr, ok := err.(*HTTPError); ok {
			if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
				break
			}
		}
	}

	return nil, nil, &pkgerrors.LookupError{
		Domain: domain, URL: url,
		Err: fmt.Errorf("%w after %d attempts: %v", pkgerrors.ErrLookupFetchFailed, l.maxRetries+1, lastErr),
	}
}

// fetch performs a single fetch attempt
func (l *WebLookup) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        url,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// extractAddrs pulls valid, deduplicated IP literals out of a page body.
func extractAddrs(body []byte) (ipv4, ipv6 []string) {
	seen := make(map[string]bool)
	for _, match := range ipv4Pattern.FindAllString(string(body), -1) {
		addr, err := netip.ParseAddr(match)
		if err != nil || !addr.Is4() || seen[addr.String()] {
			continue
		}
		seen[addr.String()] = true
		ipv4 = append(ipv4, addr.String())
	}
	for _, match := range ipv6Pattern.FindAllString(string(body), -1) {
		addr, err := netip.ParseAddr(match)
		if err != nil || !addr.Is6() || seen[addr.String()] {
			continue
		}
		seen[addr.String()] = true
		ipv6 = append(ipv6, addr.String())
	}
	return ipv4, ipv6
}

// HTTPError represents an HTTP error
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s for %s", e.StatusCode, e.Status, e.URL)
}
