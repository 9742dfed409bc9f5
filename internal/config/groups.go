package config

import (
	"encoding/json"
	"fmt"
	"os"

	pkgerrors "sethosts/pkg/errors"
)

// GroupType controls whether domains in a group share one IP selection.
type GroupType string

const (
	// GroupShared pools all domains' candidate IPs and gives every
	// domain in the group the same selection.
	GroupShared GroupType = "shared"
	// GroupSeparate resolves, probes and selects per domain.
	GroupSeparate GroupType = "separate"
)

// DomainGroup is a named set of hostnames optimized together.
type DomainGroup struct {
	Name    string    `json:"name"`
	Type    GroupType `json:"type,omitempty"`
	Domains []string  `json:"domains"`
	// IPs seeds the candidate pool with statically known addresses that
	// DNS may no longer return.
	IPs []string `json:"ips,omitempty"`
}

// File is the on-disk configuration: groups to manage and the resolver pool
// used to enumerate their candidates. Both fall back to the embedded
// defaults when absent.
type File struct {
	DNSServers []string      `json:"dns_servers,omitempty"`
	Groups     []DomainGroup `json:"groups,omitempty"`
}

// Load reads a config file, filling unset sections from defaults. An empty
// path returns the defaults.
func Load(path string) (*File, error) {
	f := &File{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if len(f.DNSServers) == 0 {
		f.DNSServers = append([]string(nil), DefaultDNSServers...)
	}
	if len(f.Groups) == 0 {
		f.Groups = append([]DomainGroup(nil), DefaultGroups...)
	}
	for i := range f.Groups {
		g := &f.Groups[i]
		if g.Type == "" {
			g.Type = GroupShared
		}
		if g.Type != GroupShared && g.Type != GroupSeparate {
			return nil, fmt.Errorf("group '%s': unknown type %q", g.Name, g.Type)
		}
		if len(g.Domains) == 0 {
			return nil, &pkgerrors.GroupError{Group: g.Name, Err: pkgerrors.ErrGroupEmpty}
		}
	}
	return f, nil
}

// Group returns the named group.
func (f *File) Group(name string) (*DomainGroup, error) {
	for i := range f.Groups {
		if f.Groups[i].Name == name {
			return &f.Groups[i], nil
		}
	}
	return nil, &pkgerrors.GroupError{Group: name, Err: pkgerrors.ErrGroupNotFound}
}

// GroupNames lists group names in config order, for shell completion.
func (f *File) GroupNames() []string {
	names := make([]string, len(f.Groups))
	for i, g := range f.Groups {
		names[i] = g.Name
	}
	return names
}

// DefaultDNSServers is the stock resolver pool, mixing domestic and
// international servers over both families.
var DefaultDNSServers = []string{
	"223.5.5.5",             // Alibaba DNS
	"119.29.29.29",          // DNSPod
	"2400:3200::1",          // Alibaba DNS (IPv6)
	"2402:4e00::",           // DNSPod (IPv6)
	"8.8.8.8",               // Google Public DNS
	"2001:4860:4860::8888",  // Google Public DNS (IPv6)
	"114.114.114.114",       // 114 DNS
	"208.67.222.222",        // OpenDNS
	"2620:0:ccc::2",         // OpenDNS (IPv6)
}

// DefaultGroups is the stock managed-domain set.
var DefaultGroups = []DomainGroup{
	{
		Name: "GitHub Services",
		Type: GroupSeparate,
		Domains: []string{
			"github.com",
			"api.github.com",
			"gist.github.com",
			"alive.github.com",
			"codeload.github.com",
			"collector.github.com",
			"central.github.com",
			"live.github.com",
			"education.github.com",
			"github.community",
			"github.blog",
			"vscode.dev",
			"github.global.ssl.fastly.net",
			"pipelines.actions.githubusercontent.com",
			"github-com.s3.amazonaws.com",
			"github-cloud.s3.amazonaws.com",
			"github-production-user-asset-6210df.s3.amazonaws.com",
			"github-production-release-asset-2e65be.s3.amazonaws.com",
			"github-production-repository-file-5c1aeb.s3.amazonaws.com",
		},
	},
	{
		Name: "GitHub Asset",
		Type: GroupShared,
		Domains: []string{
			"github.io",
			"githubstatus.com",
			"assets-cdn.github.com",
			"github.githubassets.com",
		},
	},
	{
		Name: "GitHub Static",
		Type: GroupShared,
		Domains: []string{
			"avatars.githubusercontent.com",
			"avatars0.githubusercontent.com",
			"avatars1.githubusercontent.com",
			"avatars2.githubusercontent.com",
			"avatars3.githubusercontent.com",
			"avatars4.githubusercontent.com",
			"avatars5.githubusercontent.com",
			"camo.githubusercontent.com",
			"cloud.githubusercontent.com",
			"desktop.githubusercontent.com",
			"favicons.githubusercontent.com",
			"github.map.fastly.net",
			"raw.githubusercontent.com",
			"media.githubusercontent.com",
			"objects.githubusercontent.com",
			"user-images.githubusercontent.com",
			"private-user-images.githubusercontent.com",
		},
	},
	{
		Name: "TMDB API",
		Type: GroupShared,
		Domains: []string{
			"tmdb.org",
			"api.tmdb.org",
			"files.tmdb.org",
		},
	},
	{
		Name: "TMDB Web",
		Type: GroupShared,
		Domains: []string{
			"themoviedb.org",
			"api.themoviedb.org",
			"www.themoviedb.org",
			"auth.themoviedb.org",
		},
	},
	{
		Name: "TMDB Images",
		Type: GroupShared,
		Domains: []string{
			"image.tmdb.org",
			"images.tmdb.org",
		},
	},
	{
		Name: "IMDB Web",
		Type: GroupSeparate,
		Domains: []string{
			"imdb.com",
			"www.imdb.com",
			"secure.imdb.com",
			"s.media-imdb.com",
			"us.dd.imdb.com",
			"www.imdb.to",
			"imdb-webservice.amazon.com",
			"origin-www.imdb.com",
		},
	},
	{
		Name: "IMDB Media",
		Type: GroupSeparate,
		Domains: []string{
			"m.media-amazon.com",
			"images-na.ssl-images-amazon.com",
			"images-fe.ssl-images-amazon.com",
			"images-eu.ssl-images-amazon.com",
			"ia.media-imdb.com",
			"f.media-amazon.com",
			"imdb-video.media-imdb.com",
			"dqpnq362acqdi.cloudfront.net",
		},
	},
	{
		Name: "Google Translate",
		Type: GroupShared,
		Domains: []string{
			"translate.google.com",
			"translate.googleapis.com",
			"translate-pa.googleapis.com",
		},
		IPs: []string{
			"35.196.72.166",
			"209.85.232.195",
			"34.105.140.105",
			"216.239.32.40",
			"172.253.62.100",
			"172.253.62.101",
			"172.253.62.102",
			"172.253.62.103",
			"2404:6800:4008:c15::94",
			"2a00:1450:4001:829::201a",
			"2404:6800:4008:c13::5a",
			"2607:f8b0:4004:c07::66",
			"2607:f8b0:4004:c07::71",
			"2607:f8b0:4004:c07::8a",
			"2607:f8b0:4004:c07::8b",
		},
	},
	{
		Name: "JetBrains Downloads",
		Type: GroupShared,
		Domains: []string{
			"plugins.jetbrains.com",
			"download.jetbrains.com",
			"cache-redirector.jetbrains.com",
		},
	},
}
