package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
)

// DomainPolicyConfig restricts which hosts the fetcher may download from.
// An empty allow list permits every host not explicitly disallowed.
type DomainPolicyConfig struct {
	Allow    []string `mapstructure:"allow"`
	Disallow []string `mapstructure:"disallow"`
}

// Normalize cleans entries and removes duplicates.
func (c DomainPolicyConfig) Normalize() DomainPolicyConfig {
	return DomainPolicyConfig{
		Allow:    sanitizeDomainList(c.Allow),
		Disallow: sanitizeDomainList(c.Disallow),
	}
}

// Validate ensures a host is not both allowed and disallowed.
func (c DomainPolicyConfig) Validate() error {
	norm := c.Normalize()
	allow := make(map[string]struct{}, len(norm.Allow))
	for _, host := range norm.Allow {
		allow[host] = struct{}{}
	}
	for _, host := range norm.Disallow {
		if _, ok := allow[host]; ok {
			return fmt.Errorf("domain policy conflict: host %q present in both allow and disallow lists", host)
		}
	}
	return nil
}

// Allowed reports whether rawURL may be fetched. Subdomains match their
// parent entry, so "example.com" also covers "ir.example.com".
func (c DomainPolicyConfig) Allowed(rawURL string) bool {
	host := helpers.Hostname(rawURL)
	if host == "" {
		return false
	}
	for _, blocked := range c.Disallow {
		if hostMatches(host, normalizeHost(blocked)) {
			return false
		}
	}
	if len(c.Allow) == 0 {
		return true
	}
	for _, allowed := range c.Allow {
		if hostMatches(host, normalizeHost(allowed)) {
			return true
		}
	}
	return false
}

func hostMatches(host, entry string) bool {
	if entry == "" {
		return false
	}
	return host == entry || strings.HasSuffix(host, "."+entry)
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if host := helpers.Hostname(value); host != "" {
			return host
		}
	}
	return strings.TrimPrefix(value, "www.")
}
