package helpers

import (
	"net/url"
	"strings"
)

// NormalizeURL trims whitespace and trailing slashes. It is the
// identity used for de-duplicating search hits and keying sources.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// DedupeBy keeps the first item for each non-empty key, in input order.
func DedupeBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// DedupeURLs drops blank and repeated URLs, keeping the first occurrence of
// each normalised form. Returned values are normalised.
func DedupeURLs(urls []string) []string {
	out := DedupeBy(urls, NormalizeURL)
	for i, u := range out {
		out[i] = NormalizeURL(u)
	}
	return out
}

// Hostname returns the lower-cased host of raw without a leading "www.".
// Unparseable input yields "".
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
