package server

import (
	"net/http"
	"os"
	"strings"
)

func effectiveHost(r *http.Request) string {
	if os.Getenv("TRUST_PROXY") == "1" {
		if h := forwardedHost(r); h != "" {
			return normalizeHostname(h)
		}
	}
	return normalizeHostname(r.Host)
}

func forwardedHost(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("X-Forwarded-Host"))
	if raw == "" {
		return ""
	}
	first, _, ok := strings.Cut(raw, ",")
	if ok {
		raw = first
	}
	return strings.TrimSpace(raw)
}

func normalizeHostname(host string) string {
	host = strings.TrimSpace(host)
	host = hostWithoutPort(host)
	return strings.ToLower(strings.TrimSpace(host))
}

func hostWithoutPort(host string) string {
	if h, _, ok := strings.Cut(host, ":"); ok {
		return h
	}
	return host
}

// subdomainOf extracts the tenant subdomain from a request host. With
// BASE_DOMAIN set (e.g. "meridianclinic.app"), the subdomain is whatever
// precedes it; otherwise the first label of a multi-label host is used.
func subdomainOf(host string, baseDomain string) string {
	host = normalizeHostname(host)
	if host == "" {
		return ""
	}
	if baseDomain != "" {
		baseDomain = strings.ToLower(strings.TrimSpace(baseDomain))
		if sub, ok := strings.CutSuffix(host, "."+baseDomain); ok && sub != "" && !strings.Contains(sub, ".") {
			return sub
		}
		return ""
	}
	label, rest, ok := strings.Cut(host, ".")
	if !ok || rest == "" || label == "www" {
		return ""
	}
	return label
}
