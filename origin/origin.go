// Package origin derives the canonical caller identity used by permission
// checks. The canonical form is host[:port], computed once per request.
package origin

import (
	"net/url"
	"strings"
)

// Resolve picks the origin from request headers. The origin header wins;
// a legacy originator header is the fallback. Headers are expected with
// lowercased keys, the way the envelope parser produces them.
func Resolve(headers map[string]string) (string, error) {
	if value := strings.TrimSpace(headers["origin"]); value != "" {
		if canonical, err := Canonicalize(value); err == nil {
			return canonical, nil
		}
	}
	if value := strings.TrimSpace(headers["originator"]); value != "" {
		if canonical, err := Canonicalize(value); err == nil {
			return canonical, nil
		}
	}
	return "", resolveError(headers)
}

// Canonicalize normalizes an origin value to host[:port]. Hostnames are
// lowercased, IPv6 literals keep their brackets, and the port is dropped
// only when it matches the scheme's well-known default. Scheme-less values
// are treated as http so canonical outputs survive a second pass unchanged.
func Canonicalize(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", originError("origin value is empty", nil)
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", originError("origin is not an absolute url", map[string]any{
			"origin": trimmed,
		})
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", originError("origin has no hostname", map[string]any{
			"origin": trimmed,
		})
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	port := parsed.Port()
	if port == "" || isDefaultPort(parsed.Scheme, port) {
		return host, nil
	}
	return host + ":" + port, nil
}

func isDefaultPort(scheme, port string) bool {
	switch strings.ToLower(scheme) {
	case "http":
		return port == "80"
	case "https":
		return port == "443"
	}
	return false
}
