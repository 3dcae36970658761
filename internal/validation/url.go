package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateBaseURL checks the portal base URL. Plain http is accepted only for
// loopback hosts unless allowInsecure is set.
func ValidateBaseURL(raw string, allowInsecure bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("base URL is required")
	}
	if len(raw) > MaxURLLength {
		return "", fmt.Errorf("base URL exceeds maximum length of %d characters", MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid base URL %q: query and fragment are not allowed", raw)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !allowInsecure && !isLoopback(u.Hostname()) {
			return "", fmt.Errorf("base URL %q must use https", raw)
		}
	default:
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
