package token

import (
	"fmt"
	"net/url"
	"strings"
)

// Origin returns the scheme://host:port origin of a URL.
//
// The origin is the trust boundary for token reuse: two URLs share an
// origin only if scheme, host, and effective port are all equal. Default
// ports are normalised (https without a port equals https on 443), matching
// how browsers compare origins.
//
// Parameters:
//   - raw: An absolute URL (e.g., "https://hub.local:8080/api")
//
// Returns:
//   - string: The normalised origin (e.g., "https://hub.local:8080")
//   - error: If the URL cannot be parsed or has no scheme/host
func Origin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		port = defaultPort(scheme)
	}

	if port == "" {
		return scheme + "://" + host, nil
	}
	return scheme + "://" + host + ":" + port, nil
}

// SameOrigin reports whether two URLs share an origin.
// Unparseable URLs never match anything.
func SameOrigin(a, b string) bool {
	oa, err := Origin(a)
	if err != nil {
		return false
	}
	ob, err := Origin(b)
	if err != nil {
		return false
	}
	return oa == ob
}

// defaultPort returns the conventional port for a scheme, or "" if unknown.
func defaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	default:
		return ""
	}
}
