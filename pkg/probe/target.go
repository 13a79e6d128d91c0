package probe

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	scouterrors "webscout/pkg/errors"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Target is the validated, normalized scan target. Raw preserves the
// caller's input; URL always carries a scheme; Domain is the bare host
// used by DNS-level tools and for artifact naming.
type Target struct {
	Raw    string
	URL    string
	Domain string
}

// IsHTTP reports whether the caller supplied an explicit http(s) URL.
// Browser-based probing only makes sense for those targets.
func (t Target) IsHTTP() bool {
	return strings.HasPrefix(t.Raw, "http://") || strings.HasPrefix(t.Raw, "https://")
}

// ParseTarget validates a URL, IPv4 address, or hostname and normalizes
// it. This is the InvalidTarget gate: it is the only check that aborts a
// run before any probe executes.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, scouterrors.NewInvalidTargetError(raw, "empty target")
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Target{}, scouterrors.NewInvalidTargetError(raw, "malformed URL")
		}
		return Target{Raw: raw, URL: raw, Domain: u.Host}, nil
	}

	if ip := net.ParseIP(raw); ip != nil && ip.To4() != nil {
		return Target{Raw: raw, URL: "http://" + raw, Domain: raw}, nil
	}

	if hostnamePattern.MatchString(raw) && strings.Contains(raw, ".") {
		return Target{Raw: raw, URL: "http://" + raw, Domain: raw}, nil
	}

	return Target{}, scouterrors.NewInvalidTargetError(raw, "not a URL, IPv4 address, or hostname")
}
