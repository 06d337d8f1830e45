package session

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidBaseURL indicates the API base URL has no usable host.
var ErrInvalidBaseURL = errors.New("session: invalid base url")

// SiteDomain derives the cookie domain from the API base URL, e.g.
// https://chat.line.biz/api -> line.biz. Hosts without a public suffix
// (localhost, IP literals) are returned as-is so test servers still match.
func SiteDomain(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidBaseURL, baseURL)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return etld, nil
}
