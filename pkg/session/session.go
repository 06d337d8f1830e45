package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/godeps/lineweb-go/pkg/apierr"
)

// DefaultDomain is the site whose cookies authenticate chat web API calls.
const DefaultDomain = "line.biz"

const invalidCookiesMessage = "Invalid cookies format. Expected JSON string."

// Cookie is a single exported browser cookie record.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Session is the immutable authentication state derived from a cookie export.
// The zero value is an unauthenticated session.
type Session struct {
	domain  string
	cookies []Cookie
	header  string
}

// Parse converts a JSON array of {name, value, domain} records into a Session.
// Only records whose domain contains domain are retained; records without a
// string domain are dropped. A valid array with no matching record yields an
// empty session, not an error.
func Parse(raw, domain string) (Session, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return Session{}, apierr.Wrap(apierr.CodeInvalidCredentials, invalidCookiesMessage,
			fmt.Errorf("session: cookie export is not a JSON array"))
	}
	var records []cookieRecord
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		return Session{}, apierr.Wrap(apierr.CodeInvalidCredentials, invalidCookiesMessage,
			fmt.Errorf("session: decode cookie export: %w", err))
	}

	kept := make([]Cookie, 0, len(records))
	for _, rec := range records {
		d, ok := rec.domain()
		if !ok || !strings.Contains(d, domain) {
			continue
		}
		kept = append(kept, Cookie{Name: rec.Name, Value: rec.Value, Domain: d})
	}
	return newSession(domain, kept), nil
}

func newSession(domain string, cookies []Cookie) Session {
	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = c.Name + "=" + c.Value
	}
	return Session{
		domain:  domain,
		cookies: cookies,
		header:  strings.Join(pairs, "; "),
	}
}

// String returns the Cookie header value.
func (s Session) String() string { return s.header }

// Empty reports whether no cookie survived filtering.
func (s Session) Empty() bool { return len(s.cookies) == 0 }

// Domain returns the site domain the session was filtered against.
func (s Session) Domain() string { return s.domain }

// Names lists the retained cookie names in export order.
func (s Session) Names() []string {
	names := make([]string, len(s.cookies))
	for i, c := range s.cookies {
		names[i] = c.Name
	}
	return names
}

// Values lists the retained cookie values, used to mask them in telemetry.
func (s Session) Values() []string {
	values := make([]string, 0, len(s.cookies))
	for _, c := range s.cookies {
		if c.Value != "" {
			values = append(values, c.Value)
		}
	}
	return values
}

// cookieRecord mirrors one element of a browser cookie export. Domain is kept
// raw so that a non-string domain drops the record instead of failing.
type cookieRecord struct {
	Name   string          `json:"name"`
	Value  string          `json:"value"`
	Domain json.RawMessage `json:"domain"`
}

func (r cookieRecord) domain() (string, bool) {
	if len(r.Domain) == 0 {
		return "", false
	}
	var d string
	if err := json.Unmarshal(r.Domain, &d); err != nil {
		return "", false
	}
	return d, true
}
