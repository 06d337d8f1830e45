// Package lineweb is a client for the LINE Official Account chat web API.
//
// A Client authenticates with cookies exported from a signed-in browser and
// exposes one method per resource. List methods follow server cursors until
// the requested page budget is spent and return the cursor needed to resume.
// Every error returned by a Client method is an *apierr.Error.
package lineweb

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/config"
	"github.com/godeps/lineweb-go/pkg/middleware"
	"github.com/godeps/lineweb-go/pkg/paginate"
	"github.com/godeps/lineweb-go/pkg/session"
	"github.com/godeps/lineweb-go/pkg/telemetry"
	"github.com/godeps/lineweb-go/pkg/transport"
)

// DefaultBaseURL is the chat web API root.
const DefaultBaseURL = config.DefaultBaseURL

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient performs requests; its Timeout bounds each call.
	HTTPClient *http.Client
	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
	// Telemetry records spans and metrics. Defaults to telemetry.Default().
	Telemetry *telemetry.Manager

	UserAgent     string
	ClientVersion string
	// Headers are sent with every request and override the defaults.
	Headers map[string]string
	// CookieDomain selects which exported cookies are kept. Defaults to the
	// registrable domain of BaseURL.
	CookieDomain string
	// Middleware are extra call interceptors run with logging and tracing.
	Middleware []middleware.Middleware
}

// FromConfig maps a loaded configuration onto a ClientConfig.
func FromConfig(cfg *config.Config) ClientConfig {
	if cfg == nil {
		cfg = config.Default()
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return ClientConfig{
		BaseURL:       cfg.BaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.Timeout.Std()},
		UserAgent:     cfg.UserAgent,
		ClientVersion: cfg.ClientVersion,
		Headers:       headers,
		CookieDomain:  cfg.CookieDomain,
	}
}

// Client is safe for concurrent use. Credentials can be replaced at any time
// with SetCredentials; in-flight operations keep the session they started with.
type Client struct {
	baseURL   string
	domain    string
	transport *transport.Transport
	telemetry *telemetry.Manager
	logger    *slog.Logger
	session   atomic.Pointer[session.Session]
}

// New parses cookies and builds a client. cookies is the JSON array exported
// from the browser.
func New(cookies string, cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	domain := strings.TrimSpace(cfg.CookieDomain)
	if domain == "" {
		derived, err := session.SiteDomain(base)
		if err != nil {
			return nil, apierr.Wrap(apierr.CodeInvalidParameter, "Invalid base URL.", err)
		}
		domain = derived
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	manager := cfg.Telemetry
	if manager == nil {
		manager = telemetry.Default()
	}

	c := &Client{
		baseURL:   base,
		domain:    domain,
		telemetry: manager,
		logger:    logger,
	}
	if err := c.SetCredentials(cookies); err != nil {
		return nil, err
	}

	stack := middleware.NewStack(
		middleware.NewLogging(logger, logFilter(manager)),
		middleware.NewTracing(manager),
	)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			stack.Use(mw)
		}
	}
	c.transport = transport.New(transport.Config{
		HTTPClient:    cfg.HTTPClient,
		UserAgent:     cfg.UserAgent,
		ClientVersion: cfg.ClientVersion,
		Headers:       cfg.Headers,
		Middleware:    stack,
	})
	return c, nil
}

func logFilter(manager *telemetry.Manager) *telemetry.Filter {
	if f := manager.Filter(); f != nil {
		return f
	}
	// The built-in patterns always compile.
	f, _ := telemetry.NewFilter(telemetry.FilterConfig{})
	return f
}

// SetCredentials replaces the session with one parsed from raw. On error the
// current session is kept.
func (c *Client) SetCredentials(raw string) error {
	sess, err := session.Parse(raw, c.domain)
	if err != nil {
		return err
	}
	c.session.Store(&sess)
	if c.logger != nil {
		c.logger.Debug("lineweb: credentials updated", slog.Any("cookies", sess.Names()), slog.String("domain", c.domain))
	}
	return nil
}

// Session returns the current session.
func (c *Client) Session() session.Session {
	if sess := c.session.Load(); sess != nil {
		return *sess
	}
	return session.Session{}
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(path string, q *query) string {
	u := c.baseURL + path
	if encoded := q.encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// send issues a single request with sess and decodes the body into T.
func send[T any](ctx context.Context, c *Client, sess session.Session, req transport.Request, failure string) (T, error) {
	return transport.Send[T](ctx, c.transport, sess, req, failure)
}

// collect drives the paginator for a list endpoint. build returns the URL for
// a cursor ("" for the first page).
func collect[T any](ctx context.Context, c *Client, sess session.Session, operation string, dir paginate.Direction, start string, maxPages int, failure string, build func(cursor string) string) (paginate.Envelope[T], error) {
	res, err := paginate.Collect(ctx, start, maxPages, func(ctx context.Context, cursor string) (paginate.Page[T], error) {
		req := transport.Request{Operation: operation, Method: http.MethodGet, URL: build(cursor)}
		env, err := send[paginate.Envelope[T]](ctx, c, sess, req, failure)
		if err != nil {
			return paginate.Page[T]{}, err
		}
		c.telemetry.RecordPage(ctx, telemetry.PageData{Operation: operation, Items: len(env.List)})
		return paginate.PageOf(env, dir), nil
	})
	if err != nil {
		return paginate.Envelope[T]{}, err
	}
	return res.Envelope(dir), nil
}

// query keeps parameters in insertion order so URLs are deterministic.
type query struct {
	pairs [][2]string
}

func newQuery() *query { return &query{} }

func (q *query) set(key, value string) *query {
	q.pairs = append(q.pairs, [2]string{key, value})
	return q
}

func (q *query) setIf(ok bool, key, value string) *query {
	if ok {
		q.set(key, value)
	}
	return q
}

func (q *query) encode() string {
	if q == nil || len(q.pairs) == 0 {
		return ""
	}
	parts := make([]string, len(q.pairs))
	for i, p := range q.pairs {
		parts[i] = url.QueryEscape(p[0]) + "=" + url.QueryEscape(p[1])
	}
	return strings.Join(parts, "&")
}

func segment(s string) string { return url.PathEscape(s) }
