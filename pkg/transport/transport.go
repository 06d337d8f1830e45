// Package transport performs the single HTTP exchange behind every client
// operation: it merges the session headers, runs the middleware chain and
// classifies failures into the apierr taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/middleware"
	"github.com/godeps/lineweb-go/pkg/session"
)

const (
	// DefaultUserAgent is the browser identity presented to the chat web API.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"
	// DefaultClientVersion is the protocol version marker of the web client.
	DefaultClientVersion = "20240513144702"
	// ClientVersionHeader carries the protocol version marker.
	ClientVersionHeader = "x-oa-chat-client-version"

	// Server error codes with a dedicated classification.
	codeNotLoggedIn      = "not_login"
	codeBotNotOperatable = "not_found_operatable_bot"

	maxResponseBytes = 16 << 20
)

// Config configures a Transport.
type Config struct {
	// HTTPClient performs the exchange; its Timeout bounds each call.
	// Defaults to http.DefaultClient.
	HTTPClient    *http.Client
	UserAgent     string
	ClientVersion string
	// Headers are client-wide extras layered over the defaults.
	Headers map[string]string
	// Middleware wraps every exchange. May be nil.
	Middleware *middleware.Stack
}

// Transport is safe for concurrent use; it holds no session state.
type Transport struct {
	client        *http.Client
	userAgent     string
	clientVersion string
	headers       map[string]string
	stack         *middleware.Stack
	maxBody       int64
	newID         func() string
	now           func() time.Time
}

// Request describes one call.
type Request struct {
	// Operation names the client operation for logs and spans.
	Operation string
	Method    string
	URL       string
	// Body is JSON-encoded when non-nil.
	Body any
	// Headers override every default on key collision.
	Headers map[string]string
}

// New builds a Transport from cfg.
func New(cfg Config) *Transport {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	version := strings.TrimSpace(cfg.ClientVersion)
	if version == "" {
		version = DefaultClientVersion
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		headers[k] = v
	}
	return &Transport{
		client:        client,
		userAgent:     ua,
		clientVersion: version,
		headers:       headers,
		stack:         cfg.Middleware,
		maxBody:       maxResponseBytes,
		newID:         func() string { return uuid.NewString() },
		now:           time.Now,
	}
}

// Send performs req with sess and decodes a successful body into T.
// failureMessage describes the operation when no response is obtained.
func Send[T any](ctx context.Context, t *Transport, sess session.Session, req Request, failureMessage string) (T, error) {
	var out T
	body, err := t.Do(ctx, sess, req, failureMessage)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, apierr.Wrap(apierr.CodeUnknown, failureMessage, fmt.Errorf("transport: decode response: %w", err))
	}
	return out, nil
}

// Do performs req and returns the raw body of a 2xx response. Every failure
// is an *apierr.Error; nothing is retried.
func (t *Transport) Do(ctx context.Context, sess session.Session, req Request, failureMessage string) ([]byte, error) {
	call, err := t.buildCall(sess, req, failureMessage)
	if err != nil {
		return nil, err
	}
	res, err := t.stack.Execute(ctx, call, t.exchange)
	if err != nil {
		if apierr.CodeOf(err) == "" {
			err = apierr.Wrap(apierr.CodeUnknown, failureMessage, err)
		}
		return nil, err
	}
	if res == nil {
		return nil, apierr.Wrap(apierr.CodeUnknown, failureMessage, errNoResult)
	}
	return res.Body, nil
}

// Headers returns the merged header set for sess and overrides.
func (t *Transport) Headers(sess session.Session, overrides map[string]string) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", t.userAgent)
	h.Set(ClientVersionHeader, t.clientVersion)
	h.Set("Cookie", sess.String())
	h.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		h.Set(k, v)
	}
	for k, v := range overrides {
		h.Set(k, v)
	}
	return h
}

func (t *Transport) buildCall(sess session.Session, req Request, failureMessage string) (*middleware.Call, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	call := &middleware.Call{
		ID:          t.newID(),
		Operation:   req.Operation,
		Description: failureMessage,
		Method:      method,
		URL:         req.URL,
		Header:      t.Headers(sess, req.Headers),
		Secrets:     sess.Values(),
	}
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apierr.Wrap(apierr.CodeUnknown, failureMessage, fmt.Errorf("transport: encode request body: %w", err))
		}
		call.Body = encoded
	}
	return call, nil
}

// exchange is the terminal handler of the middleware chain.
func (t *Transport) exchange(ctx context.Context, call *middleware.Call) (*middleware.Result, error) {
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeUnknown, call.Description, fmt.Errorf("transport: create request: %w", err))
	}
	httpReq.Header = call.Header.Clone()

	start := t.now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeUnknown, call.Description, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeUnknown, call.Description, fmt.Errorf("transport: read response: %w", err))
	}
	truncated := int64(len(payload)) > t.maxBody
	if truncated {
		payload = payload[:t.maxBody]
	}
	res := &middleware.Result{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Body:     payload,
		Duration: t.now().Sub(start),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if truncated {
			return nil, apierr.Wrap(apierr.CodeUnknown, call.Description,
				fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, t.maxBody))
		}
		return res, nil
	}
	return res, classify(call, resp.StatusCode, payload)
}
