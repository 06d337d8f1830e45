// Package middleware runs interceptors around every chat web API exchange.
package middleware

import (
	"context"
	"net/http"
	"time"
)

// Middleware intercepts one HTTP exchange.
type Middleware interface {
	// Name identifies the middleware in a Stack.
	Name() string

	// Priority orders the stack; larger values wrap outermost.
	Priority() int

	// Execute handles call, delegating to next for the inner chain.
	Execute(ctx context.Context, call *Call, next CallFunc) (*Result, error)
}

// Call is an outbound request as seen by the middleware chain.
type Call struct {
	// ID correlates logs and spans for one exchange. Never sent on the wire.
	ID string
	// Operation names the client operation, e.g. "bots" or "logout".
	Operation string
	// Description is the failure message used when no response is obtained.
	Description string
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	// Secrets are exact strings (cookie values) to mask when observed.
	Secrets []string
}

// Result is the raw response of an exchange.
type Result struct {
	Status   int
	Header   http.Header
	Body     []byte
	Duration time.Duration
}

// CallFunc performs (or delegates) one exchange. A non-nil Result may
// accompany an error when the server answered with a failure status.
type CallFunc func(ctx context.Context, call *Call) (*Result, error)
