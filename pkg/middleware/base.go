package middleware

import (
	"context"
	"errors"
)

// ErrMissingNext reports a chain without a terminal handler.
var ErrMissingNext = errors.New("middleware: next handler is nil")

// Func adapts a function into a Middleware.
type Func struct {
	name     string
	priority int
	fn       func(ctx context.Context, call *Call, next CallFunc) (*Result, error)
}

// NewFunc wraps fn as a named middleware.
func NewFunc(name string, priority int, fn func(ctx context.Context, call *Call, next CallFunc) (*Result, error)) *Func {
	return &Func{name: name, priority: priority, fn: fn}
}

func (m *Func) Name() string  { return m.name }
func (m *Func) Priority() int { return m.priority }

// Execute runs the wrapped function, or passes through when it is nil.
func (m *Func) Execute(ctx context.Context, call *Call, next CallFunc) (*Result, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	if m.fn == nil {
		return next(ctx, call)
	}
	return m.fn(ctx, call, next)
}
