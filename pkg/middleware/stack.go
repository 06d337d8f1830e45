package middleware

import (
	"context"
	"sort"
	"sync"
)

// Stack keeps middlewares ordered by priority; higher priority wraps outer.
type Stack struct {
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewStack builds a stack preloaded with mws.
func NewStack(mws ...Middleware) *Stack {
	s := &Stack{middlewares: make([]Middleware, 0, len(mws))}
	for _, mw := range mws {
		s.Use(mw)
	}
	return s
}

// Use registers mw, replacing any middleware with the same name.
func (s *Stack) Use(mw Middleware) {
	if mw == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.middlewares {
		if existing.Name() == mw.Name() {
			s.middlewares = append(s.middlewares[:i], s.middlewares[i+1:]...)
			break
		}
	}
	s.middlewares = append(s.middlewares, mw)
	sort.SliceStable(s.middlewares, func(i, j int) bool {
		return s.middlewares[i].Priority() < s.middlewares[j].Priority()
	})
}

// Remove deletes the middleware called name and reports whether it existed.
func (s *Stack) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, mw := range s.middlewares {
		if mw.Name() == name {
			s.middlewares = append(s.middlewares[:i], s.middlewares[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the middlewares in execution order (outermost first).
func (s *Stack) List() []Middleware {
	result := s.snapshot()
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Execute builds the onion around final and runs call through it.
func (s *Stack) Execute(ctx context.Context, call *Call, final CallFunc) (*Result, error) {
	if final == nil {
		return nil, ErrMissingNext
	}
	handler := final
	if s != nil {
		for _, mw := range s.snapshot() {
			mw, next := mw, handler
			handler = func(ctx context.Context, call *Call) (*Result, error) {
				return mw.Execute(ctx, call, next)
			}
		}
	}
	return handler(ctx, call)
}

func (s *Stack) snapshot() []Middleware {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cloned := make([]Middleware, len(s.middlewares))
	copy(cloned, s.middlewares)
	return cloned
}
