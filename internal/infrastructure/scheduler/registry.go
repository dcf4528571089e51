package scheduler

import (
	"context"
	"fmt"
	"sync"
)

// Handler executes jobs of a single kind
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls the wrapped function
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Registry maps job kinds to their handlers. A job whose kind has no
// registered handler fails instead of being silently dropped.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a job kind. Registering the same kind twice
// is a wiring error and panics at startup.
func (r *Registry) Register(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		panic(fmt.Sprintf("scheduler: handler already registered for kind %q", kind))
	}
	r.handlers[kind] = h
}

// Lookup returns the handler for a kind
func (r *Registry) Lookup(kind string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("scheduler: no handler registered for kind %q", kind)
	}
	return h, nil
}
