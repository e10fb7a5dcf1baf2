package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrStalled is returned when a handler leaves State.Current unchanged.
var ErrStalled = errors.New("router: handler did not advance the state")

// Handler runs one stage over a State. A handler must return without
// touching the state when state.Current is not its own stage, and must
// advance Current when it is.
type Handler interface {
	Handle(ctx context.Context, state *State) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, state *State) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, state *State) error {
	return f(ctx, state)
}

// Router is the dispatch table from stage to handler.
type Router struct {
	handlers map[StageID]Handler
}

// NewRouter creates a Router with an empty handler table.
func NewRouter() *Router {
	return &Router{handlers: make(map[StageID]Handler)}
}

// Register associates a handler with a stage, replacing any earlier one.
func (r *Router) Register(id StageID, h Handler) {
	r.handlers[id] = h
}

// Has reports whether a handler is registered for id.
func (r *Router) Has(id StageID) bool {
	_, ok := r.handlers[id]
	return ok
}

// Stages returns the registered stage IDs in sorted order.
func (r *Router) Stages() []StageID {
	ids := make([]StageID, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dispatch invokes the handler for state.Current, and only that handler.
func (r *Router) Dispatch(ctx context.Context, state *State) error {
	current := state.Current
	h, ok := r.handlers[current]
	if !ok {
		return fmt.Errorf("router: no handler registered for stage %q", current)
	}

	if err := h.Handle(ctx, state); err != nil {
		return err
	}
	if state.Current == current {
		return fmt.Errorf("router: stage %q: %w", current, ErrStalled)
	}
	return nil
}
