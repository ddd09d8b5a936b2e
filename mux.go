package gopool

import (
	"context"
	"fmt"
	"sync"
)

// Mux routes tasks to handlers by task type. Registration and lookup
// are safe for concurrent use.
type Mux struct {
	mu      sync.RWMutex
	entries map[string]Handler
}

func NewMux() *Mux {
	return &Mux{entries: make(map[string]Handler)}
}

// Handle registers a handler for the given task type, replacing any
// previous registration for that type.
func (m *Mux) Handle(taskType string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[taskType] = h
}

// ProcessTask dispatches the task to the handler registered for its type.
func (m *Mux) ProcessTask(ctx context.Context, task *Task) error {
	return m.Handler(task).ProcessTask(ctx, task)
}

// Handler returns the handler to use for the given task. It always
// returns a non-nil handler: a task type with no registration gets
// NotFoundHandler.
func (m *Mux) Handler(t *Task) Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if h, ok := m.entries[t.Type]; ok {
		return h
	}

	return NotFoundHandler()
}

// NotFound returns an error indicating that no handler is registered for
// the given task's type.
func NotFound(ctx context.Context, task *Task) error {
	return fmt.Errorf("handler not found for task type %q", task.Type)
}

// NotFoundHandler returns a simple task handler that returns a "not found" error.
func NotFoundHandler() Handler { return HandlerFunc(NotFound) }
