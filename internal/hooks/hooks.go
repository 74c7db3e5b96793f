// Package hooks is a small event bus for bridge lifecycle events. Handlers
// are Go functions or, through Command, external programs configured in YAML.
package hooks

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/imbridge/internal/logging"
)

// Event names.
const (
	EventBridgeStart     = "bridge_start"
	EventBridgeStop      = "bridge_stop"
	EventSessionStart    = "session_start"
	EventSessionEnd      = "session_end"
	EventBuddyAdded      = "buddy_added"
	EventBuddyRemoved    = "buddy_removed"
	EventMessageReceived = "message_received"
	EventMessageSending  = "message_sending"
	EventBridgeError     = "bridge_error"
)

// AllEvents lists every event the bridge emits.
var AllEvents = []string{
	EventBridgeStart,
	EventBridgeStop,
	EventSessionStart,
	EventSessionEnd,
	EventBuddyAdded,
	EventBuddyRemoved,
	EventMessageReceived,
	EventMessageSending,
	EventBridgeError,
}

// Known reports whether event is one of AllEvents.
func Known(event string) bool {
	return slices.Contains(AllEvents, event)
}

// Payload is what a handler receives.
type Payload struct {
	Event   string         `json:"event"`
	Account string         `json:"account,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Handler reacts to an event. A returned error is logged and otherwise ignored.
type Handler func(ctx context.Context, p Payload) error

type registration struct {
	name    string
	handler Handler
}

// Manager holds handler registrations per event.
type Manager struct {
	mu       sync.RWMutex
	regs     map[string][]registration
	log      *logging.Logger
	inflight sync.WaitGroup
}

// NewManager creates an empty hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		regs: make(map[string][]registration),
		log:  log.Sub("hooks"),
	}
}

// On registers handler for event under name.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[event] = append(m.regs[event], registration{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off removes every handler registered for event under name.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[event] = slices.DeleteFunc(m.regs[event], func(r registration) bool {
		return r.name == name
	})
}

func (m *Manager) snapshot(event string) []registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.regs[event])
}

// Emit runs the handlers for p.Event one after another in registration order.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	for _, r := range m.snapshot(p.Event) {
		m.run(ctx, r, p)
	}
}

// EmitAsync runs each handler for p.Event on its own goroutine and returns
// immediately. Wait blocks until those goroutines finish.
func (m *Manager) EmitAsync(ctx context.Context, p Payload) {
	for _, r := range m.snapshot(p.Event) {
		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			m.run(ctx, r, p)
		}()
	}
}

// Wait blocks until every handler started by EmitAsync has returned.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

func (m *Manager) run(ctx context.Context, r registration, p Payload) {
	if err := r.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", r.name).
			Msg("hook handler failed")
	}
}

// Count returns the number of handlers registered for event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regs[event])
}

// Events returns the events with at least one handler, sorted.
func (m *Manager) Events() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]string, 0, len(m.regs))
	for event, regs := range m.regs {
		if len(regs) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}
