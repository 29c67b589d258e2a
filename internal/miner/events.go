package miner

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event represents a serving lifecycle event.
// Minimal and stable: name + miner kind and optional fields via key/values.
type Event struct {
	Name   string
	Kind   string
	Fields map[string]any
}

// EventPublisher receives events from the serving layer. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// NoopPublisher is the default; it drops events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) {}

// LogPublisher writes events to a structured logger at debug level.
type LogPublisher struct{ log zerolog.Logger }

func NewLogPublisher(log zerolog.Logger) LogPublisher { return LogPublisher{log: log} }

func (p LogPublisher) Publish(e Event) {
	ev := p.log.Debug().Str("event", e.Name).Str("kind", e.Kind)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("miner event")
}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
