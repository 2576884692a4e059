package events

// Event is a structured record of a state change in one of the engines.
type Event interface {
	EventType() string
}

// Emitter carries events to downstream consumers such as the journal.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Engines fall
// back to it until a real emitter is attached.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
