package types

// Event is one structured record of a state change: a type tag plus a flat
// bag of string attributes. Engines build them through the typed payloads
// in core/events; the journal stores them as-is, so attribute keys are part
// of the export surface indexers consume.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := &Event{Type: e.Type}
	if len(e.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(e.Attributes))
		for key, value := range e.Attributes {
			out.Attributes[key] = value
		}
	}
	return out
}
