package events

// Event represents a structured ledger state change.
type Event interface {
	EventType() string
	// Attributes flattens the event into string pairs for logs and journals.
	Attributes() map[string]string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Fanout delivers every event to each of its emitters in order.
type Fanout []Emitter

func (f Fanout) Emit(e Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(e)
		}
	}
}

// Buffer holds events raised inside a ledger transaction until the caller
// decides whether the transaction committed.
type Buffer struct {
	pending []Event
}

func (b *Buffer) Emit(e Event) {
	if e == nil {
		return
	}
	b.pending = append(b.pending, e)
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int { return len(b.pending) }

// Flush hands the buffered events to next and empties the buffer.
func (b *Buffer) Flush(next Emitter) {
	pending := b.pending
	b.pending = nil
	if next == nil {
		return
	}
	for _, e := range pending {
		next.Emit(e)
	}
}

// Discard drops buffered events.
func (b *Buffer) Discard() { b.pending = nil }
