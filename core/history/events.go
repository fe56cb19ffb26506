package history

// EventKind identifies a ledger mutation.
type EventKind string

const (
	EventRecorded EventKind = "recorded"
	EventActual   EventKind = "actual"
)

// Event is emitted after every successful mutation of the store.
type Event struct {
	Kind   EventKind
	Record Record
	// Size is the number of records held after the mutation.
	Size int
}

// Publisher receives store events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
