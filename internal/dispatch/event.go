package dispatch

import "github.com/leandrodaf/midirx/sdk/contracts"

// EventKind tags what an Event carries.
type EventKind uint8

const (
	EventData EventKind = iota
	EventTerminate
)

// Event is what flows through the ingestion queue: either a message to dispatch or the
// request to stop the loop.
type Event struct {
	Kind    EventKind
	Message contracts.Message
}

// Data wraps a message.
func Data(msg contracts.Message) Event {
	return Event{Kind: EventData, Message: msg}
}

// Terminate returns the event that stops the dispatch loop.
func Terminate() Event {
	return Event{Kind: EventTerminate}
}
