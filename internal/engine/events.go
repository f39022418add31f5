package engine

import "github.com/hearthbox/rulehub/internal/deviceapi"

// EventKind tags the variant of an Event delivered to a running script's
// sink.
type EventKind int

const (
	// Starting is emitted exactly once, first: Result is nil on successful
	// compile+startup, or the compile error otherwise.
	Starting EventKind = iota
	// Updated is emitted once per meaningful truth-state change. Emitting
	// it is optional from the worker's point of view (the spec allows it
	// to be omitted); this implementation emits one for every
	// state-mutating WatchEvent it processes.
	Updated
	// Sent is emitted once per statement fired on a rising edge.
	Sent
	// ChannelError is emitted when a subscription fails to initialize.
	ChannelError
	// Stopped is emitted exactly once, last.
	Stopped
)

// Event is one item on a running script's event sink. Only the fields
// relevant to Kind are populated; the rest are zero values.
type Event struct {
	Kind EventKind
	Seq  uint64

	// Starting, Stopped.
	Result error

	// Updated.
	RuleIndex      int
	ConditionIndex int
	WatchEvent     deviceapi.WatchEvent

	// Sent. RuleIndex above is reused.
	StatementIndex int
	SentResults    []deviceapi.ActuatorResult

	// ChannelError.
	Channel    string
	ChannelErr error
}
