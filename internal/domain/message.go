package domain

import "strings"

// State represents the lifecycle state of an outgoing message.
type State string

const (
	StateQueued State = "QUEUED"
	StateSent   State = "SENT"
	StateFailed State = "FAILED"
)

func (s State) String() string { return string(s) }

func (s State) IsValid() bool {
	switch s {
	case StateQueued, StateSent, StateFailed:
		return true
	}
	return false
}

// ViolationKind classifies why a message was rejected at admission.
type ViolationKind string

const (
	ViolationMessageTooLong  ViolationKind = "MESSAGE_TOO_LONG"
	ViolationMessageTooShort ViolationKind = "MESSAGE_TOO_SHORT"
)

func (k ViolationKind) String() string { return string(k) }

func (k ViolationKind) IsValid() bool {
	switch k {
	case ViolationMessageTooLong, ViolationMessageTooShort:
		return true
	}
	return false
}

// OutgoingMessage is one send attempt moving through the engine.
//
// Nonce is zero until the message is accepted into the pending queue.
// Text is immutable after creation. State is written exactly once after
// enqueue, by the drain loop; rejected messages are created directly in
// StateFailed and never enter the queue.
type OutgoingMessage struct {
	Nonce       int64
	Text        string
	Sender      string
	Destination string
	State       State
}

// ContentLength is the admission-policy length of a message text,
// counted in runes rather than bytes.
func ContentLength(text string) int {
	return len([]rune(text))
}

// Describe returns a short human-readable summary used in logs.
func (m *OutgoingMessage) Describe() string {
	if m == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, m.State.String())
	if m.Destination != "" {
		parts = append(parts, "to "+m.Destination)
	}
	if m.Sender != "" {
		parts = append(parts, "from "+m.Sender)
	}
	return strings.Join(parts, " ")
}
