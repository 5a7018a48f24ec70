package core

// ProtocolEventType represents the type of protocol event.
type ProtocolEventType string

const (
	EventPhaseChanged     ProtocolEventType = "PhaseChanged"
	EventMessageCreated   ProtocolEventType = "MessageCreated"
	EventMessageDelivered ProtocolEventType = "MessageDelivered"
	EventTokenGranted     ProtocolEventType = "TokenGranted"
)

// ProtocolEvent is the flattened record handed to trace consumers. It carries
// enough data for a human-readable trace line: the process involved, the
// sequence number in play and the token queue at the time of the event.
type ProtocolEvent struct {
	ID        string            `json:"id"`
	EventType ProtocolEventType `json:"eventType"`
	Step      int               `json:"step"`
	ProcessID int               `json:"processID"`
	Phase     ProcessPhase      `json:"phase,omitempty"`
	MessageID int64             `json:"messageID,omitempty"`
	Kind      MessageKind       `json:"kind,omitempty"`
	From      int               `json:"from,omitempty"`
	To        int               `json:"to,omitempty"`
	Seq       int               `json:"seq,omitempty"`
	Queue     []int             `json:"queue,omitempty"`
}
