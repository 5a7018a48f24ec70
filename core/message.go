package core

// MessageKind represents the protocol message types.
type MessageKind string

const (
	MsgRequest MessageKind = "REQUEST" // critical-section request broadcast
	MsgToken   MessageKind = "TOKEN"   // token transfer to a single recipient
)

// Payload is the tagged union carried by a message. Exactly one concrete
// payload type matches each MessageKind.
type Payload interface {
	isPayload()
}

// RequestPayload carries the requester id and its new sequence number.
type RequestPayload struct {
	Sender int `json:"sender"`
	Seq    int `json:"seq"`
}

func (RequestPayload) isPayload() {}

// TokenPayload carries the token value while it is in transit. The token is
// owned by the message itself until delivery.
type TokenPayload struct {
	Token *Token `json:"token"`
}

func (TokenPayload) isPayload() {}

// Message is a protocol message in flight between two processes. IDs are
// allocated in creation order; delivery tie-breaks use ascending id.
// TransitFraction tracks simulated progress toward delivery and is clamped
// at 1.0, at which point the message is eligible for delivery.
type Message struct {
	ID              int64       `json:"id"`
	From            int         `json:"from"`
	To              int         `json:"to"`
	Kind            MessageKind `json:"kind"`
	Payload         Payload     `json:"-"`
	TransitFraction float64     `json:"transitFraction"`
}

// MessageInfo represents message information for visualization.
type MessageInfo struct {
	ID              int64       `json:"id"`
	From            int         `json:"from"`
	To              int         `json:"to"`
	Kind            MessageKind `json:"kind"`
	TransitFraction float64     `json:"transitFraction"`
	Seq             int         `json:"seq,omitempty"`
}

// Info builds the visualization view of the message.
func (m *Message) Info() MessageInfo {
	info := MessageInfo{
		ID:              m.ID,
		From:            m.From,
		To:              m.To,
		Kind:            m.Kind,
		TransitFraction: m.TransitFraction,
	}
	if req, ok := m.Payload.(RequestPayload); ok {
		info.Seq = req.Seq
	}
	return info
}

// MessageIDAllocator provides unique, creation-ordered ids for messages.
type MessageIDAllocator struct {
	next int64
}

func NewMessageIDAllocator() *MessageIDAllocator {
	return &MessageIDAllocator{next: 1}
}

func (a *MessageIDAllocator) Allocate() int64 {
	id := a.next
	a.next++
	return id
}
