package main

import "github.com/example/token_mutex_sim/core"

// Channel simulates an asynchronous, non-instantaneous transport. Messages
// accumulate transit progress until they are eligible for delivery; delivery
// order among simultaneous arrivals is deterministic (ascending message id,
// i.e. creation order).
type Channel struct {
	inFlight []*core.Message
	ids      *core.MessageIDAllocator
}

func NewChannel() *Channel {
	return &Channel{
		inFlight: make([]*core.Message, 0),
		ids:      core.NewMessageIDAllocator(),
	}
}

// Send puts a single message in flight with zero transit progress.
func (c *Channel) Send(from, to int, kind core.MessageKind, payload core.Payload) *core.Message {
	msg := &core.Message{
		ID:      c.ids.Allocate(),
		From:    from,
		To:      to,
		Kind:    kind,
		Payload: payload,
	}
	c.inFlight = append(c.inFlight, msg)
	return msg
}

// Broadcast creates one message per other process in ascending id order. The
// payload factory is called once per recipient.
func (c *Channel) Broadcast(from, numProcesses int, kind core.MessageKind, payloadFor func(to int) core.Payload) []*core.Message {
	out := make([]*core.Message, 0, numProcesses-1)
	for to := 0; to < numProcesses; to++ {
		if to == from {
			continue
		}
		out = append(out, c.Send(from, to, kind, payloadFor(to)))
	}
	return out
}

// Advance increases every in-flight message's transit progress by step,
// clamped at 1.0. Applied to the full in-flight set atomically before any
// delivery decision.
func (c *Channel) Advance(step float64) {
	for _, m := range c.inFlight {
		m.TransitFraction += step
		if m.TransitFraction > 1.0 {
			m.TransitFraction = 1.0
		}
	}
}

// NextArrived removes and returns the single message to deliver next: the
// lowest-id message whose transit progress has reached 1.0. Progress of all
// still-in-flight messages is preserved. Returns nil when nothing has
// arrived. A message is removed exactly once; redelivery is impossible by
// construction.
func (c *Channel) NextArrived() *core.Message {
	idx := -1
	for i, m := range c.inFlight {
		if m.TransitFraction < 1.0 {
			continue
		}
		if idx < 0 || m.ID < c.inFlight[idx].ID {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	msg := c.inFlight[idx]
	c.inFlight = append(c.inFlight[:idx], c.inFlight[idx+1:]...)
	return msg
}

// InFlightCount returns the number of messages currently in transit.
func (c *Channel) InFlightCount() int {
	return len(c.inFlight)
}

// InFlightTokens counts TOKEN messages currently in transit.
func (c *Channel) InFlightTokens() int {
	count := 0
	for _, m := range c.inFlight {
		if m.Kind == core.MsgToken {
			count++
		}
	}
	return count
}

// Snapshot returns visualization views of all in-flight messages.
func (c *Channel) Snapshot() []core.MessageInfo {
	out := make([]core.MessageInfo, len(c.inFlight))
	for i, m := range c.inFlight {
		out[i] = m.Info()
	}
	return out
}
