package main

import (
	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/hooks"
	"github.com/example/token_mutex_sim/queue"
)

// Engine implements the Suzuki-Kasami token protocol over the simulated
// transport. All operations run to completion single-threaded; at most one
// state mutation (a local request/release or one message delivery) is
// applied per scheduling step, so protocol transitions form one global
// total order.
type Engine struct {
	registry *ProcessRegistry
	token    *TokenStore
	channel  *Channel
	broker   *hooks.EventBroker

	step            int
	lastTokenHolder int
}

// NewEngine creates an engine for n processes. Process 0 starts Idle holding
// a fresh token; everyone else starts Idle without it. broker may be nil
// when no event consumers are attached.
func NewEngine(n int, broker *hooks.EventBroker) *Engine {
	e := &Engine{
		registry:        NewProcessRegistry(n),
		channel:         NewChannel(),
		broker:          broker,
		lastTokenHolder: 0,
	}
	e.token = NewTokenStore(n, queue.QueueHooks[int]{})
	e.token.Attach(core.NewToken(n))
	return e
}

// Registry exposes the process registry for drivers and tests.
func (e *Engine) Registry() *ProcessRegistry {
	return e.registry
}

// CurrentStep returns the number of completed scheduling steps.
func (e *Engine) CurrentStep() int {
	return e.step
}

// RequestCS broadcasts a critical-section request from the process. A
// request from a non-idle or token-holding process is a usage-contract
// violation and is silently rejected.
func (e *Engine) RequestCS(id int) bool {
	p := e.registry.Get(id)
	if p.Phase != core.PhaseIdle || p.HasToken {
		GetLogger().Debugf("P%d: request rejected (phase=%s hasToken=%v)", id, p.Phase, p.HasToken)
		return false
	}

	seq := e.registry.BumpOwnSequence(id)
	e.setPhase(id, core.PhaseRequesting)

	msgs := e.channel.Broadcast(id, e.registry.Len(), core.MsgRequest, func(to int) core.Payload {
		return core.RequestPayload{Sender: id, Seq: seq}
	})
	for _, msg := range msgs {
		e.emitMessageCreated(msg)
	}
	GetLogger().Debugf("P%d: requested CS with seq=%d (%d messages)", id, seq, len(msgs))
	return true
}

// ReleaseCS exits the critical section. The token's bookkeeping is updated,
// every peer's latest known request is re-examined for admission in
// ascending id order, and the token is forwarded to the queue head if one
// exists. Releasing from a non-executing process is a silent no-op.
func (e *Engine) ReleaseCS(id int) bool {
	p := e.registry.Get(id)
	if p.Phase != core.PhaseExecuting {
		GetLogger().Debugf("P%d: release rejected (phase=%s)", id, p.Phase)
		return false
	}

	e.token.MarkSatisfied(id, p.RequestNumbers[id])
	for peer := 0; peer < e.registry.Len(); peer++ {
		if peer == id {
			continue
		}
		e.token.EnqueueIfEligible(peer, p.RequestNumbers[peer], e.step)
	}
	e.setPhase(id, core.PhaseIdle)

	next, ok := e.token.DequeueNext(e.step)
	if !ok {
		GetLogger().Debugf("P%d: released CS, token stays resident", id)
		return true
	}
	e.forwardToken(id, next)
	return true
}

// Step advances every in-flight message by deltaTransit and, if any have
// arrived, delivers exactly one using the deterministic tie-break. Returns
// true when a message was delivered.
func (e *Engine) Step(deltaTransit float64) bool {
	e.step++
	e.channel.Advance(deltaTransit)
	msg := e.channel.NextArrived()
	if msg == nil {
		return false
	}
	e.emitMessageDelivered(msg)
	e.onMessageArrival(msg)
	return true
}

// onMessageArrival applies one delivered message, never concurrently with
// another arrival or a local request/release.
func (e *Engine) onMessageArrival(msg *core.Message) {
	switch payload := msg.Payload.(type) {
	case core.RequestPayload:
		e.handleRequest(msg.To, payload)
	case core.TokenPayload:
		e.handleToken(msg.To, payload)
	default:
		GetLogger().Errorf("message %d: unknown payload type %T", msg.ID, payload)
	}
}

// handleRequest records the sender's sequence number and, if the receiver is
// an idle token holder and the request is exactly the next unsatisfied one,
// hands the token off immediately without queuing. An ineligible request is
// never lost: the updated request vector is re-examined at every release.
func (e *Engine) handleRequest(receiver int, payload core.RequestPayload) {
	e.registry.ObserveSequence(receiver, payload.Sender, payload.Seq)

	p := e.registry.Get(receiver)
	if !p.HasToken || !e.token.Resident() || p.Phase != core.PhaseIdle {
		return
	}
	if p.RequestNumbers[payload.Sender] != e.token.LastSatisfied(payload.Sender)+1 {
		return
	}
	e.forwardToken(receiver, payload.Sender)
}

// handleToken grants the critical section. This is the only path into the
// Executing phase.
func (e *Engine) handleToken(receiver int, payload core.TokenPayload) {
	e.registry.SetHasToken(receiver, true)
	e.token.Attach(payload.Token)
	e.setPhase(receiver, core.PhaseExecuting)
	e.lastTokenHolder = receiver

	grant := &hooks.GrantContext{
		ProcessID: receiver,
		Queue:     e.token.QueueSnapshot(),
		Step:      e.step,
	}
	if err := e.broker.EmitTokenGranted(grant); err != nil {
		GetLogger().Warnf("token granted hook failed: %v", err)
	}
	GetLogger().Debugf("P%d: token granted, queue=%v", receiver, grant.Queue)
}

// forwardToken detaches the resident token from holder and puts it in flight
// to the recipient. The holder is token-less until delivery.
func (e *Engine) forwardToken(holder, to int) {
	tok := e.token.Detach()
	e.registry.SetHasToken(holder, false)
	msg := e.channel.Send(holder, to, core.MsgToken, core.TokenPayload{Token: tok})
	e.emitMessageCreated(msg)
	GetLogger().Debugf("P%d: token forwarded to P%d", holder, to)
}

func (e *Engine) setPhase(id int, phase core.ProcessPhase) {
	from := e.registry.Get(id).Phase
	if from == phase {
		return
	}
	e.registry.SetPhase(id, phase)
	ctx := &hooks.PhaseContext{
		ProcessID: id,
		From:      from,
		To:        phase,
		Step:      e.step,
	}
	if err := e.broker.EmitPhaseChanged(ctx); err != nil {
		GetLogger().Warnf("phase changed hook failed: %v", err)
	}
}

func (e *Engine) emitMessageCreated(msg *core.Message) {
	ctx := &hooks.MessageContext{Message: msg, Step: e.step}
	if err := e.broker.EmitMessageCreated(ctx); err != nil {
		GetLogger().Warnf("message created hook failed: %v", err)
	}
}

func (e *Engine) emitMessageDelivered(msg *core.Message) {
	ctx := &hooks.MessageContext{Message: msg, Step: e.step}
	if err := e.broker.EmitMessageDelivered(ctx); err != nil {
		GetLogger().Warnf("message delivered hook failed: %v", err)
	}
}

// EngineSnapshot is a read-only view of the full simulation state, taken
// strictly between scheduling steps. Token is nil while in transit.
type EngineSnapshot struct {
	Step            int                `json:"step"`
	Processes       []*core.Process    `json:"processes"`
	Token           *core.Token        `json:"token"`
	TokenHolder     int                `json:"tokenHolder"` // -1 while in transit
	LastTokenHolder int                `json:"lastTokenHolder"`
	InFlight        []core.MessageInfo `json:"inFlight"`
}

// Snapshot builds a deep-copied view for rendering and logging. No
// partial-mutation state is ever observable: every engine operation runs to
// completion before Snapshot can be called.
func (e *Engine) Snapshot() *EngineSnapshot {
	holder := -1
	for _, p := range e.registry.processes {
		if p.HasToken {
			holder = p.ID
			break
		}
	}
	return &EngineSnapshot{
		Step:            e.step,
		Processes:       e.registry.Snapshot(),
		Token:           e.token.TokenSnapshot(),
		TokenHolder:     holder,
		LastTokenHolder: e.lastTokenHolder,
		InFlight:        e.channel.Snapshot(),
	}
}
