// Package tracelog turns broker events into human-readable trace records.
// It is a pure consumer: it reads event contexts and never touches protocol
// state.
package tracelog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/hooks"
)

// Sink receives formatted trace lines together with the structured event.
type Sink func(line string, event core.ProtocolEvent)

// Options configure trace plugin registration.
type Options struct {
	Sink Sink
}

// PluginName is the registry key for the trace plugin.
const PluginName = "tracelog"

// Register installs the trace plugin factory into the registry. The plugin
// is activated through Registry.LoadGlobal like any other.
func Register(reg *hooks.Registry, opts Options) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	if opts.Sink == nil {
		return fmt.Errorf("trace sink is nil")
	}
	desc := hooks.PluginDescriptor{
		Name:        PluginName,
		Category:    hooks.PluginCategoryInstrumentation,
		Description: "human-readable protocol event trace",
	}
	return reg.RegisterGlobal(desc.Name, desc, func(b *hooks.EventBroker) error {
		if b == nil {
			return fmt.Errorf("event broker is nil")
		}
		t := &tracer{sink: opts.Sink}
		b.RegisterBundle(desc, hooks.HookBundle{
			PhaseChanged:     []hooks.PhaseChangedHook{t.onPhaseChanged},
			MessageCreated:   []hooks.MessageCreatedHook{t.onMessageCreated},
			MessageDelivered: []hooks.MessageDeliveredHook{t.onMessageDelivered},
			TokenGranted:     []hooks.TokenGrantedHook{t.onTokenGranted},
		})
		return nil
	})
}

type tracer struct {
	sink Sink
}

func (t *tracer) onPhaseChanged(ctx *hooks.PhaseContext) error {
	event := core.ProtocolEvent{
		ID:        uuid.NewString(),
		EventType: core.EventPhaseChanged,
		Step:      ctx.Step,
		ProcessID: ctx.ProcessID,
		Phase:     ctx.To,
	}
	t.sink(fmt.Sprintf("step %d: P%d %s -> %s", ctx.Step, ctx.ProcessID, ctx.From, ctx.To), event)
	return nil
}

func (t *tracer) onMessageCreated(ctx *hooks.MessageContext) error {
	event, detail := messageEvent(core.EventMessageCreated, ctx)
	t.sink(fmt.Sprintf("step %d: %s message %d sent P%d -> P%d%s",
		ctx.Step, ctx.Message.Kind, ctx.Message.ID, ctx.Message.From, ctx.Message.To, detail), event)
	return nil
}

func (t *tracer) onMessageDelivered(ctx *hooks.MessageContext) error {
	event, detail := messageEvent(core.EventMessageDelivered, ctx)
	t.sink(fmt.Sprintf("step %d: %s message %d delivered to P%d%s",
		ctx.Step, ctx.Message.Kind, ctx.Message.ID, ctx.Message.To, detail), event)
	return nil
}

func (t *tracer) onTokenGranted(ctx *hooks.GrantContext) error {
	event := core.ProtocolEvent{
		ID:        uuid.NewString(),
		EventType: core.EventTokenGranted,
		Step:      ctx.Step,
		ProcessID: ctx.ProcessID,
		Queue:     append([]int(nil), ctx.Queue...),
	}
	t.sink(fmt.Sprintf("step %d: P%d enters CS, queue=%v", ctx.Step, ctx.ProcessID, ctx.Queue), event)
	return nil
}

func messageEvent(kind core.ProtocolEventType, ctx *hooks.MessageContext) (core.ProtocolEvent, string) {
	event := core.ProtocolEvent{
		ID:        uuid.NewString(),
		EventType: kind,
		Step:      ctx.Step,
		ProcessID: ctx.Message.To,
		MessageID: ctx.Message.ID,
		Kind:      ctx.Message.Kind,
		From:      ctx.Message.From,
		To:        ctx.Message.To,
	}
	detail := ""
	if req, ok := ctx.Message.Payload.(core.RequestPayload); ok {
		event.Seq = req.Seq
		detail = fmt.Sprintf(" (seq=%d)", req.Seq)
	}
	if tok, ok := ctx.Message.Payload.(core.TokenPayload); ok && tok.Token != nil {
		event.Queue = append([]int(nil), tok.Token.Queue...)
	}
	return event, detail
}
