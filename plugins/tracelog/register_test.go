package tracelog

import (
	"strings"
	"testing"

	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/hooks"
)

type capture struct {
	lines  []string
	events []core.ProtocolEvent
}

func (c *capture) sink(line string, event core.ProtocolEvent) {
	c.lines = append(c.lines, line)
	c.events = append(c.events, event)
}

func newTracedBroker(t *testing.T) (*hooks.EventBroker, *capture) {
	t.Helper()
	broker := hooks.NewEventBroker()
	reg := hooks.NewRegistry(broker)
	c := &capture{}
	if err := Register(reg, Options{Sink: c.sink}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := reg.LoadGlobal([]string{PluginName}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return broker, c
}

func TestRegisterValidation(t *testing.T) {
	if err := Register(nil, Options{Sink: func(string, core.ProtocolEvent) {}}); err == nil {
		t.Fatalf("nil registry must be rejected")
	}
	if err := Register(hooks.NewRegistry(nil), Options{}); err == nil {
		t.Fatalf("nil sink must be rejected")
	}
}

func TestPhaseChangedTrace(t *testing.T) {
	broker, c := newTracedBroker(t)

	broker.EmitPhaseChanged(&hooks.PhaseContext{
		ProcessID: 2,
		From:      core.PhaseIdle,
		To:        core.PhaseRequesting,
		Step:      7,
	})

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	ev := c.events[0]
	if ev.EventType != core.EventPhaseChanged || ev.ProcessID != 2 || ev.Step != 7 || ev.Phase != core.PhaseRequesting {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.ID == "" {
		t.Fatalf("event must carry an id")
	}
	if !strings.Contains(c.lines[0], "P2") || !strings.Contains(c.lines[0], "Requesting") {
		t.Fatalf("unexpected trace line: %q", c.lines[0])
	}
}

func TestMessageTraceCarriesPayloadDetail(t *testing.T) {
	broker, c := newTracedBroker(t)

	req := &core.Message{
		ID: 11, From: 1, To: 3, Kind: core.MsgRequest,
		Payload: core.RequestPayload{Sender: 1, Seq: 4},
	}
	broker.EmitMessageCreated(&hooks.MessageContext{Message: req, Step: 2})

	tok := &core.Message{
		ID: 12, From: 3, To: 1, Kind: core.MsgToken,
		Payload: core.TokenPayload{Token: &core.Token{LastSatisfied: make([]int, 4), Queue: []int{2}}},
	}
	broker.EmitMessageDelivered(&hooks.MessageContext{Message: tok, Step: 5})

	if len(c.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(c.events))
	}
	if c.events[0].Seq != 4 || c.events[0].MessageID != 11 || c.events[0].EventType != core.EventMessageCreated {
		t.Fatalf("unexpected request event: %+v", c.events[0])
	}
	if !strings.Contains(c.lines[0], "seq=4") {
		t.Fatalf("request line missing sequence: %q", c.lines[0])
	}
	if len(c.events[1].Queue) != 1 || c.events[1].Queue[0] != 2 {
		t.Fatalf("token event missing queue: %+v", c.events[1])
	}
	if c.events[0].ID == c.events[1].ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestTokenGrantedTrace(t *testing.T) {
	broker, c := newTracedBroker(t)

	broker.EmitTokenGranted(&hooks.GrantContext{ProcessID: 1, Queue: []int{2, 3}, Step: 9})

	ev := c.events[0]
	if ev.EventType != core.EventTokenGranted || ev.ProcessID != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Queue) != 2 || ev.Queue[0] != 2 || ev.Queue[1] != 3 {
		t.Fatalf("unexpected queue copy: %v", ev.Queue)
	}
	if !strings.Contains(c.lines[0], "enters CS") {
		t.Fatalf("unexpected trace line: %q", c.lines[0])
	}
}
