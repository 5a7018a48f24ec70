package simulator

import "context"

// CommandSource provides control commands from an external producer.
type CommandSource[T any] interface {
	NextCommand() (T, bool)
	WaitCommand(context.Context) (T, bool)
}

// CommandHandler consumes control commands and reports whether processing
// should continue.
type CommandHandler[T any] func(T) bool

// Driver glues command handling and frame publishing for a simulation loop.
// It owns no simulation state; the handler and publisher close over it.
type Driver[TCommand any, Frame any] struct {
	source   CommandSource[TCommand]
	handler  CommandHandler[TCommand]
	headless bool
	publish  func(Frame)
}

// NewDriver creates a driver around a command source and handler. publish may
// be nil for headless runs.
func NewDriver[TCommand any, Frame any](source CommandSource[TCommand], handler CommandHandler[TCommand], headless bool, publish func(Frame)) *Driver[TCommand, Frame] {
	return &Driver[TCommand, Frame]{
		source:   source,
		handler:  handler,
		headless: headless,
		publish:  publish,
	}
}

// DrainPending pulls all currently queued commands until exhaustion or
// handler termination. Returns false when the handler requested a stop.
func (d *Driver[TCommand, Frame]) DrainPending() bool {
	if d == nil || d.handler == nil || d.source == nil {
		return true
	}
	for {
		cmd, ok := d.source.NextCommand()
		if !ok {
			return true
		}
		if !d.handler(cmd) {
			return false
		}
	}
}

// WaitForCommand blocks until a command arrives or the context is cancelled,
// then dispatches it.
func (d *Driver[TCommand, Frame]) WaitForCommand(ctx context.Context) bool {
	if d == nil || d.handler == nil || d.source == nil {
		return true
	}
	cmd, ok := d.source.WaitCommand(ctx)
	if !ok {
		return true
	}
	return d.handler(cmd)
}

// VisualEnabled reports whether frame publishing is active.
func (d *Driver[TCommand, Frame]) VisualEnabled() bool {
	if d == nil {
		return false
	}
	return !d.headless && d.publish != nil
}

// PublishFrame emits a frame when visualization is enabled.
func (d *Driver[TCommand, Frame]) PublishFrame(frame Frame) {
	if !d.VisualEnabled() {
		return
	}
	d.publish(frame)
}

// SetHeadless toggles frame publishing.
func (d *Driver[TCommand, Frame]) SetHeadless(headless bool) {
	if d == nil {
		return
	}
	d.headless = headless
}

// UpdatePublisher resets the publish callback (e.g., after reset).
func (d *Driver[TCommand, Frame]) UpdatePublisher(publish func(Frame)) {
	if d == nil {
		return
	}
	d.publish = publish
}
