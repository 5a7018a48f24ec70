package hooks

import (
	"sync"

	"github.com/example/token_mutex_sim/core"
)

// PluginCategory represents the high-level role of a plugin.
type PluginCategory string

const (
	// PluginCategoryVisualization covers UI, timeline, or monitoring plugins.
	PluginCategoryVisualization PluginCategory = "visualization"
	// PluginCategoryInstrumentation covers logging, tracing, and diagnostics.
	PluginCategoryInstrumentation PluginCategory = "instrumentation"
)

// PluginDescriptor describes a plugin registered with the broker.
type PluginDescriptor struct {
	Name        string
	Category    PluginCategory
	Description string
}

// PhaseContext carries information for phase transition hooks.
type PhaseContext struct {
	ProcessID int
	From      core.ProcessPhase
	To        core.ProcessPhase
	Step      int
}

// MessageContext provides data for message creation and delivery hooks.
type MessageContext struct {
	Message *core.Message
	Step    int
}

// GrantContext provides data for token grant hooks. Queue is the token's
// wait queue as it stands at grant time.
type GrantContext struct {
	ProcessID int
	Queue     []int
	Step      int
}

// PhaseChangedHook executes when a process changes phase.
type PhaseChangedHook func(ctx *PhaseContext) error

// MessageCreatedHook executes when the engine puts a message in flight.
type MessageCreatedHook func(ctx *MessageContext) error

// MessageDeliveredHook executes when the engine removes a message from flight.
type MessageDeliveredHook func(ctx *MessageContext) error

// TokenGrantedHook executes when a process receives the token and enters
// the critical section.
type TokenGrantedHook func(ctx *GrantContext) error

// HookBundle groups multiple hook handlers that belong to one plugin.
type HookBundle struct {
	PhaseChanged     []PhaseChangedHook
	MessageCreated   []MessageCreatedHook
	MessageDelivered []MessageDeliveredHook
	TokenGranted     []TokenGrantedHook
}

// EventBroker coordinates hook registration and triggering for the protocol
// engine's event notifications.
type EventBroker struct {
	mu sync.RWMutex

	phaseChangedHooks     []PhaseChangedHook
	messageCreatedHooks   []MessageCreatedHook
	messageDeliveredHooks []MessageDeliveredHook
	tokenGrantedHooks     []TokenGrantedHook

	pluginCatalog map[PluginCategory][]PluginDescriptor
	pluginIndex   map[string]PluginDescriptor
}

// NewEventBroker creates an empty broker instance.
func NewEventBroker() *EventBroker {
	return &EventBroker{
		phaseChangedHooks:     make([]PhaseChangedHook, 0),
		messageCreatedHooks:   make([]MessageCreatedHook, 0),
		messageDeliveredHooks: make([]MessageDeliveredHook, 0),
		tokenGrantedHooks:     make([]TokenGrantedHook, 0),
		pluginCatalog:         make(map[PluginCategory][]PluginDescriptor),
		pluginIndex:           make(map[string]PluginDescriptor),
	}
}

// RegisterPhaseChanged adds a hook executed on process phase transitions.
func (b *EventBroker) RegisterPhaseChanged(h PhaseChangedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phaseChangedHooks = append(b.phaseChangedHooks, h)
}

// RegisterMessageCreated adds a hook executed when a message enters flight.
func (b *EventBroker) RegisterMessageCreated(h MessageCreatedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messageCreatedHooks = append(b.messageCreatedHooks, h)
}

// RegisterMessageDelivered adds a hook executed when a message is delivered.
func (b *EventBroker) RegisterMessageDelivered(h MessageDeliveredHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messageDeliveredHooks = append(b.messageDeliveredHooks, h)
}

// RegisterTokenGranted adds a hook executed when the token is granted.
func (b *EventBroker) RegisterTokenGranted(h TokenGrantedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenGrantedHooks = append(b.tokenGrantedHooks, h)
}

// EmitPhaseChanged triggers phase change hooks.
func (b *EventBroker) EmitPhaseChanged(ctx *PhaseContext) error {
	if b == nil || ctx == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]PhaseChangedHook, len(b.phaseChangedHooks))
	copy(handlers, b.phaseChangedHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitMessageCreated triggers message creation hooks.
func (b *EventBroker) EmitMessageCreated(ctx *MessageContext) error {
	if b == nil || ctx == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]MessageCreatedHook, len(b.messageCreatedHooks))
	copy(handlers, b.messageCreatedHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitMessageDelivered triggers message delivery hooks.
func (b *EventBroker) EmitMessageDelivered(ctx *MessageContext) error {
	if b == nil || ctx == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]MessageDeliveredHook, len(b.messageDeliveredHooks))
	copy(handlers, b.messageDeliveredHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitTokenGranted triggers token grant hooks.
func (b *EventBroker) EmitTokenGranted(ctx *GrantContext) error {
	if b == nil || ctx == nil {
		return nil
	}
	b.mu.RLock()
	handlers := make([]TokenGrantedHook, len(b.tokenGrantedHooks))
	copy(handlers, b.tokenGrantedHooks)
	b.mu.RUnlock()
	for _, handler := range handlers {
		if err := handler(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RegisterBundle registers a plugin descriptor together with all hook handlers.
func (b *EventBroker) RegisterBundle(desc PluginDescriptor, bundle HookBundle) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.registerDescriptorLocked(desc)

	if len(bundle.PhaseChanged) > 0 {
		b.phaseChangedHooks = append(b.phaseChangedHooks, bundle.PhaseChanged...)
	}
	if len(bundle.MessageCreated) > 0 {
		b.messageCreatedHooks = append(b.messageCreatedHooks, bundle.MessageCreated...)
	}
	if len(bundle.MessageDelivered) > 0 {
		b.messageDeliveredHooks = append(b.messageDeliveredHooks, bundle.MessageDelivered...)
	}
	if len(bundle.TokenGranted) > 0 {
		b.tokenGrantedHooks = append(b.tokenGrantedHooks, bundle.TokenGranted...)
	}
}

// RegisterPluginMetadata stores plugin metadata without registering hooks.
func (b *EventBroker) RegisterPluginMetadata(desc PluginDescriptor) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registerDescriptorLocked(desc)
}

// ListPlugins returns descriptors for plugins in the requested category.
func (b *EventBroker) ListPlugins(category PluginCategory) []PluginDescriptor {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	catalog := b.pluginCatalog[category]
	if len(catalog) == 0 {
		return nil
	}
	out := make([]PluginDescriptor, len(catalog))
	copy(out, catalog)
	return out
}

// ListAllPlugins returns descriptors of every registered plugin.
func (b *EventBroker) ListAllPlugins() []PluginDescriptor {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]PluginDescriptor, 0, len(b.pluginIndex))
	for _, desc := range b.pluginIndex {
		out = append(out, desc)
	}
	return out
}

func (b *EventBroker) registerDescriptorLocked(desc PluginDescriptor) {
	if desc.Name == "" {
		return
	}
	if _, exists := b.pluginIndex[desc.Name]; exists {
		return
	}
	b.pluginIndex[desc.Name] = desc
	category := desc.Category
	b.pluginCatalog[category] = append(b.pluginCatalog[category], desc)
}
