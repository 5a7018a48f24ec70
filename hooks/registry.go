package hooks

import (
	"fmt"
	"sync"
)

// GlobalPluginFactory installs global hooks into the broker.
type GlobalPluginFactory func(broker *EventBroker) error

// ProcessPluginFactory installs hooks scoped to a specific process ID.
type ProcessPluginFactory func(processID int, broker *EventBroker) error

type registryEntry struct {
	desc    PluginDescriptor
	factory GlobalPluginFactory
}

type processRegistryEntry struct {
	desc    PluginDescriptor
	factory ProcessPluginFactory
}

// Registry keeps plugin factories that can be activated via configuration.
type Registry struct {
	mu     sync.RWMutex
	broker *EventBroker

	global  map[string]registryEntry
	process map[string]processRegistryEntry
}

// NewRegistry creates an empty plugin registry bound to a broker.
func NewRegistry(broker *EventBroker) *Registry {
	if broker == nil {
		broker = NewEventBroker()
	}
	return &Registry{
		broker:  broker,
		global:  make(map[string]registryEntry),
		process: make(map[string]processRegistryEntry),
	}
}

// Broker returns the underlying broker associated with the registry.
func (r *Registry) Broker() *EventBroker {
	if r == nil {
		return nil
	}
	return r.broker
}

// RegisterGlobal registers a global plugin factory.
func (r *Registry) RegisterGlobal(name string, desc PluginDescriptor, factory GlobalPluginFactory) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.global[name]; exists {
		return fmt.Errorf("global plugin already registered: %s", name)
	}

	r.global[name] = registryEntry{
		desc:    desc,
		factory: factory,
	}
	return nil
}

// RegisterProcess registers a process-scoped plugin factory.
func (r *Registry) RegisterProcess(name string, desc PluginDescriptor, factory ProcessPluginFactory) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.process[name]; exists {
		return fmt.Errorf("process plugin already registered: %s", name)
	}

	r.process[name] = processRegistryEntry{
		desc:    desc,
		factory: factory,
	}
	return nil
}

// LoadGlobal activates the requested global plugins.
func (r *Registry) LoadGlobal(names []string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, name := range names {
		entry, err := r.getGlobal(name)
		if err != nil {
			return err
		}
		if err := entry.factory(r.broker); err != nil {
			return fmt.Errorf("global plugin %s failed: %w", name, err)
		}
		r.broker.RegisterPluginMetadata(entry.desc)
	}
	return nil
}

// LoadForProcess activates the requested process-scoped plugins.
func (r *Registry) LoadForProcess(processID int, names []string) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, name := range names {
		entry, err := r.getProcess(name)
		if err != nil {
			return err
		}
		if err := entry.factory(processID, r.broker); err != nil {
			return fmt.Errorf("process plugin %s failed: %w", name, err)
		}
		r.broker.RegisterPluginMetadata(entry.desc)
	}
	return nil
}

// Descriptor returns metadata registered under the provided name.
func (r *Registry) Descriptor(name string) (PluginDescriptor, bool) {
	if r == nil {
		return PluginDescriptor{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.global[name]; ok {
		return entry.desc, true
	}
	if entry, ok := r.process[name]; ok {
		return entry.desc, true
	}
	return PluginDescriptor{}, false
}

func (r *Registry) getGlobal(name string) (registryEntry, error) {
	r.mu.RLock()
	entry, ok := r.global[name]
	r.mu.RUnlock()
	if !ok {
		return registryEntry{}, fmt.Errorf("global plugin not found: %s", name)
	}
	return entry, nil
}

func (r *Registry) getProcess(name string) (processRegistryEntry, error) {
	r.mu.RLock()
	entry, ok := r.process[name]
	r.mu.RUnlock()
	if !ok {
		return processRegistryEntry{}, fmt.Errorf("process plugin not found: %s", name)
	}
	return entry, nil
}
