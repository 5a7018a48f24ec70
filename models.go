package main

import "time"

// Simulation constants
const (
	// DefaultVisualizationDelay is the delay between visualization updates in web mode
	DefaultVisualizationDelay = 50 * time.Millisecond

	// DefaultTransitStep is the per-step transit increment applied to every
	// in-flight message. Must stay below 1 so delivery is never instantaneous.
	DefaultTransitStep = 0.25

	// DefaultNumProcesses is the peer count used when no config is selected.
	DefaultNumProcesses = 5

	// DefaultListenAddr is the web driver's HTTP address.
	DefaultListenAddr = ":8080"
)

// Config holds simulation configuration values.
type Config struct {
	Name string

	// Fixed peer count. Process 0 starts holding the token.
	NumProcesses int

	// Transit progress added to every in-flight message per Step call.
	TransitStep float64

	// TotalSteps bounds headless runs.
	TotalSteps int

	// RequestRate is the probability per step that an idle, token-less
	// process issues a request in the headless demo driver (0.0-1.0).
	RequestRate float64

	// ReleaseAfter is how many steps an executing process holds the critical
	// section before the demo driver releases it.
	ReleaseAfter int

	// Schedule scripts requests deterministically: step -> process ids that
	// request at that step. When non-nil it overrides RequestRate.
	Schedule map[int][]int

	// Seed fixes the demo driver's randomness for reproducible runs.
	Seed int64

	// Plugins lists the global plugin names to load from the registry.
	Plugins []string

	// visualization settings
	Headless   bool   // true to run without visualization
	VisualMode string // "web" | "none" (default: "web" if Headless is false)
	ListenAddr string // web driver address
}

// GetPredefinedConfigs returns the named configurations selectable via flag.
func GetPredefinedConfigs() []*Config {
	return []*Config{
		{
			Name:         "five_peers",
			NumProcesses: 5,
			TransitStep:  0.25,
			TotalSteps:   400,
			RequestRate:  0.15,
			ReleaseAfter: 3,
			Seed:         1,
		},
		{
			Name:         "contention",
			NumProcesses: 8,
			TransitStep:  0.2,
			TotalSteps:   1000,
			RequestRate:  0.5,
			ReleaseAfter: 2,
			Seed:         7,
		},
		{
			Name:         "slow_network",
			NumProcesses: 4,
			TransitStep:  0.05,
			TotalSteps:   2000,
			RequestRate:  0.1,
			ReleaseAfter: 5,
			Seed:         3,
		},
	}
}

// GetConfigByName returns a copy of the named predefined configuration.
func GetConfigByName(name string) *Config {
	for _, cfg := range GetPredefinedConfigs() {
		if cfg.Name == name {
			c := *cfg
			return &c
		}
	}
	return nil
}
