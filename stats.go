package main

import (
	"sync"

	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/hooks"
)

// ProcessStats accumulates per-process protocol activity.
type ProcessStats struct {
	ProcessID    int `json:"processID"`
	Requests     int `json:"requests"`
	Grants       int `json:"grants"`
	TotalWait    int `json:"totalWait"` // steps spent Requesting before each grant
	requestStart int
	waiting      bool
}

// GlobalStats summarizes the whole run.
type GlobalStats struct {
	TotalRequests int     `json:"totalRequests"`
	TotalGrants   int     `json:"totalGrants"`
	Messages      int     `json:"messages"`
	Deliveries    int     `json:"deliveries"`
	AvgWaitSteps  float64 `json:"avgWaitSteps"`
}

// SimulationStats is the aggregate view published with frames.
type SimulationStats struct {
	Global     *GlobalStats    `json:"global"`
	PerProcess []*ProcessStats `json:"perProcess"`
}

// StatsCollector derives run statistics from broker events. It lives
// entirely in the driver layer; the engine knows nothing about it.
type StatsCollector struct {
	mu         sync.Mutex
	perProcess []*ProcessStats
	messages   int
	deliveries int
}

// NewStatsCollector creates a collector for n processes and subscribes it to
// the broker.
func NewStatsCollector(n int, broker *hooks.EventBroker) *StatsCollector {
	c := &StatsCollector{perProcess: make([]*ProcessStats, n)}
	for i := 0; i < n; i++ {
		c.perProcess[i] = &ProcessStats{ProcessID: i}
	}
	broker.RegisterBundle(
		hooks.PluginDescriptor{
			Name:        "stats",
			Category:    hooks.PluginCategoryInstrumentation,
			Description: "per-process request/grant/wait counters",
		},
		hooks.HookBundle{
			PhaseChanged:     []hooks.PhaseChangedHook{c.onPhaseChanged},
			MessageCreated:   []hooks.MessageCreatedHook{c.onMessageCreated},
			MessageDelivered: []hooks.MessageDeliveredHook{c.onMessageDelivered},
			TokenGranted:     []hooks.TokenGrantedHook{c.onTokenGranted},
		},
	)
	return c
}

func (c *StatsCollector) onPhaseChanged(ctx *hooks.PhaseContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.perProcess[ctx.ProcessID]
	if ctx.To == core.PhaseRequesting {
		st.Requests++
		st.requestStart = ctx.Step
		st.waiting = true
	}
	return nil
}

func (c *StatsCollector) onMessageCreated(ctx *hooks.MessageContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages++
	return nil
}

func (c *StatsCollector) onMessageDelivered(ctx *hooks.MessageContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliveries++
	return nil
}

func (c *StatsCollector) onTokenGranted(ctx *hooks.GrantContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.perProcess[ctx.ProcessID]
	st.Grants++
	if st.waiting {
		st.TotalWait += ctx.Step - st.requestStart
		st.waiting = false
	}
	return nil
}

// Collect builds the aggregate statistics view.
func (c *StatsCollector) Collect() *SimulationStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	per := make([]*ProcessStats, len(c.perProcess))
	totalRequests := 0
	totalGrants := 0
	totalWait := 0
	for i, st := range c.perProcess {
		cp := *st
		per[i] = &cp
		totalRequests += st.Requests
		totalGrants += st.Grants
		totalWait += st.TotalWait
	}

	var avgWait float64
	if totalGrants > 0 {
		avgWait = float64(totalWait) / float64(totalGrants)
	}
	return &SimulationStats{
		Global: &GlobalStats{
			TotalRequests: totalRequests,
			TotalGrants:   totalGrants,
			Messages:      c.messages,
			Deliveries:    c.deliveries,
			AvgWaitSteps:  avgWait,
		},
		PerProcess: per,
	}
}

// PrintStats writes a run summary through the leveled logger.
func PrintStats(stats *SimulationStats) {
	if stats == nil || stats.Global == nil {
		return
	}
	g := stats.Global
	GetLogger().Infof("run summary: requests=%d grants=%d messages=%d deliveries=%d avgWait=%.1f steps",
		g.TotalRequests, g.TotalGrants, g.Messages, g.Deliveries, g.AvgWaitSteps)
	for _, st := range stats.PerProcess {
		GetLogger().Infof("  P%d: requests=%d grants=%d totalWait=%d", st.ProcessID, st.Requests, st.Grants, st.TotalWait)
	}
}
