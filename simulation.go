package main

import (
	"math/rand"
	"time"

	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/hooks"
	"github.com/example/token_mutex_sim/plugins/tracelog"
	"github.com/example/token_mutex_sim/simulator"
	"github.com/example/token_mutex_sim/visual"
)

// Simulation is the driver around the protocol engine: it decides when to
// advance message transit, when user/test actions fire, and when frames are
// published. All protocol logic lives in Engine; the driver only schedules.
type Simulation struct {
	cfg        *Config
	engine     *Engine
	broker     *hooks.EventBroker
	plugins    *hooks.Registry
	stats      *StatsCollector
	rng        *rand.Rand
	scheduler  RequestScheduler
	visualizer visual.Visualizer
	driver     *simulator.Driver[visual.ControlCommand, *SimulationFrame]

	// enteredAt[i] is the step at which process i last entered the critical
	// section, used by the demo driver to schedule releases.
	enteredAt []int

	// pendingSteps accumulates step-command batches while paused; consumed by
	// the next loop iteration.
	pendingSteps int

	isPaused  bool
	isRunning bool
}

// NewSimulation wires the engine, event consumers and visualizer per config.
func NewSimulation(cfg *Config) (*Simulation, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	broker := hooks.NewEventBroker()
	plugins := hooks.NewRegistry(broker)
	if err := tracelog.Register(plugins, tracelog.Options{
		Sink: func(line string, _ core.ProtocolEvent) {
			GetLogger().Infof("%s", line)
		},
	}); err != nil {
		return nil, err
	}
	if err := plugins.LoadGlobal(cfg.Plugins); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:        cfg,
		broker:     broker,
		plugins:    plugins,
		stats:      NewStatsCollector(cfg.NumProcesses, broker),
		rng:        rand.New(rand.NewSource(seedOrNow(cfg.Seed))),
		enteredAt:  make([]int, cfg.NumProcesses),
		visualizer: newVisualizer(cfg),
	}
	s.scheduler = newRequestScheduler(cfg, s.rng)
	s.engine = NewEngine(cfg.NumProcesses, broker)
	s.driver = simulator.NewDriver[visual.ControlCommand, *SimulationFrame](
		s.visualizer,
		func(cmd visual.ControlCommand) bool {
			s.pendingSteps += s.handleCommand(cmd)
			return true
		},
		s.visualizer.IsHeadless(),
		func(frame *SimulationFrame) {
			s.visualizer.PublishFrame(frame)
		},
	)
	broker.RegisterTokenGranted(func(ctx *hooks.GrantContext) error {
		s.enteredAt[ctx.ProcessID] = ctx.Step
		return nil
	})
	return s, nil
}

func seedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// Engine exposes the protocol engine for direct test driving.
func (s *Simulation) Engine() *Engine {
	return s.engine
}

// Stats returns the current aggregate statistics.
func (s *Simulation) Stats() *SimulationStats {
	return s.stats.Collect()
}

// Run executes the simulation loop until TotalSteps scheduling steps have
// completed, honoring pause/resume/step/reset and request/release commands
// from the visualizer.
func (s *Simulation) Run() {
	s.isRunning = true
	s.isPaused = false

	for s.engine.CurrentStep() < s.cfg.TotalSteps {
		s.pendingSteps = 0
		s.driver.DrainPending()

		if s.isPaused && s.pendingSteps == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		steps := 1
		if s.pendingSteps > 0 {
			steps = s.pendingSteps
		}
		for i := 0; i < steps && s.engine.CurrentStep() < s.cfg.TotalSteps; i++ {
			s.stepOnce()
		}

		if s.driver.VisualEnabled() {
			s.driver.PublishFrame(s.buildFrame())
			time.Sleep(DefaultVisualizationDelay)
		}
	}

	s.isRunning = false
}

// handleCommand applies a control command. It returns the number of steps to
// execute immediately (only non-zero for step commands while paused).
func (s *Simulation) handleCommand(cmd visual.ControlCommand) int {
	switch cmd.Type {
	case visual.CommandPause:
		s.isPaused = true
	case visual.CommandResume:
		s.isPaused = false
	case visual.CommandReset:
		s.reset()
	case visual.CommandStep:
		if s.isPaused {
			if cmd.Steps > 0 {
				return cmd.Steps
			}
			return 1
		}
	case visual.CommandRequest:
		if cmd.ProcessID >= 0 && cmd.ProcessID < s.cfg.NumProcesses {
			s.engine.RequestCS(cmd.ProcessID)
		}
	case visual.CommandRelease:
		if cmd.ProcessID >= 0 && cmd.ProcessID < s.cfg.NumProcesses {
			s.engine.ReleaseCS(cmd.ProcessID)
		}
	}
	return 0
}

// stepOnce runs the demo driver's local actions and one scheduling step.
func (s *Simulation) stepOnce() {
	s.driveLocalActions()
	s.engine.Step(s.cfg.TransitStep)
}

func newRequestScheduler(cfg *Config, rng *rand.Rand) RequestScheduler {
	if cfg.Schedule != nil {
		return NewScheduleScheduler(cfg.Schedule)
	}
	if cfg.RequestRate > 0 {
		return NewProbabilityScheduler(cfg.RequestRate, rng)
	}
	return nil
}

// driveLocalActions triggers request/release calls for the scripted demo:
// executing processes release after ReleaseAfter steps, idle token-less
// processes request when the scheduler says so.
func (s *Simulation) driveLocalActions() {
	if s.scheduler == nil {
		return
	}
	step := s.engine.CurrentStep()
	for id := 0; id < s.cfg.NumProcesses; id++ {
		p := s.engine.Registry().Get(id)
		switch {
		case p.Phase == core.PhaseExecuting:
			if step-s.enteredAt[id] >= s.cfg.ReleaseAfter {
				s.engine.ReleaseCS(id)
			}
		case p.Phase == core.PhaseIdle && !p.HasToken:
			if s.scheduler.ShouldRequest(step, id) {
				s.engine.RequestCS(id)
			}
		}
	}
}

func (s *Simulation) buildFrame() *SimulationFrame {
	return &SimulationFrame{
		Snapshot: s.engine.Snapshot(),
		Stats:    s.stats.Collect(),
		Paused:   s.isPaused,
	}
}

// reset rebuilds engine and counters with the same configuration. The
// visualizer and its connections persist across resets.
func (s *Simulation) reset() {
	broker := hooks.NewEventBroker()
	plugins := hooks.NewRegistry(broker)
	if err := tracelog.Register(plugins, tracelog.Options{
		Sink: func(line string, _ core.ProtocolEvent) {
			GetLogger().Infof("%s", line)
		},
	}); err != nil {
		GetLogger().Errorf("reset: trace plugin registration failed: %v", err)
	}
	if err := plugins.LoadGlobal(s.cfg.Plugins); err != nil {
		GetLogger().Errorf("reset: plugin load failed: %v", err)
	}

	s.broker = broker
	s.plugins = plugins
	s.stats = NewStatsCollector(s.cfg.NumProcesses, broker)
	s.engine = NewEngine(s.cfg.NumProcesses, broker)
	s.rng = rand.New(rand.NewSource(seedOrNow(s.cfg.Seed)))
	s.scheduler = newRequestScheduler(s.cfg, s.rng)
	s.enteredAt = make([]int, s.cfg.NumProcesses)
	broker.RegisterTokenGranted(func(ctx *hooks.GrantContext) error {
		s.enteredAt[ctx.ProcessID] = ctx.Step
		return nil
	})
	s.isPaused = false
}
