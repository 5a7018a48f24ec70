package main

import (
	"testing"

	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/visual"
)

func headlessConfig(n int) *Config {
	return &Config{
		NumProcesses: n,
		TransitStep:  0.5,
		TotalSteps:   100,
		ReleaseAfter: 2,
		Seed:         1,
		Headless:     true,
	}
}

func TestScriptedRunGrantsEveryRequest(t *testing.T) {
	cfg := headlessConfig(4)
	cfg.Schedule = map[int][]int{
		0: {1},
		3: {2},
	}

	sim, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	sim.Run()

	stats := sim.Stats()
	if stats.Global.TotalRequests != 2 {
		t.Fatalf("expected 2 requests, got %d", stats.Global.TotalRequests)
	}
	if stats.Global.TotalGrants != 2 {
		t.Fatalf("expected 2 grants, got %d", stats.Global.TotalGrants)
	}
	for _, id := range []int{1, 2} {
		if got := stats.PerProcess[id].Grants; got != 1 {
			t.Fatalf("P%d: expected 1 grant, got %d", id, got)
		}
	}
	if stats.Global.Deliveries > stats.Global.Messages {
		t.Fatalf("delivered more messages (%d) than created (%d)", stats.Global.Deliveries, stats.Global.Messages)
	}
	checkInvariants(t, sim.Engine().Snapshot())
}

func TestRandomRunStaysSafe(t *testing.T) {
	cfg := headlessConfig(5)
	cfg.RequestRate = 0.3
	cfg.TotalSteps = 300

	sim, err := NewSimulation(cfg)
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	sim.Run()

	stats := sim.Stats()
	if stats.Global.TotalGrants == 0 {
		t.Fatalf("expected grants under sustained request load")
	}
	if stats.Global.TotalGrants > stats.Global.TotalRequests {
		t.Fatalf("grants (%d) exceed requests (%d)", stats.Global.TotalGrants, stats.Global.TotalRequests)
	}
	checkInvariants(t, sim.Engine().Snapshot())
}

func TestHandleCommandControlsRun(t *testing.T) {
	sim, err := NewSimulation(headlessConfig(3))
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}

	sim.handleCommand(visual.ControlCommand{Type: visual.CommandPause})
	if !sim.isPaused {
		t.Fatalf("expected paused state")
	}
	if got := sim.handleCommand(visual.ControlCommand{Type: visual.CommandStep, Steps: 5}); got != 5 {
		t.Fatalf("expected 5 pending steps, got %d", got)
	}
	if got := sim.handleCommand(visual.ControlCommand{Type: visual.CommandStep}); got != 1 {
		t.Fatalf("expected 1 pending step, got %d", got)
	}
	sim.handleCommand(visual.ControlCommand{Type: visual.CommandResume})
	if sim.isPaused {
		t.Fatalf("expected resumed state")
	}
	// Step commands only batch while paused.
	if got := sim.handleCommand(visual.ControlCommand{Type: visual.CommandStep, Steps: 5}); got != 0 {
		t.Fatalf("step while running must not batch, got %d", got)
	}

	sim.handleCommand(visual.ControlCommand{Type: visual.CommandRequest, ProcessID: 1})
	if sim.Engine().Registry().Get(1).Phase != core.PhaseRequesting {
		t.Fatalf("request command must reach the engine")
	}
	// Out-of-range targets are dropped.
	sim.handleCommand(visual.ControlCommand{Type: visual.CommandRequest, ProcessID: 7})
	sim.handleCommand(visual.ControlCommand{Type: visual.CommandRelease, ProcessID: -1})
	checkInvariants(t, sim.Engine().Snapshot())
}

func TestResetRestoresInitialState(t *testing.T) {
	sim, err := NewSimulation(headlessConfig(3))
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}

	sim.Engine().RequestCS(1)
	for i := 0; i < 10; i++ {
		sim.Engine().Step(0.5)
	}

	sim.handleCommand(visual.ControlCommand{Type: visual.CommandReset})

	snap := sim.Engine().Snapshot()
	if snap.Step != 0 {
		t.Fatalf("expected step 0 after reset, got %d", snap.Step)
	}
	if snap.TokenHolder != 0 {
		t.Fatalf("expected P0 holding the token after reset, holder=%d", snap.TokenHolder)
	}
	if len(snap.InFlight) != 0 {
		t.Fatalf("expected empty channel after reset, got %d in flight", len(snap.InFlight))
	}
	if got := sim.Stats().Global.TotalRequests; got != 0 {
		t.Fatalf("expected zeroed stats after reset, got %d requests", got)
	}
}

func TestNewSimulationRejectsBadConfig(t *testing.T) {
	if _, err := NewSimulation(&Config{NumProcesses: 1, TransitStep: 0.5}); err == nil {
		t.Fatalf("expected error for single-process config")
	}
	if _, err := NewSimulation(&Config{NumProcesses: 3, TransitStep: 1.5}); err == nil {
		t.Fatalf("expected error for out-of-range transit step")
	}
	if _, err := NewSimulation(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestNewSimulationRejectsUnknownPlugin(t *testing.T) {
	cfg := headlessConfig(3)
	cfg.Plugins = []string{"does_not_exist"}
	if _, err := NewSimulation(cfg); err == nil {
		t.Fatalf("expected error for unknown plugin name")
	}
}
