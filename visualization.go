package main

import (
	"context"

	"github.com/example/token_mutex_sim/visual"
)

// WebVisualizer bridges the simulation with the web server.
type WebVisualizer struct {
	headless bool
	server   *WebServer
}

// NewWebVisualizer creates a web visualizer and starts its server.
func NewWebVisualizer(addr string) *WebVisualizer {
	server := NewWebServer(addr)
	server.Start()
	GetLogger().Infof("web driver listening at http://%s", addr)
	return &WebVisualizer{server: server}
}

// SetHeadless switches headless state.
func (w *WebVisualizer) SetHeadless(headless bool) {
	w.headless = headless
}

// IsHeadless returns whether the visualizer runs without UI.
func (w *WebVisualizer) IsHeadless() bool {
	return w.headless
}

// PublishFrame updates the server with the latest frame.
func (w *WebVisualizer) PublishFrame(frame any) {
	if w.server == nil {
		return
	}
	if f, ok := frame.(*SimulationFrame); ok {
		w.server.UpdateFrame(f)
	}
}

// NextCommand returns the next control command if available, non-blocking.
func (w *WebVisualizer) NextCommand() (visual.ControlCommand, bool) {
	if w.server == nil {
		return visual.ControlCommand{Type: visual.CommandNone}, false
	}
	return w.server.NextCommand()
}

// WaitCommand blocks until a command arrives or the context is cancelled.
func (w *WebVisualizer) WaitCommand(ctx context.Context) (visual.ControlCommand, bool) {
	if w.server == nil {
		return visual.ControlCommand{Type: visual.CommandNone}, false
	}
	return w.server.WaitCommand(ctx)
}

func newVisualizer(cfg *Config) visual.Visualizer {
	mode := cfg.VisualMode
	if mode == "" {
		mode = "web"
	}
	if cfg.Headless || mode == "none" {
		viz := visual.NewNullVisualizer()
		viz.SetHeadless(true)
		return viz
	}
	return NewWebVisualizer(cfg.ListenAddr)
}
