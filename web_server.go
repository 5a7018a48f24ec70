package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/example/token_mutex_sim/visual"
)

// SimulationFrame is the unit published to visualization clients after each
// scheduling step.
type SimulationFrame struct {
	Snapshot *EngineSnapshot  `json:"snapshot"`
	Stats    *SimulationStats `json:"stats"`
	Paused   bool             `json:"paused"`
}

// WebServer provides HTTP endpoints for visualization and control. It holds
// no protocol state beyond the latest published frame.
type WebServer struct {
	mu          sync.RWMutex
	latestFrame *SimulationFrame
	commands    chan visual.ControlCommand
	server      *http.Server
	hub         *wsHub
}

// NewWebServer creates a new web server instance.
func NewWebServer(addr string) *WebServer {
	ws := &WebServer{
		commands: make(chan visual.ControlCommand, 16),
	}
	ws.hub = newHub(ws)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", ws.handleFrame)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/control", ws.handleControl)
	mux.HandleFunc("/ws", ws.handleWebSocket)
	mux.Handle("/", http.FileServer(http.Dir("web/static")))

	ws.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return ws
}

// Start starts the HTTP server in a goroutine.
func (ws *WebServer) Start() {
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			GetLogger().Errorf("web server stopped: %v", err)
		}
	}()
}

// UpdateFrame stores the latest frame and pushes it to websocket clients.
func (ws *WebServer) UpdateFrame(frame *SimulationFrame) {
	ws.mu.Lock()
	ws.latestFrame = frame
	ws.mu.Unlock()
	ws.hub.broadcastFrame(frame)
}

// NextCommand returns the next control command if available, non-blocking.
func (ws *WebServer) NextCommand() (visual.ControlCommand, bool) {
	select {
	case cmd := <-ws.commands:
		return cmd, true
	default:
		return visual.ControlCommand{Type: visual.CommandNone}, false
	}
}

// WaitCommand blocks until a command arrives or the context is cancelled.
func (ws *WebServer) WaitCommand(ctx context.Context) (visual.ControlCommand, bool) {
	select {
	case cmd := <-ws.commands:
		return cmd, true
	case <-ctx.Done():
		return visual.ControlCommand{Type: visual.CommandNone}, false
	}
}

func (ws *WebServer) queueCommand(cmd visual.ControlCommand) {
	select {
	case ws.commands <- cmd:
	default:
		GetLogger().Warnf("control command dropped, queue full: %s", cmd.Type)
	}
}

func (ws *WebServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	frame := ws.latestFrame
	ws.mu.RUnlock()

	if frame == nil {
		http.Error(w, "No frame available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frame); err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
	}
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ws.mu.RLock()
	var stats *SimulationStats
	if ws.latestFrame != nil {
		stats = ws.latestFrame.Stats
	}
	ws.mu.RUnlock()

	if stats == nil {
		http.Error(w, "No stats available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, "Failed to encode stats", http.StatusInternalServerError)
	}
}

type controlRequest struct {
	Type      string `json:"type"`
	ProcessID int    `json:"processId"`
	Steps     int    `json:"steps"`
}

func (ws *WebServer) processControlRequest(req *controlRequest) (*visual.ControlCommand, error) {
	if req == nil {
		return nil, fmt.Errorf("control request is nil")
	}
	switch visual.ControlCommandType(req.Type) {
	case visual.CommandPause, visual.CommandResume, visual.CommandReset:
		return &visual.ControlCommand{Type: visual.ControlCommandType(req.Type)}, nil
	case visual.CommandStep:
		steps := req.Steps
		if steps <= 0 {
			steps = 1
		}
		return &visual.ControlCommand{Type: visual.CommandStep, Steps: steps}, nil
	case visual.CommandRequest, visual.CommandRelease:
		if req.ProcessID < 0 {
			return nil, fmt.Errorf("processId must be non-negative, got %d", req.ProcessID)
		}
		return &visual.ControlCommand{
			Type:      visual.ControlCommandType(req.Type),
			ProcessID: req.ProcessID,
		}, nil
	default:
		return nil, fmt.Errorf("unknown control type: %s", req.Type)
	}
}

func (ws *WebServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd, err := ws.processControlRequest(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ws.queueCommand(*cmd)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws.hub.handle(w, r)
}
