package main

import "github.com/example/token_mutex_sim/core"

// ProcessRegistry holds the fixed set of processes and their protocol state.
// Membership is closed: ids are always in [0, n) and never validated at the
// call sites, matching the protocol's no-error model.
type ProcessRegistry struct {
	processes []*core.Process
}

// NewProcessRegistry creates n processes, all Idle with zeroed request
// vectors. Process 0 starts holding the token.
func NewProcessRegistry(n int) *ProcessRegistry {
	processes := make([]*core.Process, n)
	for i := 0; i < n; i++ {
		processes[i] = &core.Process{
			ID:             i,
			Phase:          core.PhaseIdle,
			RequestNumbers: make([]int, n),
		}
	}
	processes[0].HasToken = true
	return &ProcessRegistry{processes: processes}
}

// Len returns the process count.
func (r *ProcessRegistry) Len() int {
	return len(r.processes)
}

// Get returns a read-only view of the process. Callers must not mutate the
// returned value; all mutation goes through the named setters.
func (r *ProcessRegistry) Get(id int) *core.Process {
	return r.processes[id]
}

// SetPhase updates the phase of a process.
func (r *ProcessRegistry) SetPhase(id int, phase core.ProcessPhase) {
	r.processes[id].Phase = phase
}

// SetHasToken updates the token residency flag of a process.
func (r *ProcessRegistry) SetHasToken(id int, hasToken bool) {
	r.processes[id].HasToken = hasToken
}

// BumpOwnSequence increments and returns the process's own request sequence
// number.
func (r *ProcessRegistry) BumpOwnSequence(id int) int {
	p := r.processes[id]
	p.RequestNumbers[id]++
	return p.RequestNumbers[id]
}

// ObserveSequence records a sequence number seen from peer. Sequence numbers
// are monotonic per peer: duplicate or stale observations never regress the
// stored value.
func (r *ProcessRegistry) ObserveSequence(id, peer, seq int) {
	p := r.processes[id]
	if seq > p.RequestNumbers[peer] {
		p.RequestNumbers[peer] = seq
	}
}

// Snapshot returns deep copies of all processes.
func (r *ProcessRegistry) Snapshot() []*core.Process {
	out := make([]*core.Process, len(r.processes))
	for i, p := range r.processes {
		out[i] = p.Clone()
	}
	return out
}
