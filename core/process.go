package core

// ProcessPhase represents the protocol phase of a process.
type ProcessPhase string

const (
	PhaseIdle       ProcessPhase = "Idle"
	PhaseRequesting ProcessPhase = "Requesting"
	PhaseExecuting  ProcessPhase = "Executing"
)

// Process holds the per-peer protocol state of one participant.
// RequestNumbers[j] is the highest sequence number this process has seen
// requested by process j; its own entry advances when it requests.
type Process struct {
	ID             int          `json:"id"`
	Phase          ProcessPhase `json:"phase"`
	RequestNumbers []int        `json:"requestNumbers"`
	HasToken       bool         `json:"hasToken"`
}

// Clone returns a deep copy safe to hand to readers outside the engine.
func (p *Process) Clone() *Process {
	if p == nil {
		return nil
	}
	rn := make([]int, len(p.RequestNumbers))
	copy(rn, p.RequestNumbers)
	return &Process{
		ID:             p.ID,
		Phase:          p.Phase,
		RequestNumbers: rn,
		HasToken:       p.HasToken,
	}
}
