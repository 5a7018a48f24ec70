package main

import "math/rand"

// RequestScheduler decides when the demo driver issues critical-section
// requests on behalf of processes. It never sees protocol state: the driver
// only consults it for processes that are currently allowed to request.
type RequestScheduler interface {
	// ShouldRequest reports whether the given process should call RequestCS
	// at the given scheduling step.
	ShouldRequest(step int, processID int) bool

	// Reset restores initial scheduler state (called on simulation reset).
	Reset()
}

// ProbabilityScheduler issues requests at a fixed per-step probability.
type ProbabilityScheduler struct {
	RequestRate float64
	rng         *rand.Rand
}

// NewProbabilityScheduler creates a probability-based request scheduler.
func NewProbabilityScheduler(requestRate float64, rng *rand.Rand) *ProbabilityScheduler {
	return &ProbabilityScheduler{
		RequestRate: requestRate,
		rng:         rng,
	}
}

func (ps *ProbabilityScheduler) ShouldRequest(step int, processID int) bool {
	return ps.rng.Float64() < ps.RequestRate
}

func (ps *ProbabilityScheduler) Reset() {}

// ScheduleScheduler issues requests deterministically from a script.
// Schedule format: step -> process ids that request at that step. Consumed
// entries are removed; Reset restores the original script.
type ScheduleScheduler struct {
	schedule         map[int][]int
	originalSchedule map[int][]int
}

// NewScheduleScheduler creates a script-based request scheduler.
func NewScheduleScheduler(schedule map[int][]int) *ScheduleScheduler {
	return &ScheduleScheduler{
		schedule:         copySchedule(schedule),
		originalSchedule: copySchedule(schedule),
	}
}

func (ss *ScheduleScheduler) ShouldRequest(step int, processID int) bool {
	ids, exists := ss.schedule[step]
	if !exists {
		return false
	}
	for i, id := range ids {
		if id != processID {
			continue
		}
		ss.schedule[step] = append(ids[:i], ids[i+1:]...)
		if len(ss.schedule[step]) == 0 {
			delete(ss.schedule, step)
		}
		return true
	}
	return false
}

func (ss *ScheduleScheduler) Reset() {
	ss.schedule = copySchedule(ss.originalSchedule)
}

func copySchedule(schedule map[int][]int) map[int][]int {
	out := make(map[int][]int, len(schedule))
	for step, ids := range schedule {
		idsCopy := make([]int, len(ids))
		copy(idsCopy, ids)
		out[step] = idsCopy
	}
	return out
}
