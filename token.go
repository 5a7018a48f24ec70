package main

import (
	"github.com/example/token_mutex_sim/core"
	"github.com/example/token_mutex_sim/queue"
)

// TokenStore holds the token while it is resident at some process. While the
// token is in transit the store is empty and the TOKEN message owns the
// value. Detach and Attach move the queue and satisfaction vector together,
// never split.
type TokenStore struct {
	n             int
	resident      bool
	lastSatisfied []int
	waitQueue     *queue.TrackedQueue[int]
}

// NewTokenStore creates a store for n processes. The initial token (owned by
// process 0 at startup) is attached by the engine, not here.
func NewTokenStore(n int, hooks queue.QueueHooks[int]) *TokenStore {
	return &TokenStore{
		n:         n,
		waitQueue: queue.NewTrackedQueue[int]("token_wait_queue", queue.UnlimitedCapacity, nil, hooks),
	}
}

// Resident reports whether the token currently resides in this store.
func (s *TokenStore) Resident() bool {
	return s != nil && s.resident
}

// LastSatisfied returns the recorded sequence number most recently granted
// for peer. Zero when the token is absent.
func (s *TokenStore) LastSatisfied(peer int) int {
	if !s.Resident() {
		return 0
	}
	return s.lastSatisfied[peer]
}

// MarkSatisfied records that peer's request with the given sequence number
// has been granted.
func (s *TokenStore) MarkSatisfied(peer, seq int) {
	if !s.Resident() {
		return
	}
	s.lastSatisfied[peer] = seq
}

// EnqueueIfEligible adds peer to the wait queue iff it is not already queued
// and its most recent request is the next unsatisfied one. Older or already
// satisfied requests are ignored; they are re-evaluated at future releases
// from the monotonically maintained request vectors.
func (s *TokenStore) EnqueueIfEligible(peer, currentRequestNumber, step int) bool {
	if !s.Resident() {
		return false
	}
	if s.waitQueue.Contains(peer) {
		return false
	}
	if currentRequestNumber != s.lastSatisfied[peer]+1 {
		return false
	}
	return s.waitQueue.Enqueue(peer, step)
}

// DequeueNext pops the head of the FIFO wait queue.
func (s *TokenStore) DequeueNext(step int) (int, bool) {
	if !s.Resident() {
		return 0, false
	}
	return s.waitQueue.PopFront(step)
}

// QueueLen returns the current wait queue length.
func (s *TokenStore) QueueLen() int {
	if !s.Resident() {
		return 0
	}
	return s.waitQueue.Len()
}

// QueueSnapshot returns a copy of the wait queue contents.
func (s *TokenStore) QueueSnapshot() []int {
	if !s.Resident() {
		return nil
	}
	items := s.waitQueue.Items()
	out := make([]int, len(items))
	copy(out, items)
	return out
}

// Detach removes the token value from the store for transfer. The store is
// empty afterwards.
func (s *TokenStore) Detach() *core.Token {
	if !s.Resident() {
		return nil
	}
	tok := &core.Token{
		LastSatisfied: s.lastSatisfied,
		Queue:         s.QueueSnapshot(),
	}
	s.resident = false
	s.lastSatisfied = nil
	s.waitQueue.Reset(nil)
	return tok
}

// Attach makes the token value resident in the store.
func (s *TokenStore) Attach(tok *core.Token) {
	if s == nil || tok == nil {
		return
	}
	s.resident = true
	s.lastSatisfied = tok.LastSatisfied
	s.waitQueue.Reset(tok.Queue)
}

// TokenSnapshot returns a deep copy of the resident token, or nil while the
// token is in transit.
func (s *TokenStore) TokenSnapshot() *core.Token {
	if !s.Resident() {
		return nil
	}
	tok := &core.Token{
		LastSatisfied: s.lastSatisfied,
		Queue:         s.QueueSnapshot(),
	}
	return tok.Clone()
}
