package core

// Token is the unique capability object whose possession authorizes entry to
// the critical section. LastSatisfied[j] is the sequence number of the most
// recently granted request from process j; Queue is the FIFO of waiting
// process ids, duplicate-free.
type Token struct {
	LastSatisfied []int `json:"lastSatisfied"`
	Queue         []int `json:"queue"`
}

// NewToken creates a token for n processes with empty bookkeeping.
func NewToken(n int) *Token {
	return &Token{
		LastSatisfied: make([]int, n),
		Queue:         make([]int, 0),
	}
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	ln := make([]int, len(t.LastSatisfied))
	copy(ln, t.LastSatisfied)
	q := make([]int, len(t.Queue))
	copy(q, t.Queue)
	return &Token{LastSatisfied: ln, Queue: q}
}
