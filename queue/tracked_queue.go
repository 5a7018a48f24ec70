package queue

const UnlimitedCapacity = -1

// MutateFunc is invoked after queue length or capacity changes.
type MutateFunc func(length int, capacity int)

// QueueHooks defines callbacks for queue lifecycle events.
type QueueHooks[T any] struct {
	OnEnqueue func(item T, step int)
	OnDequeue func(item T, step int)
}

// TrackedQueue maintains items with length/capacity bookkeeping and hooks.
// The token wait queue is built on it so enqueue/dequeue activity is
// observable without the protocol code knowing about consumers.
type TrackedQueue[T comparable] struct {
	name     string
	capacity int
	items    []T
	hooks    QueueHooks[T]
	mutate   MutateFunc
}

// NewTrackedQueue constructs a tracked queue with optional hooks and mutate callback.
func NewTrackedQueue[T comparable](name string, capacity int, mutate MutateFunc, hooks QueueHooks[T]) *TrackedQueue[T] {
	q := &TrackedQueue[T]{
		name:     name,
		capacity: capacity,
		hooks:    hooks,
		mutate:   mutate,
	}
	q.notify()
	return q
}

// Name returns the queue name.
func (q *TrackedQueue[T]) Name() string {
	if q == nil {
		return ""
	}
	return q.name
}

// Capacity returns current capacity (-1 for unlimited).
func (q *TrackedQueue[T]) Capacity() int {
	if q == nil {
		return 0
	}
	return q.capacity
}

// Len returns the number of items.
func (q *TrackedQueue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Contains reports whether the item is already queued.
func (q *TrackedQueue[T]) Contains(item T) bool {
	if q == nil {
		return false
	}
	for _, it := range q.items {
		if it == item {
			return true
		}
	}
	return false
}

// Enqueue appends an item. Returns false if capacity exceeded.
func (q *TrackedQueue[T]) Enqueue(item T, step int) bool {
	if q == nil {
		return false
	}
	if q.capacity >= 0 && len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	if q.hooks.OnEnqueue != nil {
		q.hooks.OnEnqueue(item, step)
	}
	q.notify()
	return true
}

// PopFront removes and returns the front item.
func (q *TrackedQueue[T]) PopFront(step int) (T, bool) {
	var zero T
	if q == nil || len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	if q.hooks.OnDequeue != nil {
		q.hooks.OnDequeue(item, step)
	}
	q.notify()
	return item, true
}

// Items exposes the underlying slice (read-only operations only).
func (q *TrackedQueue[T]) Items() []T {
	if q == nil {
		return nil
	}
	return q.items
}

// Reset replaces the queue contents wholesale, without firing item hooks.
// Used when a token value is attached and its queue becomes resident again.
func (q *TrackedQueue[T]) Reset(items []T) {
	if q == nil {
		return
	}
	q.items = append(q.items[:0:0], items...)
	q.notify()
}

func (q *TrackedQueue[T]) notify() {
	if q == nil || q.mutate == nil {
		return
	}
	q.mutate(len(q.items), q.capacity)
}
