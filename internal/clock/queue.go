package clock

import (
	"container/heap"
	"time"
)

// queue orders pending handles by deadline, then by scheduling order.
// It is not safe for concurrent use; owners guard it.
type queue struct {
	items []*Handle
	seq   uint64
}

func (q *queue) Len() int { return len(q.items) }

func (q *queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.at.Equal(b.at) {
		return a.seq < b.seq
	}
	return a.at.Before(b.at)
}

func (q *queue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *queue) Push(x any) {
	h := x.(*Handle)
	h.index = len(q.items)
	q.items = append(q.items, h)
}

func (q *queue) Pop() any {
	n := len(q.items)
	h := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	h.index = -1
	return h
}

func (q *queue) add(at time.Time, fn func()) *Handle {
	q.seq++
	h := &Handle{at: at, seq: q.seq, fn: fn, state: statePending}
	heap.Push(q, h)
	return h
}

func (q *queue) remove(h *Handle) {
	if h == nil || h.state != statePending {
		return
	}
	h.state = stateCancelled
	if h.index >= 0 {
		heap.Remove(q, h.index)
	}
}

func (q *queue) peek() *Handle {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// popDue removes and returns the earliest handle due at or before now,
// marking it fired.
func (q *queue) popDue(now time.Time) *Handle {
	next := q.peek()
	if next == nil || next.at.After(now) {
		return nil
	}
	heap.Pop(q)
	next.state = stateFired
	return next
}
