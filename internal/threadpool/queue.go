package threadpool

import (
	"container/heap"
	"sync"
)

// globalQueue is the shared priority queue: lower TaskPriority value first,
// older submission first on ties.
type globalQueue struct {
	mu    sync.Mutex
	items taskHeap
}

type taskHeap []*Task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)         { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (q *globalQueue) push(t *Task) {
	q.mu.Lock()
	heap.Push(&q.items, t)
	q.mu.Unlock()
}

func (q *globalQueue) pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*Task), true
}

func (q *globalQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// cancelByPriority marks every queued task of priority <= maxPriority
// cancelled in place; queue order is unaffected since priorities don't
// change. Returns the count marked.
func (q *globalQueue) cancelByPriority(maxPriority TaskPriority) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, t := range q.items {
		if t.priority <= maxPriority {
			t.cancelled.Store(true)
			n++
		}
	}
	return n
}

// localDeque is a worker's own double-ended queue: push/pop from the back
// (LIFO, owner-only), steal from the front (FIFO, other workers).
type localDeque struct {
	mu    sync.Mutex
	items []*Task
}

func (d *localDeque) pushBack(t *Task) {
	d.mu.Lock()
	d.items = append(d.items, t)
	d.mu.Unlock()
}

func (d *localDeque) popBack() (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	t := d.items[n-1]
	d.items[n-1] = nil
	d.items = d.items[:n-1]
	return t, true
}

func (d *localDeque) stealFront() (*Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, false
	}
	t := d.items[0]
	d.items = d.items[1:]
	return t, true
}

func (d *localDeque) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (d *localDeque) drainInto(dst *globalQueue) {
	d.mu.Lock()
	items := d.items
	d.items = nil
	d.mu.Unlock()
	for _, t := range items {
		dst.push(t)
	}
}
