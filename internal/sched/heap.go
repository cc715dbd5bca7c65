package sched

// absentIndex marks a task that is not currently stored in the heap.
const absentIndex = -1

// runHeap is a binary min-heap of runnable tasks ordered by vruntime
// ascending. Each task carries its own position (heapIndex) so that
// Update and Remove run in O(log n) without a separate index map.
type runHeap struct {
	tasks []*Task
}

func newRunHeap(capacityHint int) *runHeap {
	return &runHeap{tasks: make([]*Task, 0, capacityHint)}
}

func (h *runHeap) Len() int { return len(h.tasks) }

func (h *runHeap) IsEmpty() bool { return len(h.tasks) == 0 }

// Insert appends t and sifts it up. t must not already be in a heap.
func (h *runHeap) Insert(t *Task) {
	if t == nil {
		return
	}
	t.heapIndex = len(h.tasks)
	h.tasks = append(h.tasks, t)
	h.siftUp(t.heapIndex)
}

// ExtractMin removes and returns the task with the smallest vruntime, or
// nil if the heap is empty.
func (h *runHeap) ExtractMin() *Task {
	if len(h.tasks) == 0 {
		return nil
	}
	top := h.tasks[0]
	last := len(h.tasks) - 1
	h.swap(0, last)
	h.tasks[last] = nil
	h.tasks = h.tasks[:last]
	top.heapIndex = absentIndex
	if len(h.tasks) > 0 {
		h.siftDown(0)
	}
	return top
}

// Peek returns the top of the heap without removing it.
func (h *runHeap) Peek() *Task {
	if len(h.tasks) == 0 {
		return nil
	}
	return h.tasks[0]
}

// Update re-sifts t after its vruntime changed. t.heapIndex must be
// valid; the direction (up or down) is resolved by comparing with the
// new neighbors.
func (h *runHeap) Update(t *Task) {
	if t == nil || t.heapIndex == absentIndex {
		return
	}
	h.siftUp(t.heapIndex)
	h.siftDown(t.heapIndex)
}

// Remove takes t out of the heap regardless of position.
func (h *runHeap) Remove(t *Task) {
	if t == nil || t.heapIndex == absentIndex {
		return
	}
	i := t.heapIndex
	last := len(h.tasks) - 1
	h.swap(i, last)
	h.tasks[last] = nil
	h.tasks = h.tasks[:last]
	t.heapIndex = absentIndex
	if i < len(h.tasks) {
		h.siftDown(i)
		h.siftUp(i)
	}
}

// Find performs a linear scan for id. Used only on cold paths (§4.1); the
// hot path always goes through Task.heapIndex.
func (h *runHeap) Find(id string) *Task {
	for _, t := range h.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Clear empties the heap without touching the tasks themselves; callers
// reinsert whatever is still runnable (used by the per-tick rebuild).
func (h *runHeap) Clear() {
	for _, t := range h.tasks {
		t.heapIndex = absentIndex
	}
	h.tasks = h.tasks[:0]
}

// less orders by vruntime; equal vruntimes fall back to task id so the
// extraction order does not depend on insertion order.
func (h *runHeap) less(i, j int) bool {
	a, b := h.tasks[i], h.tasks[j]
	if a.Vruntime != b.Vruntime {
		return a.Vruntime < b.Vruntime
	}
	return a.ID < b.ID
}

func (h *runHeap) swap(i, j int) {
	h.tasks[i], h.tasks[j] = h.tasks[j], h.tasks[i]
	h.tasks[i].heapIndex = i
	h.tasks[j].heapIndex = j
}

func (h *runHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *runHeap) siftDown(i int) {
	n := len(h.tasks)
	for {
		left := 2*i + 1
		right := 2*i + 2
		smallest := i
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
}
