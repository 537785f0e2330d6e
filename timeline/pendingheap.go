package timeline

import "time"

// A scheduleEntry is the next pending item of one source schedule. The
// pending set holds at most one entry per still-active schedule; an owner's
// cursor is only advanced at the moment its entry is popped.
type scheduleEntry struct {
	due    time.Time
	action Action
	source int // registration index of the owner, breaks due-time ties
	owner  Schedule
}

// pendingHeap is a min-heap of schedule entries ordered by (due, source).
// It is exclusively owned by one Merger and is never shared, so it needs no
// locking.
type pendingHeap []*scheduleEntry

func (h pendingHeap) Len() int {
	return len(h)
}

// Less returns true if the i-th entry fires before the j-th entry. Entries
// due at the same instant fire in schedule registration order.
func (h pendingHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].source < h[j].source
	}
	return h[i].due.Before(h[j].due)
}

func (h pendingHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *pendingHeap) Push(x any) {
	*h = append(*h, x.(*scheduleEntry))
}

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

func (h pendingHeap) peek() *scheduleEntry {
	return h[0]
}
