package strategy

import "container/heap"

// slotHeap orders slot indexes by their current partition count.
// Ties break on the lower slot index so results are deterministic.
type slotHeap struct {
	slots [][]int
	items []int
	desc  bool
}

var _ heap.Interface = (*slotHeap)(nil)

func newMinHeap(slots [][]int) *slotHeap { return &slotHeap{slots: slots} }

func newMaxHeap(slots [][]int) *slotHeap { return &slotHeap{slots: slots, desc: true} }

func (h *slotHeap) Len() int { return len(h.items) }

func (h *slotHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	ca, cb := len(h.slots[a]), len(h.slots[b])
	if ca != cb {
		if h.desc {
			return ca > cb
		}

		return ca < cb
	}

	return a < b
}

func (h *slotHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *slotHeap) Push(x any) { h.items = append(h.items, x.(int)) }

func (h *slotHeap) Pop() any {
	n := len(h.items)
	x := h.items[n-1]
	h.items = h.items[:n-1]

	return x
}

// headCount returns the count of the head slot; ok is false when empty.
func (h *slotHeap) headCount() (int, bool) {
	if len(h.items) == 0 {
		return 0, false
	}

	return len(h.slots[h.items[0]]), true
}

func (h *slotHeap) push(slot int) { heap.Push(h, slot) }

func (h *slotHeap) pop() int { return heap.Pop(h).(int) }
