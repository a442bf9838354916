// Package topk keeps the K best items of an unbounded stream.
//
// A Window is not safe for concurrent use. Callers feeding it from several
// goroutines must serialize calls to Offer.
package topk

import (
	"container/heap"
	"sort"
)

// Order selects how Export arranges the retained items.
type Order int

const (
	// Best exports the most preferred item first.
	Best Order = iota
	// Worst exports the least preferred retained item first.
	Worst
)

type entry[T any] struct {
	item T
	seq  uint64
}

// Window retains at most K items under a retention order. Among items that
// compare equal the one offered first is preferred.
type Window[T any] struct {
	k     int
	less  func(a, b T) bool
	items worstHeap[T]
	seq   uint64
}

// New returns an empty window of capacity k. less(a, b) reports whether a
// should be kept in preference to b. A capacity of zero or less retains
// nothing.
func New[T any](k int, less func(a, b T) bool) *Window[T] {
	if k < 0 {
		k = 0
	}
	return &Window[T]{
		k:     k,
		less:  less,
		items: worstHeap[T]{less: less, entries: make([]entry[T], 0, min(k, 1024))},
	}
}

// Offer considers item for retention. Once the window is full the item
// replaces the worst retained one only if it is strictly better.
func (w *Window[T]) Offer(item T) {
	e := entry[T]{item: item, seq: w.seq}
	w.seq++
	if w.k == 0 {
		return
	}
	if w.items.Len() < w.k {
		heap.Push(&w.items, e)
		return
	}
	if w.items.better(e, w.items.entries[0]) {
		w.items.entries[0] = e
		heap.Fix(&w.items, 0)
	}
}

// Len is the number of retained items.
func (w *Window[T]) Len() int {
	return w.items.Len()
}

// Seen is the number of items offered so far.
func (w *Window[T]) Seen() uint64 {
	return w.seq
}

// Export returns a copy of the retained items in the requested order. Ties
// are ordered by when the item was offered. The window is left unchanged.
func (w *Window[T]) Export(order Order) []T {
	sorted := make([]entry[T], len(w.items.entries))
	copy(sorted, w.items.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return w.items.better(sorted[i], sorted[j])
	})
	if order == Worst {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	out := make([]T, len(sorted))
	for i, e := range sorted {
		out[i] = e.item
	}
	return out
}

// worstHeap keeps the least preferred entry at index 0.
type worstHeap[T any] struct {
	less    func(a, b T) bool
	entries []entry[T]
}

// better is a strict total order: a ranks ahead of b by less, then by
// arrival.
func (h *worstHeap[T]) better(a, b entry[T]) bool {
	if h.less(a.item, b.item) {
		return true
	}
	if h.less(b.item, a.item) {
		return false
	}
	return a.seq < b.seq
}

func (h *worstHeap[T]) Len() int { return len(h.entries) }

func (h *worstHeap[T]) Less(i, j int) bool {
	return h.better(h.entries[j], h.entries[i])
}

func (h *worstHeap[T]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *worstHeap[T]) Push(x any) {
	h.entries = append(h.entries, x.(entry[T]))
}

func (h *worstHeap[T]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	return e
}
