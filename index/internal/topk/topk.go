// Package topk provides a bounded min-heap for collecting the k
// highest-scoring candidates during an index search, used by all three
// strategies' exact-rerank step.
package topk

import (
	"container/heap"

	"github.com/google/uuid"
)

// Item is one scored candidate.
type Item struct {
	ChunkID uuid.UUID
	Score   float32
}

type minHeap []Item

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	// Break ties so the heap's weakest element (popped first on overflow)
	// is the one with the *largest* id -- the final sort breaks ties the
	// other way (ascending id), so keeping the largest-id duplicate out
	// favors the smallest-id survivor.
	return h[i].ChunkID.String() > h[j].ChunkID.String()
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Item)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Bounded collects the k highest-scoring items pushed into it, evicting
// the current weakest item whenever it would grow past k.
type Bounded struct {
	k int
	h minHeap
}

// NewBounded creates a collector bounded to the top k items. k must be > 0.
func NewBounded(k int) *Bounded {
	b := &Bounded{k: k}
	heap.Init(&b.h)
	return b
}

// Push offers a candidate. If fewer than k items have been collected, or
// the candidate beats the current weakest item, it is retained (and the
// weakest item evicted when full).
func (b *Bounded) Push(chunkID uuid.UUID, score float32) {
	item := Item{ChunkID: chunkID, Score: score}
	if b.h.Len() < b.k {
		heap.Push(&b.h, item)
		return
	}
	if b.h.Len() == 0 {
		return
	}
	if item.Score > b.h[0].Score || (item.Score == b.h[0].Score && chunkID.String() < b.h[0].ChunkID.String()) {
		heap.Pop(&b.h)
		heap.Push(&b.h, item)
	}
}

// Results drains the collector into descending-score order, ties broken
// by ascending chunk id, per the index contract.
func (b *Bounded) Results() []Item {
	out := make([]Item, b.h.Len())
	for i := range out {
		out[i] = b.h[i]
	}
	// Sort descending by score, ascending by id on ties. Insertion sort is
	// fine: k is small (bounded by the caller's requested result count).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, c := out[j-1], out[j]
			if a.Score > c.Score || (a.Score == c.Score && a.ChunkID.String() <= c.ChunkID.String()) {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
