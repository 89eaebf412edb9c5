// Package ranker maintains bounded top-N rankings of key candidates.
//
// A Ranker is a pure admission-control structure: it holds at most N
// entries and admits a new candidate only if it beats the smallest one
// held. Memory use is O(N) regardless of how many candidates stream
// through it. A Ranker is not safe for concurrent use; each scan
// pipeline owns its own and results are merged once at the end.
package ranker

import (
	"container/heap"
	"sort"

	"github.com/dbsmedya/keyscope/internal/store"
)

// Candidate is one discovered key with its estimated footprint.
type Candidate struct {
	Key         string
	Type        store.KeyType
	Size        int64 // estimated bytes
	Cardinality int64 // element count for collections, 0 for scalars
	Node        string
}

// Entry is a Candidate with its final position in a ranking, assigned
// when the ranking is read out.
type Entry struct {
	Candidate
	Rank int
}

// Ranker holds the N largest candidates seen so far.
type Ranker struct {
	capacity int
	seq      int64
	heap     entryHeap
}

// New creates a Ranker with the given capacity. Capacity must be
// positive; the config layer enforces that before a run starts.
func New(capacity int) *Ranker {
	return &Ranker{
		capacity: capacity,
		heap:     make(entryHeap, 0, capacity),
	}
}

// Offer considers a candidate for admission. Below capacity it is
// always held; at capacity it must be strictly larger than the current
// minimum, so on equal sizes the first-seen candidate wins.
func (r *Ranker) Offer(c Candidate) {
	if r.capacity <= 0 {
		return
	}

	r.seq++
	item := heapItem{cand: c, seq: r.seq}

	if len(r.heap) < r.capacity {
		heap.Push(&r.heap, item)
		return
	}

	if c.Size <= r.heap[0].cand.Size {
		return
	}
	r.heap[0] = item
	heap.Fix(&r.heap, 0)
}

// Len returns the number of entries currently held.
func (r *Ranker) Len() int {
	return len(r.heap)
}

// Capacity returns the fixed capacity N.
func (r *Ranker) Capacity() int {
	return r.capacity
}

// MinSize returns the size of the smallest held entry, or 0 when empty.
// A candidate must exceed this to be admitted once the ranker is full.
func (r *Ranker) MinSize() int64 {
	if len(r.heap) == 0 {
		return 0
	}
	return r.heap[0].cand.Size
}

// Entries returns the held candidates ranked largest-first. Equal sizes
// are ordered by key so rendered reports are reproducible.
func (r *Ranker) Entries() []Entry {
	sorted := make([]heapItem, len(r.heap))
	copy(sorted, r.heap)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].cand.Size != sorted[j].cand.Size {
			return sorted[i].cand.Size > sorted[j].cand.Size
		}
		return sorted[i].cand.Key < sorted[j].cand.Key
	})

	entries := make([]Entry, len(sorted))
	for i, item := range sorted {
		entries[i] = Entry{Candidate: item.cand, Rank: i + 1}
	}
	return entries
}

// Merge re-offers every entry held by the sources into dst. Because
// admission only compares sizes, merging is insensitive to source
// order: the same candidate multiset always yields the same ranking.
func Merge(dst *Ranker, srcs ...*Ranker) {
	for _, src := range srcs {
		if src == nil {
			continue
		}
		for _, item := range src.heap {
			dst.Offer(item.cand)
		}
	}
}

// heapItem pairs a candidate with its arrival order. The sequence
// number makes eviction among equal-size entries deterministic: the
// latest arrival is evicted first, keeping the first-seen one.
type heapItem struct {
	cand Candidate
	seq  int64
}

// entryHeap is a min-heap over candidate size.
type entryHeap []heapItem

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].cand.Size != h[j].cand.Size {
		return h[i].cand.Size < h[j].cand.Size
	}
	return h[i].seq > h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(heapItem))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
