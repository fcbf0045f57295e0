package index

import (
	"container/heap"
	"math"
	"sort"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
)

// kdtreeLeafSize bounds how many points a leaf stores linearly before a
// split is worth the overhead of another internal node.
const kdtreeLeafSize = 8

type kdNode struct {
	axis        int
	split       float32
	left, right *kdNode
	leaf        []entry
}

// kdTree partitions the set on the axis of maximum variance, median-split,
// down to leaves of at most kdtreeLeafSize points. Euclidean distance only;
// the split-plane pruning below assumes a metric space.
type kdTree struct {
	root *kdNode
}

func (t *kdTree) Build(chunks []store.Chunk, m metric.Kind, _ Params) error {
	if m != metric.Euclidean {
		return vdberrors.InvalidAlgorithmMetric(string(store.AlgorithmKDTree), string(m))
	}
	entries := entriesFromChunks(chunks)
	if len(entries) == 0 {
		t.root = nil
		return nil
	}
	t.root = buildKDNode(entries)
	return nil
}

func buildKDNode(entries []entry) *kdNode {
	if len(entries) <= kdtreeLeafSize {
		return &kdNode{leaf: entries}
	}

	axis := maxVarianceAxis(entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].embedding[axis] < entries[j].embedding[axis]
	})
	mid := len(entries) / 2

	return &kdNode{
		axis:  axis,
		split: entries[mid].embedding[axis],
		left:  buildKDNode(entries[:mid]),
		right: buildKDNode(entries[mid:]),
	}
}

func maxVarianceAxis(entries []entry) int {
	dim := len(entries[0].embedding)
	mean := make([]float64, dim)
	for _, e := range entries {
		for i, v := range e.embedding {
			mean[i] += float64(v)
		}
	}
	n := float64(len(entries))
	for i := range mean {
		mean[i] /= n
	}

	variance := make([]float64, dim)
	for _, e := range entries {
		for i, v := range e.embedding {
			d := float64(v) - mean[i]
			variance[i] += d * d
		}
	}

	best := 0
	for i := 1; i < dim; i++ {
		if variance[i] > variance[best] {
			best = i
		}
	}
	return best
}

func squaredEuclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// kdCandidateHeap is a bounded max-heap keyed by squared distance: the
// worst candidate found so far sits at the root so it can be evicted in
// O(log k) when a closer one is found.
type kdCandidateHeap []rankedKDCandidate

type rankedKDCandidate struct {
	chunkID string
	seq     int
	sqDist  float32
}

func (h kdCandidateHeap) Len() int            { return len(h) }
func (h kdCandidateHeap) Less(i, j int) bool  { return h[i].sqDist > h[j].sqDist }
func (h kdCandidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *kdCandidateHeap) Push(x interface{}) { *h = append(*h, x.(rankedKDCandidate)) }
func (h *kdCandidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func pushBounded(h *kdCandidateHeap, item rankedKDCandidate, k int) {
	if h.Len() < k {
		heap.Push(h, item)
		return
	}
	if k > 0 && item.sqDist < (*h)[0].sqDist {
		heap.Pop(h)
		heap.Push(h, item)
	}
}

// kdPending is a sibling subtree not yet descended into, ordered by its
// perpendicular distance to the query along the split axis that produced
// it: the closer that distance, the sooner it might contain a better match
// than what is already in the bounded heap.
type kdPending struct {
	node      *kdNode
	planeDist float32
}

type kdPendingHeap []kdPending

func (h kdPendingHeap) Len() int            { return len(h) }
func (h kdPendingHeap) Less(i, j int) bool  { return h[i].planeDist < h[j].planeDist }
func (h kdPendingHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *kdPendingHeap) Push(x interface{}) { *h = append(*h, x.(kdPending)) }
func (h *kdPendingHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (t *kdTree) Search(query []float32, k int, accept func(chunkID string) bool) ([]Candidate, error) {
	if t.root == nil || k <= 0 {
		return nil, nil
	}

	best := &kdCandidateHeap{}
	pending := &kdPendingHeap{}
	heap.Push(pending, kdPending{node: t.root})

	for pending.Len() > 0 {
		item := heap.Pop(pending).(kdPending)
		if best.Len() >= k {
			worst := (*best)[0].sqDist
			if item.planeDist*item.planeDist > worst {
				continue
			}
		}
		descendKD(item.node, query, k, best, pending, accept)
	}

	ranked := make([]rankedCandidate, best.Len())
	for i, c := range *best {
		ranked[i] = rankedCandidate{
			chunkID: c.chunkID,
			score:   -float32(math.Sqrt(float64(c.sqDist))),
			seq:     c.seq,
		}
	}
	return topK(ranked, k), nil
}

// descendKD only lets rejected entries skip the bounded heap rather than
// occupy a slot in it, so the pruning bound (the heap's worst distance once
// it holds k entries) only ever reflects accepted candidates: a filtered
// search still explores as far as it needs to find k matches.
func descendKD(n *kdNode, query []float32, k int, best *kdCandidateHeap, pending *kdPendingHeap, accept func(chunkID string) bool) {
	if n.leaf != nil {
		for _, e := range n.leaf {
			if accept != nil && !accept(e.chunkID) {
				continue
			}
			pushBounded(best, rankedKDCandidate{
				chunkID: e.chunkID,
				seq:     e.seq,
				sqDist:  squaredEuclidean(query, e.embedding),
			}, k)
		}
		return
	}

	diff := query[n.axis] - n.split
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	descendKD(near, query, k, best, pending, accept)
	heap.Push(pending, kdPending{node: far, planeDist: float32(math.Abs(float64(diff)))})
}
