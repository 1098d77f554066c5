package engine

import (
	"container/heap"

	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Edge is a Backwards Edge (spec.md §3): the K×K grid formed by a
// predecessor container's ranked hypotheses (rows) against one group of
// candidate translations sharing an identical footprint (columns).
type Edge struct {
	From    *Container
	Columns []Candidate
}

// AttachEdge registers an Edge into dest, sourced from the ranked
// hypotheses of from via the given (already footprint-grouped,
// score-sorted) columns.
func AttachEdge(dest *Container, from *Container, columns []Candidate) {
	dest.Edges = append(dest.Edges, &Edge{From: from, Columns: columns})
}

// Proposal is one candidate new hypothesis surfaced by cube pruning: a
// predecessor hypothesis combined with one candidate translation, not yet
// checked against the distortion limit or scored by the feature chain.
type Proposal struct {
	Edge      *Edge
	Hyp       hypothesis.Handle
	Candidate Candidate
}

// FootprintSpan collapses a (possibly multi-span, for linked groups)
// footprint into the single span a DistortionChecker needs: the landing
// point is the footprint's first (leftmost) span, and the resulting
// coverage extends through the footprint's last span.
func FootprintSpan(footprint []span.Span) span.Span {
	return span.Span{Start: footprint[0].Start, End: footprint[len(footprint)-1].End}
}

type cellKey struct{ edge, row, col int }

type cell struct {
	edge, row, col int
	estimate       float64
	seq            int
}

type cellHeap []cell

func (h cellHeap) Len() int { return len(h) }
func (h cellHeap) Less(i, j int) bool {
	if h[i].estimate != h[j].estimate {
		return h[i].estimate > h[j].estimate
	}
	return h[i].seq < h[j].seq
}
func (h cellHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *cellHeap) Push(x interface{}) { *h = append(*h, x.(cell)) }
func (h *cellHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Expand runs lazy cube pruning over the container's incoming edges,
// returning up to popLimit accepted proposals (spec.md §4.5 "cube pruning
// pop limit"). Equivalent to ExpandDiverse with diversity disabled.
func (c *Container) Expand(arena *hypothesis.Arena, checker hypothesis.DistortionChecker, popLimit int) []Proposal {
	return c.ExpandDiverse(arena, checker, popLimit, 0)
}

// ExpandDiverse is Expand with cube-pruning diversity (spec.md §6
// "cubePruningDiversity"): before the heap runs, each edge's own (0,0)
// corner is tried in edge order, one per edge, until `diversity` of them
// have been accepted or popLimit is reached. A corner the distortion check
// rejects yields nothing for its edge, and edges after that point get no
// prefill. The remaining budget goes to whichever cells rank best overall;
// cells with equal estimates are popped in the order they were pushed.
// This approximates Moses's diversity knob, which
// exists to stop one dominant edge from starving the others out of a
// BitmapContainer's pop budget entirely.
func (c *Container) ExpandDiverse(arena *hypothesis.Arena, checker hypothesis.DistortionChecker, popLimit int, diversity int) []Proposal {
	if popLimit <= 0 || len(c.Edges) == 0 {
		return nil
	}
	for _, e := range c.Edges {
		e.From.sortHyps(arena)
	}

	h := &cellHeap{}
	heap.Init(h)
	visited := make(map[cellKey]bool)
	seq := 0

	push := func(edgeIdx, row, col int) {
		e := c.Edges[edgeIdx]
		if row >= len(e.From.Hyps) || col >= len(e.Columns) {
			return
		}
		key := cellKey{edgeIdx, row, col}
		if visited[key] {
			return
		}
		visited[key] = true
		hypScore := arena.Get(e.From.Hyps[row]).Score
		heap.Push(h, cell{edge: edgeIdx, row: row, col: col, estimate: hypScore + e.Columns[col].Score, seq: seq})
		seq++
	}

	accept := func(top cell) (Proposal, bool) {
		e := c.Edges[top.edge]
		candidateHyp := e.From.Hyps[top.row]
		candidate := e.Columns[top.col]
		push(top.edge, top.row+1, top.col)
		push(top.edge, top.row, top.col+1)

		prevEnd := arena.Get(candidateHyp).LastEnd
		landing := FootprintSpan(candidate.Footprint)
		if !checker.Allows(prevEnd, landing) {
			return Proposal{}, false
		}
		return Proposal{Edge: e, Hyp: candidateHyp, Candidate: candidate}, true
	}

	var proposals []Proposal

	if diversity > 0 {
		for ei := range c.Edges {
			if len(proposals) >= popLimit || len(proposals) >= diversity {
				break
			}
			e := c.Edges[ei]
			if len(e.From.Hyps) == 0 || len(e.Columns) == 0 {
				continue
			}
			key := cellKey{ei, 0, 0}
			visited[key] = true
			if p, ok := accept(cell{edge: ei, row: 0, col: 0}); ok {
				proposals = append(proposals, p)
			}
		}
	}

	for ei := range c.Edges {
		push(ei, 0, 0)
	}

	for h.Len() > 0 && len(proposals) < popLimit {
		top := heap.Pop(h).(cell)
		if p, ok := accept(top); ok {
			proposals = append(proposals, p)
		}
	}
	return proposals
}
