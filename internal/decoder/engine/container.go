package engine

import (
	"sort"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
)

// Container is a Bitmap Container (spec.md §3): every hypothesis sharing an
// identical coverage bitmap, plus the Backwards Edges that can deliver new
// hypotheses into it from earlier, less-covered containers.
type Container struct {
	Coverage bitmap.Bitmap
	Hyps     []hypothesis.Handle
	Edges    []*Edge
	sorted   bool
	recomb   map[hypothesis.RecombinationKey]int
}

// NewContainer creates an empty container for the given coverage.
func NewContainer(cov bitmap.Bitmap) *Container {
	return &Container{Coverage: cov, recomb: make(map[hypothesis.RecombinationKey]int)}
}

// Add registers a hypothesis as belonging to this container, unconditionally.
func (c *Container) Add(h hypothesis.Handle) {
	c.Hyps = append(c.Hyps, h)
	c.sorted = false
}

// AddRecombining registers h, recombining it with any existing hypothesis
// in the container sharing the same RecombinationKey (spec.md §4.4): the
// lower-scoring of the two is dropped from the container's active list
// (but never deleted from the Arena, so n-best backtrace can still reach
// it if some other hypothesis' derivation passes through it).
func (c *Container) AddRecombining(arena *hypothesis.Arena, h hypothesis.Handle) {
	key := arena.Get(h).Key()
	if idx, ok := c.recomb[key]; ok {
		existing := c.Hyps[idx]
		if arena.Get(h).Score > arena.Get(existing).Score {
			c.Hyps[idx] = h
			c.sorted = false
		}
		return
	}
	c.recomb[key] = len(c.Hyps)
	c.Add(h)
}

// sortHyps orders Hyps by descending Score, breaking ties by ascending
// SeqNum so iteration order never depends on map or pointer order (spec.md
// §4.5's determinism invariant).
func (c *Container) sortHyps(arena *hypothesis.Arena) {
	if c.sorted {
		return
	}
	sort.SliceStable(c.Hyps, func(i, j int) bool {
		hi, hj := arena.Get(c.Hyps[i]), arena.Get(c.Hyps[j])
		if hi.Score != hj.Score {
			return hi.Score > hj.Score
		}
		return hi.SeqNum < hj.SeqNum
	})
	for i, h := range c.Hyps {
		c.recomb[arena.Get(h).Key()] = i
	}
	c.sorted = true
}

// Best returns the highest-scoring hypothesis in the container, or
// hypothesis.NoPredecessor with ok=false if the container is empty.
func (c *Container) Best(arena *hypothesis.Arena) (h hypothesis.Handle, ok bool) {
	c.sortHyps(arena)
	if len(c.Hyps) == 0 {
		return hypothesis.NoPredecessor, false
	}
	return c.Hyps[0], true
}
