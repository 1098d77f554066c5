package engine

import (
	"math"
	"sort"

	"github.com/latticemt/cubedecoder/internal/decoder/bitmap"
	"github.com/latticemt/cubedecoder/internal/decoder/hypothesis"
)

// Stack is a Hypothesis Stack (spec.md §3): every container whose coverage
// bitmap has exactly the same number of covered source words.
type Stack struct {
	Covered    int
	containers map[string]*Container
	order      []string
}

// NewStack creates an empty stack for the given number of covered words.
func NewStack(covered int) *Stack {
	return &Stack{Covered: covered, containers: make(map[string]*Container)}
}

// ContainerFor returns the container for cov, creating it if necessary.
// Container creation order is insertion order, not bitmap key order, so
// Containers() iterates deterministically without ever touching a Go map's
// randomized range order (spec.md §4.5).
func (s *Stack) ContainerFor(cov bitmap.Bitmap) *Container {
	k := cov.Key()
	c, ok := s.containers[k]
	if !ok {
		c = NewContainer(cov)
		s.containers[k] = c
		s.order = append(s.order, k)
	}
	return c
}

// Containers returns every container in this stack, in creation order.
func (s *Stack) Containers() []*Container {
	out := make([]*Container, len(s.order))
	for i, k := range s.order {
		out[i] = s.containers[k]
	}
	return out
}

// Len returns the total number of active (non-recombined-away) hypotheses
// across every container in the stack.
func (s *Stack) Len() int {
	total := 0
	for _, c := range s.Containers() {
		total += len(c.Hyps)
	}
	return total
}

// BestScore returns the highest FutureScore among all active hypotheses in
// the stack, and false if the stack is empty.
func (s *Stack) BestScore(arena *hypothesis.Arena) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, c := range s.Containers() {
		c.sortHyps(arena)
		if len(c.Hyps) == 0 {
			continue
		}
		if sc := arena.Get(c.Hyps[0]).FutureScore; sc > best {
			best = sc
		}
		found = true
	}
	return best, found
}

// BeamPrune discards every hypothesis whose FutureScore trails the stack's
// best by more than beamWidth (spec.md §4.6 "beam pruning"). beamWidth <= 0
// disables this pass.
func (s *Stack) BeamPrune(arena *hypothesis.Arena, beamWidth float64) {
	if beamWidth <= 0 {
		return
	}
	best, ok := s.BestScore(arena)
	if !ok {
		return
	}
	threshold := best - beamWidth
	for _, c := range s.Containers() {
		kept := c.Hyps[:0]
		for _, h := range c.Hyps {
			if arena.Get(h).FutureScore >= threshold {
				kept = append(kept, h)
			}
		}
		c.Hyps = kept
	}
}

// HistogramPrune bounds the stack to at most maxSize active hypotheses
// (spec.md §4.6 "histogram pruning"), reserving up to diversityFloor slots
// per container before filling the remainder with the globally best
// remaining hypotheses across the whole stack (spec.md §6
// "stackDiversity": a floor guaranteeing no bitmap container is starved out
// entirely by a few dominant ones). maxSize <= 0 disables the limit.
func (s *Stack) HistogramPrune(arena *hypothesis.Arena, maxSize int, diversityFloor int) {
	if maxSize <= 0 {
		return
	}
	containers := s.Containers()
	for _, c := range containers {
		c.sortHyps(arena)
	}

	type ranked struct {
		h hypothesis.Handle
		c *Container
	}

	keep := make(map[hypothesis.Handle]bool)
	protectedCount := 0
	for _, c := range containers {
		n := diversityFloor
		if n > len(c.Hyps) {
			n = len(c.Hyps)
		}
		for i := 0; i < n; i++ {
			keep[c.Hyps[i]] = true
		}
		protectedCount += n
	}

	var rest []ranked
	for _, c := range containers {
		for _, h := range c.Hyps {
			if !keep[h] {
				rest = append(rest, ranked{h, c})
			}
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		hi, hj := arena.Get(rest[i].h), arena.Get(rest[j].h)
		if hi.FutureScore != hj.FutureScore {
			return hi.FutureScore > hj.FutureScore
		}
		return hi.SeqNum < hj.SeqNum
	})

	budget := maxSize - protectedCount
	if budget < 0 {
		budget = 0
	}
	if budget < len(rest) {
		rest = rest[:budget]
	}
	for _, r := range rest {
		keep[r.h] = true
	}

	for _, c := range containers {
		kept := c.Hyps[:0]
		for _, h := range c.Hyps {
			if keep[h] {
				kept = append(kept, h)
			}
		}
		c.Hyps = kept
	}
}
