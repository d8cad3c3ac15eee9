package signed

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// epsilon is the smallest objective gain that counts as an improvement,
// both between passes of one level and between dendrogram levels.
const epsilon = 1e-7

// levelRun counts the work done by one call to oneLevel
type levelRun struct {
	passes int
	moves  int
}

// optimizer runs local-move passes. rng is nil when nodes and candidate
// communities are visited in insertion order.
type optimizer struct {
	resolution float64
	maxPasses  int
	rng        *rand.Rand
	progress   bool
	logger     zerolog.Logger
}

func newOptimizer(cfg *Config, logger zerolog.Logger) *optimizer {
	o := &optimizer{
		resolution: cfg.Resolution(),
		maxPasses:  cfg.MaxPasses(),
		progress:   cfg.EnableProgress(),
		logger:     logger,
	}
	if cfg.Randomize() {
		o.rng = rand.New(rand.NewSource(cfg.RandomSeed()))
	}
	return o
}

// visit returns the order in which ids are evaluated. The input slice is
// never modified.
func (o *optimizer) visit(ids []NodeID) []NodeID {
	if o.rng == nil {
		return ids
	}
	out := make([]NodeID, len(ids))
	copy(out, ids)
	o.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// candidates is the union of the communities adjacent on either sign,
// positive ones first, each listed once.
func candidates(pos, neg neighborCommunities) []NodeID {
	out := make([]NodeID, 0, len(pos.order)+len(neg.order))
	out = append(out, pos.order...)
	for _, com := range neg.order {
		if _, ok := pos.weight[com]; !ok {
			out = append(out, com)
		}
	}
	return out
}

// oneLevel moves nodes between communities of one level until a pass makes no
// move, the objective gain of a pass drops below epsilon or maxPasses is hit.
// ps and ns are updated in lock step so every node has the same community in
// both.
func (o *optimizer) oneLevel(pos, neg *Graph, ps, ns *status) (levelRun, error) {
	var run levelRun
	if !sameNodeSet(pos, neg) {
		return run, fmt.Errorf("one level: %w", ErrInputGraphMismatch)
	}
	mul, err := mixingWeights(ps.totalWeight, ns.totalWeight)
	if err != nil {
		return run, err
	}

	res := o.resolution
	current := mul.value(ps.modularity(), ns.modularity())

	for o.maxPasses < 0 || run.passes < o.maxPasses {
		previous := current
		modified := false
		passMoves := 0

		for _, node := range o.visit(pos.Nodes()) {
			com := ps.nodeToCommunity[node]
			posShare := ps.degreeShare(node)
			negShare := ns.degreeShare(node)
			posNeighbors := ps.neighborCommunitiesOf(pos, node)
			negNeighbors := ns.neighborCommunitiesOf(neg, node)

			posRemove := -res*posNeighbors.get(com) + (ps.communityDegree[com]-ps.degrees[node])*posShare
			negRemove := -res*negNeighbors.get(com) + (ns.communityDegree[com]-ns.degrees[node])*negShare
			removeCost := mul.value(posRemove, negRemove)

			ps.remove(node, com, posNeighbors.get(com))
			ns.remove(node, com, negNeighbors.get(com))

			best, bestGain := com, 0.0
			for _, cand := range o.visit(candidates(posNeighbors, negNeighbors)) {
				posInsert := res*posNeighbors.get(cand) - ps.communityDegree[cand]*posShare
				negInsert := res*negNeighbors.get(cand) - ns.communityDegree[cand]*negShare
				gain := removeCost + mul.value(posInsert, negInsert)
				if gain > bestGain {
					best, bestGain = cand, gain
				}
			}

			ps.insert(node, best, posNeighbors.get(best))
			ns.insert(node, best, negNeighbors.get(best))
			if best != com {
				modified = true
				passMoves++
			}
		}

		run.passes++
		run.moves += passMoves
		current = mul.value(ps.modularity(), ns.modularity())

		if o.progress {
			o.logger.Debug().
				Int("pass", run.passes).
				Int("moves", passMoves).
				Float64("objective", current).
				Msg("Local move pass")
		}

		if !modified || current-previous < epsilon {
			break
		}
	}
	return run, nil
}
