package signed

import (
	"fmt"
	"sort"
)

// status caches per-community aggregates for one sign of one level so that a
// local move costs O(degree) instead of a full modularity recomputation.
type status struct {
	totalWeight float64

	// A node is missing from nodeToCommunity only between remove and insert.
	nodeToCommunity map[NodeID]NodeID

	degrees           map[NodeID]float64 // k_i, loops counted twice
	loops             map[NodeID]float64
	communityDegree   map[NodeID]float64 // Σtot
	communityInternal map[NodeID]float64 // Σin, loops counted once
}

// newStatus builds the aggregates of g. Without a seed every node starts in a
// singleton community named after itself.
func newStatus(g *Graph, seed Partition) (*status, error) {
	n := g.NumNodes()
	s := &status{
		totalWeight:       g.Size(),
		nodeToCommunity:   make(map[NodeID]NodeID, n),
		degrees:           make(map[NodeID]float64, n),
		loops:             make(map[NodeID]float64, n),
		communityDegree:   make(map[NodeID]float64, n),
		communityInternal: make(map[NodeID]float64, n),
	}

	if seed == nil {
		for _, node := range g.Nodes() {
			deg := g.Degree(node)
			loop := g.LoopWeight(node)
			s.nodeToCommunity[node] = node
			s.degrees[node] = deg
			s.loops[node] = loop
			s.communityDegree[node] = deg
			s.communityInternal[node] = loop
		}
		return s, nil
	}

	for _, node := range g.Nodes() {
		com, ok := seed[node]
		if !ok {
			return nil, fmt.Errorf("seed partition has no community for node %d: %w", node, ErrInvalidPartition)
		}
		deg := g.Degree(node)
		s.nodeToCommunity[node] = com
		s.degrees[node] = deg
		s.loops[node] = g.LoopWeight(node)
		s.communityDegree[com] += deg

		inc := 0.0
		for _, nb := range g.Neighbors(node) {
			nbCom, ok := seed[nb.ID]
			if !ok {
				return nil, fmt.Errorf("seed partition has no community for node %d: %w", nb.ID, ErrInvalidPartition)
			}
			if nbCom != com {
				continue
			}
			if nb.ID == node {
				inc += nb.Weight
			} else {
				inc += nb.Weight / 2
			}
		}
		s.communityInternal[com] += inc
	}
	return s, nil
}

// degreeShare returns k_i / 2m, or 0 for an empty subgraph
func (s *status) degreeShare(node NodeID) float64 {
	if s.totalWeight == 0 {
		return 0
	}
	return s.degrees[node] / (2 * s.totalWeight)
}

// remove takes node out of com. weight is the edge weight between node and
// the other members of com.
func (s *status) remove(node, com NodeID, weight float64) {
	s.communityDegree[com] -= s.degrees[node]
	s.communityInternal[com] -= weight + s.loops[node]
	delete(s.nodeToCommunity, node)
}

// insert puts node into com. weight is the edge weight between node and the
// current members of com.
func (s *status) insert(node, com NodeID, weight float64) {
	s.nodeToCommunity[node] = com
	s.communityDegree[com] += s.degrees[node]
	s.communityInternal[com] += weight + s.loops[node]
}

// communities returns the distinct communities in ascending order
func (s *status) communities() []NodeID {
	seen := make(map[NodeID]struct{}, len(s.nodeToCommunity))
	out := make([]NodeID, 0, len(s.nodeToCommunity))
	for _, com := range s.nodeToCommunity {
		if _, ok := seen[com]; ok {
			continue
		}
		seen[com] = struct{}{}
		out = append(out, com)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// modularity is Σ_c in(c)/m − (tot(c)/2m)², defined as 0 when m is 0
func (s *status) modularity() float64 {
	m := s.totalWeight
	if m == 0 {
		return 0
	}
	q := 0.0
	for _, com := range s.communities() {
		tot := s.communityDegree[com]
		q += s.communityInternal[com]/m - (tot/(2*m))*(tot/(2*m))
	}
	return q
}

// neighborCommunities holds the edge weight from a node to each adjacent
// community, in first-seen order.
type neighborCommunities struct {
	order  []NodeID
	weight map[NodeID]float64
}

func (nc neighborCommunities) get(com NodeID) float64 {
	return nc.weight[com]
}

// neighborCommunitiesOf sums the weight from node to the community of each of
// its neighbors. The self-loop is excluded.
func (s *status) neighborCommunitiesOf(g *Graph, node NodeID) neighborCommunities {
	nc := neighborCommunities{weight: make(map[NodeID]float64)}
	for _, nb := range g.Neighbors(node) {
		if nb.ID == node {
			continue
		}
		com := s.nodeToCommunity[nb.ID]
		if _, ok := nc.weight[com]; !ok {
			nc.order = append(nc.order, com)
		}
		nc.weight[com] += nb.Weight
	}
	return nc
}
