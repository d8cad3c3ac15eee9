package signed

import (
	"fmt"
	"sort"
)

// InducedGraph contracts g under p. Every community becomes a node, added in
// ascending id order, and every edge (u, v, w) of g adds w to the edge between
// the communities of u and v. Intra-community edges become self-loops, so the
// total edge weight is unchanged.
func InducedGraph(p Partition, g *Graph) (*Graph, error) {
	if g.Directed() {
		return nil, fmt.Errorf("induced graph: %w", ErrUnsupportedGraphKind)
	}
	if err := p.Covers(g); err != nil {
		return nil, fmt.Errorf("induced graph: %w", err)
	}

	seen := make(map[NodeID]struct{}, len(p))
	coms := make([]NodeID, 0)
	for _, com := range p {
		if _, ok := seen[com]; ok {
			continue
		}
		seen[com] = struct{}{}
		coms = append(coms, com)
	}
	sort.Slice(coms, func(i, j int) bool { return coms[i] < coms[j] })

	out := NewGraph()
	for _, com := range coms {
		out.AddNode(com)
	}
	for _, e := range g.Edges() {
		out.AddEdge(p[e.From], p[e.To], e.Weight)
	}
	return out, nil
}
