package signed

import "fmt"

// Split decomposes g into a positive and a negative subgraph over the same
// node set. Strictly positive edges keep their weight in pos; strictly negative
// edges are sign-flipped into neg. Zero-weight edges are dropped.
func Split(g *Graph) (pos, neg *Graph, err error) {
	if g.Directed() {
		return nil, nil, fmt.Errorf("split: %w", ErrUnsupportedGraphKind)
	}

	pos = NewGraph()
	neg = NewGraph()
	for _, n := range g.Nodes() {
		pos.AddNode(n)
		neg.AddNode(n)
	}

	for _, e := range g.Edges() {
		switch {
		case e.Weight > 0:
			pos.AddEdge(e.From, e.To, e.Weight)
		case e.Weight < 0:
			neg.AddEdge(e.From, e.To, -e.Weight)
		}
	}
	return pos, neg, nil
}

// sameNodeSet reports whether a and b contain exactly the same nodes
func sameNodeSet(a, b *Graph) bool {
	if a.NumNodes() != b.NumNodes() {
		return false
	}
	for _, n := range a.Nodes() {
		if !b.HasNode(n) {
			return false
		}
	}
	return true
}
