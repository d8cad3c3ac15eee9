package signed

import "fmt"

// Modularity scores p on the positive edges of g with the classical
// Newman-Girvan formula. Negative edges are ignored.
func Modularity(g *Graph, p Partition) (float64, error) {
	if g.Directed() {
		return 0, fmt.Errorf("modularity: %w", ErrUnsupportedGraphKind)
	}
	if g.NumEdges() == 0 {
		return 0, fmt.Errorf("modularity of a graph without edges: %w", ErrDegenerateGraph)
	}
	if err := p.Covers(g); err != nil {
		return 0, fmt.Errorf("modularity: %w", err)
	}

	pos, _, err := Split(g)
	if err != nil {
		return 0, err
	}
	if pos.Size() == 0 {
		return 0, fmt.Errorf("modularity of a graph without positive weight: %w", ErrDegenerateGraph)
	}

	s, err := newStatus(pos, p)
	if err != nil {
		return 0, err
	}
	return s.modularity(), nil
}
