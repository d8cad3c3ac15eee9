package signed

import "fmt"

// mixing holds the share of total edge mass carried by each sign
type mixing struct {
	pos float64
	neg float64
}

// mixingWeights splits the objective between the signs in proportion to
// their total weight.
func mixingWeights(posWeight, negWeight float64) (mixing, error) {
	total := posWeight + negWeight
	if total == 0 {
		return mixing{}, fmt.Errorf("mixing weights: %w", ErrDegenerateGraph)
	}
	return mixing{pos: posWeight / total, neg: negWeight / total}, nil
}

// value blends per-sign modularities: cohesion on positive edges is rewarded,
// cohesion on negative edges is penalized.
func (m mixing) value(posQ, negQ float64) float64 {
	return m.pos*posQ - m.neg*negQ
}

// Objective returns the blended signed objective of p on g, the quantity the
// optimizer maximizes.
func Objective(g *Graph, p Partition) (float64, error) {
	pos, neg, err := Split(g)
	if err != nil {
		return 0, err
	}
	ps, err := newStatus(pos, p)
	if err != nil {
		return 0, err
	}
	ns, err := newStatus(neg, p)
	if err != nil {
		return 0, err
	}
	mul, err := mixingWeights(ps.totalWeight, ns.totalWeight)
	if err != nil {
		return 0, err
	}
	return mul.value(ps.modularity(), ns.modularity()), nil
}
