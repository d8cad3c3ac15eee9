package signed

import (
	"fmt"
	"sort"
)

// Partition maps every node of a graph to its community
type Partition map[NodeID]NodeID

// Dendrogram is the sequence of partitions produced level by level. Level 0
// maps the original nodes; the keys of level i are the values of level i-1.
type Dendrogram []Partition

// Clone returns a copy of p
func (p Partition) Clone() Partition {
	out := make(Partition, len(p))
	for node, com := range p {
		out[node] = com
	}
	return out
}

// Count returns the number of distinct communities
func (p Partition) Count() int {
	seen := make(map[NodeID]struct{})
	for _, com := range p {
		seen[com] = struct{}{}
	}
	return len(seen)
}

// Communities groups nodes by community. Member lists are sorted.
func (p Partition) Communities() map[NodeID][]NodeID {
	out := make(map[NodeID][]NodeID)
	for node, com := range p {
		out[com] = append(out[com], node)
	}
	for _, members := range out {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	}
	return out
}

// Covers reports whether p assigns every node of g
func (p Partition) Covers(g *Graph) error {
	for _, n := range g.Nodes() {
		if _, ok := p[n]; !ok {
			return fmt.Errorf("node %d: %w", n, ErrInvalidPartition)
		}
	}
	return nil
}

// sortedKeys returns the nodes of p in ascending order
func (p Partition) sortedKeys() []NodeID {
	keys := make([]NodeID, 0, len(p))
	for node := range p {
		keys = append(keys, node)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Renumber relabels the communities of p densely from 0. Labels are handed
// out in the order communities are first met while walking order; nodes of p
// missing from order are walked afterwards in ascending order.
func Renumber(p Partition, order []NodeID) Partition {
	out := make(Partition, len(p))
	labels := make(map[NodeID]NodeID)
	assign := func(node NodeID) {
		com, ok := p[node]
		if !ok {
			return
		}
		if _, done := out[node]; done {
			return
		}
		label, ok := labels[com]
		if !ok {
			label = NodeID(len(labels))
			labels[com] = label
		}
		out[node] = label
	}

	for _, node := range order {
		assign(node)
	}
	if len(out) < len(p) {
		for _, node := range p.sortedKeys() {
			assign(node)
		}
	}
	return out
}

// PartitionAtLevel composes the dendrogram from level 0 up to level and
// returns the resulting node -> community mapping for the original nodes.
func PartitionAtLevel(d Dendrogram, level int) (Partition, error) {
	if level < 0 || level >= len(d) {
		return nil, fmt.Errorf("level %d with %d levels: %w", level, len(d), ErrLevelOutOfRange)
	}

	partition := d[0].Clone()
	for index := 1; index <= level; index++ {
		next := d[index]
		for node, com := range partition {
			up, ok := next[com]
			if !ok {
				return nil, fmt.Errorf("level %d has no entry for community %d: %w", index, com, ErrInconsistentDendrogram)
			}
			partition[node] = up
		}
	}
	return partition, nil
}

// Best returns the partition at the last level
func (d Dendrogram) Best() (Partition, error) {
	return PartitionAtLevel(d, len(d)-1)
}
