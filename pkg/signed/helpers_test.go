package signed

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func graphOf(edges ...Edge) *Graph {
	g := NewGraph()
	for _, e := range edges {
		g.AddEdge(e.From, e.To, e.Weight)
	}
	return g
}

// quietConfig keeps test output readable
func quietConfig() *Config {
	cfg := NewConfig()
	cfg.Set("logging.level", "disabled")
	return cfg
}

// randomSignedGraph builds a reproducible graph over nodes 0..n-1. Edge 0-1 is
// forced positive so the positive side is never empty. Weights fall in
// [-2, 2] with negative edges appearing with probability negRatio.
func randomSignedGraph(seed int64, n, edges int, negRatio float64, loops bool) *Graph {
	rng := rand.New(rand.NewSource(seed))
	g := NewGraph()
	for i := 0; i < n; i++ {
		g.AddNode(NodeID(i))
	}
	for i := 0; i < edges; i++ {
		u := NodeID(rng.Intn(n))
		v := NodeID(rng.Intn(n))
		if u == v && !loops {
			continue
		}
		w := 0.25 + rng.Float64()*1.75
		if rng.Float64() < negRatio {
			w = -w
		}
		g.AddEdge(u, v, w)
	}
	if w, _ := g.Weight(0, 1); w <= 0 {
		g.AddEdge(0, 1, 1-w)
	}
	return g
}

func randomPartition(seed int64, g *Graph, k int) Partition {
	rng := rand.New(rand.NewSource(seed))
	p := make(Partition, g.NumNodes())
	for _, n := range g.Nodes() {
		p[n] = NodeID(rng.Intn(k))
	}
	return p
}

func requireSamePartition(t *testing.T, expected, actual Partition) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for node, com := range expected {
		got, ok := actual[node]
		require.Truef(t, ok, "node %d missing", node)
		require.Equalf(t, com, got, "node %d", node)
	}
}

// twoCliques returns two positive K4s joined by one negative edge
func twoCliques() *Graph {
	g := NewGraph()
	for _, block := range [][]NodeID{{1, 2, 3, 4}, {5, 6, 7, 8}} {
		for i := 0; i < len(block); i++ {
			for j := i + 1; j < len(block); j++ {
				g.AddEdge(block[i], block[j], 1)
			}
		}
	}
	g.AddEdge(4, 5, -1)
	return g
}
