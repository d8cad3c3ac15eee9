package signed

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
)

// NodeID identifies a node. Community identifiers share the type because the
// communities of one level become the nodes of the next.
type NodeID int64

// Edge is a weighted edge. In an undirected graph From/To keep the orientation
// of the first AddEdge call for that pair.
type Edge struct {
	From   NodeID  `json:"from"`
	To     NodeID  `json:"to"`
	Weight float64 `json:"weight"`
}

// Neighbor is one adjacency entry.
type Neighbor struct {
	ID     NodeID
	Weight float64
}

// edgeRef locates an edge and its two adjacency entries.
// toPos is -1 for self-loops and for directed edges.
type edgeRef struct {
	edge    int
	fromPos int
	toPos   int
}

// Graph is a weighted graph without parallel edges. Nodes, edges and adjacency
// lists keep insertion order so that iteration is deterministic.
type Graph struct {
	directed  bool
	nodes     []NodeID
	index     map[NodeID]int
	adjacency [][]Neighbor
	edges     []Edge
	edgeIndex map[[2]NodeID]edgeRef
}

// NewGraph creates an empty undirected graph
func NewGraph() *Graph {
	return newGraph(false)
}

// NewDirectedGraph creates an empty directed graph. The optimizer rejects
// directed graphs; use Undirected to fold one first.
func NewDirectedGraph() *Graph {
	return newGraph(true)
}

func newGraph(directed bool) *Graph {
	return &Graph{
		directed:  directed,
		index:     make(map[NodeID]int),
		edgeIndex: make(map[[2]NodeID]edgeRef),
	}
}

// Directed reports whether the graph is directed
func (g *Graph) Directed() bool { return g.directed }

// NumNodes returns the number of nodes
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of distinct node pairs carrying an edge
func (g *Graph) NumEdges() int { return len(g.edges) }

// Nodes returns the node identifiers in insertion order. The slice must not be modified.
func (g *Graph) Nodes() []NodeID { return g.nodes }

// Edges returns every edge once, in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// HasNode reports whether n is in the graph
func (g *Graph) HasNode(n NodeID) bool {
	_, ok := g.index[n]
	return ok
}

// AddNode adds n if it is not present yet
func (g *Graph) AddNode(n NodeID) {
	g.addNode(n)
}

func (g *Graph) addNode(n NodeID) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[n] = i
	g.nodes = append(g.nodes, n)
	g.adjacency = append(g.adjacency, nil)
	return i
}

func (g *Graph) key(u, v NodeID) [2]NodeID {
	if !g.directed && v < u {
		return [2]NodeID{v, u}
	}
	return [2]NodeID{u, v}
}

// AddEdge adds weight w between u and v, creating missing nodes. Repeated
// calls for the same pair accumulate into a single edge.
func (g *Graph) AddEdge(u, v NodeID, w float64) {
	ui := g.addNode(u)
	vi := g.addNode(v)
	k := g.key(u, v)

	if ref, ok := g.edgeIndex[k]; ok {
		e := &g.edges[ref.edge]
		e.Weight += w
		g.adjacency[g.index[e.From]][ref.fromPos].Weight += w
		if ref.toPos >= 0 {
			g.adjacency[g.index[e.To]][ref.toPos].Weight += w
		}
		return
	}

	ref := edgeRef{edge: len(g.edges), fromPos: len(g.adjacency[ui]), toPos: -1}
	g.adjacency[ui] = append(g.adjacency[ui], Neighbor{ID: v, Weight: w})
	if !g.directed && u != v {
		ref.toPos = len(g.adjacency[vi])
		g.adjacency[vi] = append(g.adjacency[vi], Neighbor{ID: u, Weight: w})
	}
	g.edges = append(g.edges, Edge{From: u, To: v, Weight: w})
	g.edgeIndex[k] = ref
}

// Neighbors returns the adjacency of n, including n itself when it has a
// self-loop. The slice must not be modified.
func (g *Graph) Neighbors(n NodeID) []Neighbor {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	return g.adjacency[i]
}

// Weight returns the weight of the edge between u and v
func (g *Graph) Weight(u, v NodeID) (float64, bool) {
	ref, ok := g.edgeIndex[g.key(u, v)]
	if !ok {
		return 0, false
	}
	return g.edges[ref.edge].Weight, true
}

// LoopWeight returns the weight of n's self-loop, 0 if absent
func (g *Graph) LoopWeight(n NodeID) float64 {
	w, _ := g.Weight(n, n)
	return w
}

// Degree returns the weighted degree of n with the self-loop counted twice
func (g *Graph) Degree(n NodeID) float64 {
	deg := 0.0
	for _, nb := range g.Neighbors(n) {
		deg += nb.Weight
		if nb.ID == n {
			deg += nb.Weight
		}
	}
	return deg
}

// Size returns the sum of all edge weights, self-loops counted once
func (g *Graph) Size() float64 {
	size := 0.0
	for _, e := range g.edges {
		size += e.Weight
	}
	return size
}

// Undirected returns an undirected copy. For a directed graph the (u,v) and
// (v,u) contributions are summed into one edge.
func (g *Graph) Undirected() *Graph {
	out := NewGraph()
	for _, n := range g.nodes {
		out.AddNode(n)
	}
	for _, e := range g.edges {
		out.AddEdge(e.From, e.To, e.Weight)
	}
	return out
}

// String returns a short description
func (g *Graph) String() string {
	kind := "undirected"
	if g.directed {
		kind = "directed"
	}
	return fmt.Sprintf("%s graph: %d nodes, %d edges, size %.4f", kind, g.NumNodes(), g.NumEdges(), g.Size())
}

// ToGonum exports the strictly positive, non-loop edges of an undirected graph
// as a gonum weighted graph. gonum simple graphs reject self edges, so loops
// are dropped.
func (g *Graph) ToGonum() *simple.WeightedUndirectedGraph {
	if g.directed {
		g = g.Undirected()
	}
	dst := simple.NewWeightedUndirectedGraph(0, 0)
	for _, n := range g.nodes {
		dst.AddNode(simple.Node(int64(n)))
	}
	for _, e := range g.edges {
		if e.From == e.To || e.Weight <= 0 {
			continue
		}
		dst.SetWeightedEdge(dst.NewWeightedEdge(simple.Node(int64(e.From)), simple.Node(int64(e.To)), e.Weight))
	}
	return dst
}
