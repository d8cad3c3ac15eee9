package signed

import "errors"

var (
	// ErrUnsupportedGraphKind is returned for directed input.
	ErrUnsupportedGraphKind = errors.New("unsupported graph kind: only undirected graphs are accepted")

	// ErrDegenerateGraph is returned when a non-degenerate result needs edges the graph does not have.
	ErrDegenerateGraph = errors.New("degenerate graph: no edge weight")

	// ErrInputGraphMismatch means the positive and negative subgraphs disagree on their node sets.
	// It indicates a programming error, not bad user input.
	ErrInputGraphMismatch = errors.New("positive and negative subgraphs have different node sets")

	// ErrInconsistentDendrogram means a level does not cover the communities of the level below it.
	ErrInconsistentDendrogram = errors.New("inconsistent dendrogram")

	// ErrLevelOutOfRange is returned for a dendrogram level index outside [0, len).
	ErrLevelOutOfRange = errors.New("dendrogram level out of range")

	// ErrInvalidPartition is returned when a partition does not assign every node of a graph.
	ErrInvalidPartition = errors.New("partition does not cover every node")
)
