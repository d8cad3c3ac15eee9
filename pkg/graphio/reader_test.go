package graphio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

func TestReadEdgeListBitcoinLayout(t *testing.T) {
	input := `# source,target,rating,time
6,2,4,1289241911.72836
6,5,2,1289241941.53378
1,15,1,1289243140.39049
4,3,7,1289245277.36975
13,16,8,1289254254.44746
13,10,-10,1289254292.2965
2,6,-2,1289300000.0
`
	opts := DefaultOptions()
	opts.Separator = ","
	opts.NormalizerFactor = 10

	g, err := ReadEdgeList(strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.False(t, g.Directed())
	assert.Equal(t, 6, g.NumEdges())

	// 6->2 and 2->6 fold into one undirected edge
	w, ok := g.Weight(2, 6)
	require.True(t, ok)
	assert.InDelta(t, 0.2, w, 1e-12)

	w, _ = g.Weight(13, 10)
	assert.InDelta(t, -1.0, w, 1e-12)
}

func TestReadEdgeListKonectLayout(t *testing.T) {
	input := "% sym signed\n% 3 4 4\n1 2 1\n2   3\t-1\n\n3 4 1 % trailing comment\n4 1 -1\n"
	opts := DefaultOptions()
	opts.Comment = "%"
	opts.SkipRows = 2

	g, err := ReadEdgeList(strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.Equal(t, []signed.NodeID{1, 2, 3, 4}, g.Nodes())
	assert.Equal(t, 4, g.NumEdges())

	s := Summarize(g)
	assert.Equal(t, Summary{
		Nodes:          4,
		Edges:          4,
		PositiveEdges:  2,
		NegativeEdges:  2,
		PositiveWeight: 2,
		NegativeWeight: 2,
	}, s)
}

func TestReadEdgeListOptions(t *testing.T) {
	input := "1 2 5\n2 1 3\n2 3 -0.5\n3 3 2\n4 5\n"

	t.Run("directed keeps both orientations", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Directed = true
		g, err := ReadEdgeList(strings.NewReader(input), opts)
		require.NoError(t, err)
		assert.True(t, g.Directed())
		assert.Equal(t, 5, g.NumEdges())

		s := Summarize(g)
		assert.True(t, s.Directed)
		assert.Equal(t, 5, s.Edges)

		folded := Fold(g)
		assert.False(t, folded.Directed())
		assert.Equal(t, 4, folded.NumEdges())
		w, ok := folded.Weight(2, 1)
		require.True(t, ok)
		assert.Equal(t, 8.0, w)
		assert.Equal(t, g.Size(), folded.Size())
	})

	t.Run("fold keeps undirected graphs", func(t *testing.T) {
		g, err := ReadEdgeList(strings.NewReader(input), DefaultOptions())
		require.NoError(t, err)
		assert.Same(t, g, Fold(g))
		assert.False(t, Summarize(g).Directed)
	})

	t.Run("unweighted keeps only the sign", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Unweighted = true
		g, err := ReadEdgeList(strings.NewReader(input), opts)
		require.NoError(t, err)
		w, _ := g.Weight(1, 2)
		assert.Equal(t, 2.0, w)
		w, _ = g.Weight(2, 3)
		assert.Equal(t, -1.0, w)
		w, _ = g.Weight(4, 5)
		assert.Equal(t, 1.0, w)
	})

	t.Run("missing weight defaults to one", func(t *testing.T) {
		g, err := ReadEdgeList(strings.NewReader(input), DefaultOptions())
		require.NoError(t, err)
		w, ok := g.Weight(5, 4)
		require.True(t, ok)
		assert.Equal(t, 1.0, w)
		assert.Equal(t, 1, Summarize(g).SelfLoops)
	})
}

func TestReadEdgeListErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"single column", "1 2 1\n3\n", "line 2"},
		{"bad source", "a 2 1\n", "invalid source node"},
		{"bad target", "1 b 1\n", "invalid target node"},
		{"bad weight", "1 2 x\n", "invalid weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEdgeList(strings.NewReader(tt.input), DefaultOptions())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadEdgeList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2,1\n2,3,-1\n"), 0644))

	opts := DefaultOptions()
	opts.Separator = ","
	g, err := LoadEdgeList(path, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumEdges())

	_, err = LoadEdgeList(filepath.Join(t.TempDir(), "missing.csv"), opts)
	assert.Error(t, err)
}
