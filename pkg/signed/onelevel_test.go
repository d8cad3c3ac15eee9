package signed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneLevelRejectsMismatchedSubgraphs(t *testing.T) {
	pos := graphOf(Edge{1, 2, 1})
	neg := graphOf(Edge{1, 3, 1})

	ps, err := newStatus(pos, nil)
	require.NoError(t, err)
	ns, err := newStatus(neg, nil)
	require.NoError(t, err)

	_, err = newOptimizer(quietConfig(), zerolog.Nop()).oneLevel(pos, neg, ps, ns)
	require.ErrorIs(t, err, ErrInputGraphMismatch)
	assert.Equal(t, Partition{1: 1, 2: 2}, Partition(ps.nodeToCommunity))
}

func TestOneLevelMovesInLockStep(t *testing.T) {
	pos, neg, err := Split(graphOf(Edge{1, 2, 1}, Edge{3, 4, 1}, Edge{2, 3, -1}))
	require.NoError(t, err)

	ps, err := newStatus(pos, nil)
	require.NoError(t, err)
	ns, err := newStatus(neg, nil)
	require.NoError(t, err)

	run, err := newOptimizer(quietConfig(), zerolog.Nop()).oneLevel(pos, neg, ps, ns)
	require.NoError(t, err)
	assert.Positive(t, run.moves)
	assert.Equal(t, ps.nodeToCommunity, ns.nodeToCommunity)
	assert.Equal(t, 2, Partition(ps.nodeToCommunity).Count())
}

func TestOneLevelWithoutPasses(t *testing.T) {
	pos, neg, err := Split(graphOf(Edge{1, 2, 1}, Edge{2, 3, -1}))
	require.NoError(t, err)

	ps, err := newStatus(pos, nil)
	require.NoError(t, err)
	ns, err := newStatus(neg, nil)
	require.NoError(t, err)

	cfg := quietConfig()
	cfg.Set("algorithm.max_passes", 0)
	run, err := newOptimizer(cfg, zerolog.Nop()).oneLevel(pos, neg, ps, ns)
	require.NoError(t, err)
	assert.Equal(t, levelRun{}, run)
	assert.Equal(t, Partition{1: 1, 2: 2, 3: 3}, Partition(ps.nodeToCommunity))
}
