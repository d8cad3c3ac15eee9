package signed

import (
	"context"
	"fmt"
	"time"
)

// Result represents the algorithm output
type Result struct {
	Dendrogram Dendrogram   `json:"dendrogram"`
	Partition  Partition    `json:"partition"`
	Objective  float64      `json:"objective"`
	Levels     []LevelStats `json:"levels"`
	Statistics Statistics   `json:"statistics"`
}

// LevelStats describes one optimized level. The last entry may describe a
// level that was computed but not retained in the dendrogram.
type LevelStats struct {
	Level              int     `json:"level"`
	Nodes              int     `json:"nodes"`
	Communities        int     `json:"communities"`
	Passes             int     `json:"passes"`
	Moves              int     `json:"moves"`
	PositiveModularity float64 `json:"positive_modularity"`
	NegativeModularity float64 `json:"negative_modularity"`
	Objective          float64 `json:"objective"`
	Retained           bool    `json:"retained"`
	RuntimeMS          int64   `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	TotalPasses    int     `json:"total_passes" yaml:"total_passes"`
	TotalMoves     int     `json:"total_moves" yaml:"total_moves"`
	PositiveWeight float64 `json:"positive_weight" yaml:"positive_weight"`
	NegativeWeight float64 `json:"negative_weight" yaml:"negative_weight"`
	RuntimeMS      int64   `json:"runtime_ms" yaml:"runtime_ms"`
}

// NumLevels returns the number of retained dendrogram levels
func (r *Result) NumLevels() int { return len(r.Dendrogram) }

// Run executes the signed Louvain method on g. seed, when not nil, is the
// starting partition of the first level. ctx is checked between levels only;
// a level that has started always runs to convergence.
func Run(ctx context.Context, g *Graph, seed Partition, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	startTime := time.Now()
	logger := cfg.CreateLogger()

	if g.Directed() {
		return nil, fmt.Errorf("run: %w", ErrUnsupportedGraphKind)
	}
	if seed != nil {
		if err := seed.Covers(g); err != nil {
			return nil, fmt.Errorf("seed partition: %w", err)
		}
	}

	pos, neg, err := Split(g)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("nodes", g.NumNodes()).
		Int("positive_edges", pos.NumEdges()).
		Int("negative_edges", neg.NumEdges()).
		Float64("resolution", cfg.Resolution()).
		Msg("Starting signed Louvain")

	result := &Result{
		Levels: make([]LevelStats, 0),
		Statistics: Statistics{
			PositiveWeight: pos.Size(),
			NegativeWeight: neg.Size(),
		},
	}

	// Without any edge mass every node stays alone.
	if pos.NumEdges()+neg.NumEdges() == 0 {
		identity := make(Partition, g.NumNodes())
		for _, n := range g.Nodes() {
			identity[n] = n
		}
		result.Dendrogram = Dendrogram{identity}
		result.Partition = identity.Clone()
		result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
		logger.Info().Msg("Graph has no edges, every node is its own community")
		return result, nil
	}

	ps, err := newStatus(pos, seed)
	if err != nil {
		return nil, err
	}
	ns, err := newStatus(neg, seed)
	if err != nil {
		return nil, err
	}
	mul, err := mixingWeights(ps.totalWeight, ns.totalWeight)
	if err != nil {
		return nil, err
	}

	opt := newOptimizer(cfg, logger)
	maxLevels := cfg.MaxLevels()
	previous := 0.0

	for level := 0; ; level++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("cancelled before level %d: %w", level, ctx.Err())
		default:
		}

		levelStart := time.Now()
		run, err := opt.oneLevel(pos, neg, ps, ns)
		if err != nil {
			return nil, fmt.Errorf("local moves failed at level %d: %w", level, err)
		}

		posQ, negQ := ps.modularity(), ns.modularity()
		current := mul.value(posQ, negQ)
		stats := LevelStats{
			Level:              level,
			Nodes:              pos.NumNodes(),
			Communities:        len(ps.communities()),
			Passes:             run.passes,
			Moves:              run.moves,
			PositiveModularity: posQ,
			NegativeModularity: negQ,
			Objective:          current,
			RuntimeMS:          time.Since(levelStart).Milliseconds(),
		}
		result.Statistics.TotalPasses += run.passes
		result.Statistics.TotalMoves += run.moves

		if level > 0 && current-previous < epsilon {
			result.Levels = append(result.Levels, stats)
			logger.Info().
				Int("level", level).
				Float64("objective", current).
				Float64("gain", current-previous).
				Msg("No improvement, stopping")
			break
		}

		partition := Renumber(Partition(ps.nodeToCommunity), pos.Nodes())
		result.Dendrogram = append(result.Dendrogram, partition)
		stats.Retained = true
		result.Levels = append(result.Levels, stats)
		previous = current

		logger.Info().
			Int("level", level).
			Int("nodes", stats.Nodes).
			Int("communities", stats.Communities).
			Int("moves", stats.Moves).
			Float64("objective", current).
			Msg("Level completed")

		if maxLevels > 0 && len(result.Dendrogram) >= maxLevels {
			logger.Info().Int("max_levels", maxLevels).Msg("Level limit reached, stopping")
			break
		}

		if pos, err = InducedGraph(partition, pos); err != nil {
			return nil, fmt.Errorf("contraction failed at level %d: %w", level, err)
		}
		if neg, err = InducedGraph(partition, neg); err != nil {
			return nil, fmt.Errorf("contraction failed at level %d: %w", level, err)
		}
		if ps, err = newStatus(pos, nil); err != nil {
			return nil, err
		}
		if ns, err = newStatus(neg, nil); err != nil {
			return nil, err
		}
	}

	best, err := result.Dendrogram.Best()
	if err != nil {
		return nil, err
	}
	result.Partition = best
	result.Objective = previous
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	logger.Info().
		Int("levels", result.NumLevels()).
		Int("communities", best.Count()).
		Float64("objective", result.Objective).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Signed Louvain completed")

	return result, nil
}

func convenienceConfig(resolution float64, randomize bool) *Config {
	cfg := NewConfig()
	cfg.Set("algorithm.resolution", resolution)
	cfg.Set("algorithm.randomize", randomize)
	cfg.Set("logging.level", "warn")
	return cfg
}

// BuildDendrogram returns every retained level of the signed Louvain method
func BuildDendrogram(g *Graph, seed Partition, resolution float64, randomize bool) (Dendrogram, error) {
	result, err := Run(context.Background(), g, seed, convenienceConfig(resolution, randomize))
	if err != nil {
		return nil, err
	}
	return result.Dendrogram, nil
}

// DetectCommunities returns the partition of the last retained level
func DetectCommunities(g *Graph, seed Partition, resolution float64, randomize bool) (Partition, error) {
	result, err := Run(context.Background(), g, seed, convenienceConfig(resolution, randomize))
	if err != nil {
		return nil, err
	}
	return result.Partition, nil
}
