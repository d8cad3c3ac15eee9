package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/signed-louvain/pkg/evaluation"
	"github.com/gilchrisn/signed-louvain/pkg/graphio"
	"github.com/gilchrisn/signed-louvain/pkg/output"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

type options struct {
	input      string
	sep        string
	comment    string
	skip       int
	normalize  float64
	unweighted bool
	directed   bool

	registry string
	dataset  string

	configFile string
	resolution float64
	randomize  bool
	seed       int64
	maxLevels  int
	maxPasses  int
	logLevel   string

	initPartition string
	compare       string
	level         int
	outputDir     string
	prefix        string
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	opts := &options{}
	fs := flag.NewFlagSet("signed-louvain", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.input, "input", "", "Signed edge list: from to weight per line")
	fs.StringVar(&opts.sep, "sep", "", "Column separator (default: any whitespace)")
	fs.StringVar(&opts.comment, "comment", "#", "Comment prefix")
	fs.IntVar(&opts.skip, "skip", 0, "Number of leading lines to skip")
	fs.Float64Var(&opts.normalize, "normalize", 1, "Divide every weight by this factor")
	fs.BoolVar(&opts.unweighted, "unweighted", false, "Replace weights by their sign")
	fs.BoolVar(&opts.directed, "directed", false, "Read arcs; (u,v) and (v,u) are summed before clustering")

	fs.StringVar(&opts.registry, "registry", "", "Dataset registry file (YAML/JSON)")
	fs.StringVar(&opts.dataset, "dataset", "", "Dataset name inside -registry")

	fs.StringVar(&opts.configFile, "config", "", "Algorithm configuration file")
	fs.Float64Var(&opts.resolution, "resolution", 1, "Resolution parameter")
	fs.BoolVar(&opts.randomize, "randomize", false, "Randomize node and community visit order")
	fs.Int64Var(&opts.seed, "seed", 42, "Random seed used with -randomize")
	fs.IntVar(&opts.maxLevels, "max-levels", -1, "Maximum number of dendrogram levels (-1: unbounded)")
	fs.IntVar(&opts.maxPasses, "max-passes", -1, "Maximum local move passes per level (-1: unbounded)")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error, disabled)")

	fs.StringVar(&opts.initPartition, "init", "", "Starting partition file (node community per line)")
	fs.StringVar(&opts.compare, "compare", "", "Reference partition file to compute NMI against")
	fs.IntVar(&opts.level, "level", -1, "Dendrogram level to report (-1: last)")
	fs.StringVar(&opts.outputDir, "output", "", "Directory for result files")
	fs.StringVar(&opts.prefix, "prefix", "communities", "Output file prefix")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if (opts.input == "") == (opts.dataset == "") {
		return nil, nil, errors.New("exactly one of -input or -dataset is required")
	}
	if opts.dataset != "" && opts.registry == "" {
		return nil, nil, errors.New("-dataset requires -registry")
	}
	return opts, set, nil
}

// buildConfig layers explicitly set flags over the config file over defaults
func buildConfig(opts *options, set map[string]bool) (*signed.Config, error) {
	cfg := signed.NewConfig()
	if opts.configFile != "" {
		if err := cfg.LoadFromFile(opts.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	overrides := map[string]struct {
		key   string
		value interface{}
	}{
		"resolution": {"algorithm.resolution", opts.resolution},
		"randomize":  {"algorithm.randomize", opts.randomize},
		"seed":       {"algorithm.random_seed", opts.seed},
		"max-levels": {"algorithm.max_levels", opts.maxLevels},
		"max-passes": {"algorithm.max_passes", opts.maxPasses},
		"log-level":  {"logging.level", opts.logLevel},
	}
	for name, o := range overrides {
		if set[name] {
			cfg.Set(o.key, o.value)
		}
	}
	return cfg, nil
}

func loadGraph(opts *options) (*signed.Graph, error) {
	if opts.dataset != "" {
		reg, err := graphio.LoadRegistry(opts.registry)
		if err != nil {
			return nil, err
		}
		return reg.Load(opts.dataset)
	}

	loadOpts := graphio.DefaultOptions()
	loadOpts.Separator = opts.sep
	loadOpts.Comment = opts.comment
	loadOpts.SkipRows = opts.skip
	loadOpts.NormalizerFactor = opts.normalize
	loadOpts.Unweighted = opts.unweighted
	loadOpts.Directed = opts.directed
	return graphio.LoadEdgeList(opts.input, loadOpts)
}

type summary struct {
	Graph      graphio.Summary               `yaml:"graph"`
	Level      int                           `yaml:"level"`
	Report     *evaluation.Report            `yaml:"report"`
	Comparison *evaluation.ComparisonMetrics `yaml:"comparison,omitempty"`
	Statistics signed.Statistics             `yaml:"statistics"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(opts, set)
	if err != nil {
		return err
	}
	logger := cfg.CreateLogger()

	g, err := loadGraph(opts)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	logger.Info().Str("graph", g.String()).Msg("Graph loaded")

	graphSummary := graphio.Summarize(g)
	if g.Directed() {
		g = graphio.Fold(g)
		logger.Info().Str("graph", g.String()).Msg("Folded directed input")
	}

	var seed signed.Partition
	if opts.initPartition != "" {
		if seed, err = graphio.LoadPartition(opts.initPartition); err != nil {
			return err
		}
	}

	result, err := signed.Run(ctx, g, seed, cfg)
	if err != nil {
		return fmt.Errorf("signed louvain failed: %w", err)
	}

	level := opts.level
	if level < 0 {
		level = len(result.Dendrogram) - 1
	}
	partition, err := signed.PartitionAtLevel(result.Dendrogram, level)
	if err != nil {
		return err
	}

	objective := result.Objective
	if level != len(result.Dendrogram)-1 {
		if objective, err = signed.Objective(g, partition); err != nil {
			return err
		}
	}
	report, err := evaluation.BuildReportForPartition(g, partition, level+1, objective)
	if err != nil {
		return err
	}

	out := summary{
		Graph:      graphSummary,
		Level:      level,
		Report:     report,
		Statistics: result.Statistics,
	}

	if opts.compare != "" {
		reference, err := graphio.LoadPartition(opts.compare)
		if err != nil {
			return err
		}
		if out.Comparison, err = evaluation.Compare("result", partition, "reference", reference); err != nil {
			return err
		}
	}

	if opts.outputDir != "" {
		writer := output.NewFileWriter()
		if err := writer.WriteAll(result, g, opts.outputDir, opts.prefix); err != nil {
			return err
		}
		if set["level"] {
			path := filepath.Join(opts.outputDir, fmt.Sprintf("%s.level%d.partition", opts.prefix, level))
			if err := writer.WritePartition(partition, path); err != nil {
				return err
			}
		}
		logger.Info().Str("dir", opts.outputDir).Str("prefix", opts.prefix).Msg("Results written")
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
