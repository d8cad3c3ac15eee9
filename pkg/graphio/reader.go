// Package graphio loads signed edge lists into signed.Graph values.
package graphio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// Options describes the layout of an edge-list file. Each data line holds
// "from to [weight [extra columns...]]"; columns after the weight (ratings
// timestamps for instance) are ignored.
type Options struct {
	// Separator between columns. Empty or whitespace splits on any run of
	// spaces and tabs.
	Separator string
	// Comment marks the rest of a line as ignored. Empty disables comments.
	Comment string
	// SkipRows drops that many physical lines before parsing starts.
	SkipRows int
	// NormalizerFactor divides every weight. 0 is treated as 1.
	NormalizerFactor float64
	// Unweighted replaces weights by +1 or -1 according to their sign.
	Unweighted bool
	// Directed keeps edge orientation, so Summarize counts arcs. Fold the
	// graph before clustering. By default (u,v) and (v,u) are summed into one
	// undirected edge.
	Directed bool
}

// DefaultOptions reads whitespace separated lines with # comments
func DefaultOptions() Options {
	return Options{Comment: "#", NormalizerFactor: 1}
}

// LoadEdgeList reads a signed edge list from path
func LoadEdgeList(path string, opts Options) (*signed.Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer file.Close()

	g, err := ReadEdgeList(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ReadEdgeList parses a signed edge list
func ReadEdgeList(r io.Reader, opts Options) (*signed.Graph, error) {
	factor := opts.NormalizerFactor
	if factor == 0 {
		factor = 1
	}

	g := signed.NewGraph()
	if opts.Directed {
		g = signed.NewDirectedGraph()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum <= opts.SkipRows {
			continue
		}

		line := scanner.Text()
		if opts.Comment != "" {
			if i := strings.Index(line, opts.Comment); i >= 0 {
				line = line[:i]
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := splitFields(line, opts.Separator)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", lineNum, len(fields))
		}

		from, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid source node %q: %w", lineNum, fields[0], err)
		}
		to, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid target node %q: %w", lineNum, fields[1], err)
		}

		weight := 1.0
		if len(fields) > 2 && fields[2] != "" {
			weight, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNum, fields[2], err)
			}
		}

		if opts.Unweighted {
			if weight > 0 {
				weight = 1
			} else {
				weight = -1
			}
		} else {
			weight /= factor
		}

		g.AddEdge(signed.NodeID(from), signed.NodeID(to), weight)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}
	return g, nil
}

func splitFields(line, sep string) []string {
	if strings.TrimSpace(sep) == "" {
		return strings.Fields(line)
	}
	fields := strings.Split(line, sep)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// Summary describes the sign composition of a graph
type Summary struct {
	Nodes          int     `json:"nodes" yaml:"nodes"`
	Edges          int     `json:"edges" yaml:"edges"`
	PositiveEdges  int     `json:"positive_edges" yaml:"positive_edges"`
	NegativeEdges  int     `json:"negative_edges" yaml:"negative_edges"`
	PositiveWeight float64 `json:"positive_weight" yaml:"positive_weight"`
	NegativeWeight float64 `json:"negative_weight" yaml:"negative_weight"`
	SelfLoops      int     `json:"self_loops" yaml:"self_loops"`
	Directed       bool    `json:"directed" yaml:"directed"`
}

// Summarize counts nodes and edges per sign. NegativeWeight is reported as a
// magnitude.
func Summarize(g *signed.Graph) Summary {
	s := Summary{Nodes: g.NumNodes(), Edges: g.NumEdges(), Directed: g.Directed()}
	for _, e := range g.Edges() {
		if e.From == e.To {
			s.SelfLoops++
		}
		switch {
		case e.Weight > 0:
			s.PositiveEdges++
			s.PositiveWeight += e.Weight
		case e.Weight < 0:
			s.NegativeEdges++
			s.NegativeWeight -= e.Weight
		}
	}
	return s
}

// Fold returns g unchanged when it is undirected. A directed graph is folded
// into an undirected one, summing the weights of (u,v) and (v,u).
func Fold(g *signed.Graph) *signed.Graph {
	if !g.Directed() {
		return g
	}
	return g.Undirected()
}
