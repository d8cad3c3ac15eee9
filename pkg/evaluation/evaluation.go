// Package evaluation scores partitions of signed graphs for reporting.
package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// SignedModularity computes the Gomez-Jensen-Arenas signed modularity
//
//	Q = Σ_c [(2in⁺_c − K⁺_c²/2m⁺) − (2in⁻_c − K⁻_c²/2m⁻)] / (2m⁺ + 2m⁻)
//
// where in is the internal weight, K the summed degree of community c and m
// the total weight of one sign. The null term of a sign with no mass is zero.
func SignedModularity(g *signed.Graph, p signed.Partition) (float64, error) {
	if g.Directed() {
		return 0, fmt.Errorf("signed modularity: %w", signed.ErrUnsupportedGraphKind)
	}
	if err := p.Covers(g); err != nil {
		return 0, fmt.Errorf("signed modularity: %w", err)
	}

	posIn := make(map[signed.NodeID]float64)
	negIn := make(map[signed.NodeID]float64)
	posDeg := make(map[signed.NodeID]float64)
	negDeg := make(map[signed.NodeID]float64)
	var posTotal, negTotal float64

	for _, e := range g.Edges() {
		w := math.Abs(e.Weight)
		in, deg := posIn, posDeg
		if e.Weight < 0 {
			in, deg = negIn, negDeg
			negTotal += w
		} else {
			posTotal += w
		}
		deg[p[e.From]] += w
		deg[p[e.To]] += w
		if p[e.From] == p[e.To] {
			in[p[e.From]] += w
		}
	}

	if posTotal+negTotal == 0 {
		return 0, fmt.Errorf("signed modularity: %w", signed.ErrDegenerateGraph)
	}

	terms := make([]float64, 0, 2*len(posDeg))
	for _, com := range communitiesOf(p) {
		term := 2*posIn[com] - 2*negIn[com]
		if posTotal > 0 {
			term -= posDeg[com] * posDeg[com] / (2 * posTotal)
		}
		if negTotal > 0 {
			term += negDeg[com] * negDeg[com] / (2 * negTotal)
		}
		terms = append(terms, term)
	}
	return floats.Sum(terms) / (2*posTotal + 2*negTotal), nil
}

// Frustration measures how far a partition is from a perfectly balanced one
type Frustration struct {
	// NegativeInside is the magnitude of negative weight within communities.
	NegativeInside float64 `json:"negative_inside" yaml:"negative_inside"`
	// PositiveAcross is the positive weight between communities.
	PositiveAcross float64 `json:"positive_across" yaml:"positive_across"`
	Total          float64 `json:"total" yaml:"total"`
	// Ratio is Total over the absolute weight of the graph.
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// ComputeFrustration sums the edge weight that disagrees with p
func ComputeFrustration(g *signed.Graph, p signed.Partition) (Frustration, error) {
	if err := p.Covers(g); err != nil {
		return Frustration{}, fmt.Errorf("frustration: %w", err)
	}

	var f Frustration
	absolute := 0.0
	for _, e := range g.Edges() {
		absolute += math.Abs(e.Weight)
		same := p[e.From] == p[e.To]
		switch {
		case e.Weight < 0 && same:
			f.NegativeInside -= e.Weight
		case e.Weight > 0 && !same:
			f.PositiveAcross += e.Weight
		}
	}
	f.Total = f.NegativeInside + f.PositiveAcross
	if absolute > 0 {
		f.Ratio = f.Total / absolute
	}
	return f, nil
}

// ClusterStats summarizes community sizes
type ClusterStats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Max  int     `json:"max" yaml:"max"`
	Min  int     `json:"min" yaml:"min"`
	Std  float64 `json:"std" yaml:"std"`
}

// SizeStats computes statistics over the community sizes of p
func SizeStats(p signed.Partition) ClusterStats {
	members := p.Communities()
	if len(members) == 0 {
		return ClusterStats{}
	}

	sizes := make([]float64, 0, len(members))
	for _, nodes := range members {
		sizes = append(sizes, float64(len(nodes)))
	}
	mean, std := stat.PopMeanStdDev(sizes, nil)
	return ClusterStats{
		Mean: math.Round(mean*100) / 100,
		Max:  int(floats.Max(sizes)),
		Min:  int(floats.Min(sizes)),
		Std:  math.Round(std*100) / 100,
	}
}

// Report is the evaluation summary of one run
type Report struct {
	Nodes            int          `json:"nodes" yaml:"nodes"`
	Edges            int          `json:"edges" yaml:"edges"`
	Levels           int          `json:"levels" yaml:"levels"`
	Communities      int          `json:"communities" yaml:"communities"`
	Sizes            ClusterStats `json:"sizes" yaml:"sizes"`
	Objective        float64      `json:"objective" yaml:"objective"`
	SignedModularity float64      `json:"signed_modularity" yaml:"signed_modularity"`
	// Modularity is the classical score of the positive edges. It is absent
	// when the graph has no positive weight.
	Modularity  *float64    `json:"modularity,omitempty" yaml:"modularity,omitempty"`
	Frustration Frustration `json:"frustration" yaml:"frustration"`
}

// BuildReport evaluates the final partition of result on g
func BuildReport(g *signed.Graph, result *signed.Result) (*Report, error) {
	return BuildReportForPartition(g, result.Partition, result.NumLevels(), result.Objective)
}

// BuildReportForPartition evaluates any partition of g, for instance an
// intermediate dendrogram level.
func BuildReportForPartition(g *signed.Graph, p signed.Partition, levels int, objective float64) (*Report, error) {
	report := &Report{
		Nodes:       g.NumNodes(),
		Edges:       g.NumEdges(),
		Levels:      levels,
		Communities: p.Count(),
		Sizes:       SizeStats(p),
		Objective:   objective,
	}

	var err error
	report.Frustration, err = ComputeFrustration(g, p)
	if err != nil {
		return nil, err
	}

	report.SignedModularity, err = SignedModularity(g, p)
	switch {
	case errors.Is(err, signed.ErrDegenerateGraph):
		report.SignedModularity = 0
	case err != nil:
		return nil, err
	}

	q, err := signed.Modularity(g, p)
	switch {
	case err == nil:
		report.Modularity = &q
	case !errors.Is(err, signed.ErrDegenerateGraph):
		return nil, err
	}
	return report, nil
}

func communitiesOf(p signed.Partition) []signed.NodeID {
	seen := make(map[signed.NodeID]struct{})
	out := make([]signed.NodeID, 0)
	for _, com := range p {
		if _, ok := seen[com]; !ok {
			seen[com] = struct{}{}
			out = append(out, com)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
