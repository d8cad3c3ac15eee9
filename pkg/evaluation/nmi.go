package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// ComparisonMetrics represents the result of comparing two partitions
type ComparisonMetrics struct {
	NMI           float64                 `json:"nmi" yaml:"nmi"`
	ClusterCounts map[string]int          `json:"clusterCounts" yaml:"cluster_counts"`
	ClusterSizes  map[string]ClusterStats `json:"clusterSizeStats" yaml:"cluster_sizes"`
	Similarity    string                  `json:"similarity" yaml:"similarity"`
}

// NMI calculates the normalized mutual information of two partitions of the
// same nodes, normalized by the mean entropy. Two single-community partitions
// score 1.
func NMI(a, b signed.Partition) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("partitions cover %d and %d nodes", len(a), len(b))
	}
	n := len(a)
	if n == 0 {
		return 0, nil
	}

	type pair struct{ x, y signed.NodeID }
	joint := make(map[pair]int)
	countA := make(map[signed.NodeID]int)
	countB := make(map[signed.NodeID]int)
	for node, x := range a {
		y, ok := b[node]
		if !ok {
			return 0, fmt.Errorf("node %d missing from second partition: %w", node, signed.ErrInvalidPartition)
		}
		joint[pair{x, y}]++
		countA[x]++
		countB[y]++
	}

	total := float64(n)
	mi := 0.0
	for k, nij := range joint {
		ni, nj := float64(countA[k.x]), float64(countB[k.y])
		mi += float64(nij) / total * math.Log(float64(nij)*total/(ni*nj))
	}

	avgEntropy := (entropy(countA, total) + entropy(countB, total)) / 2
	if avgEntropy == 0 {
		return 1, nil
	}
	return mi / avgEntropy, nil
}

func entropy(counts map[signed.NodeID]int, total float64) float64 {
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		p = append(p, float64(c)/total)
	}
	return stat.Entropy(p)
}

// Compare reports NMI and size statistics of two labelled partitions
func Compare(nameA string, a signed.Partition, nameB string, b signed.Partition) (*ComparisonMetrics, error) {
	nmi, err := NMI(a, b)
	if err != nil {
		return nil, err
	}

	similarity := "Low"
	if nmi > 0.7 {
		similarity = "High"
	} else if nmi > 0.4 {
		similarity = "Moderate"
	}

	return &ComparisonMetrics{
		NMI:           nmi,
		ClusterCounts: map[string]int{nameA: a.Count(), nameB: b.Count()},
		ClusterSizes:  map[string]ClusterStats{nameA: SizeStats(a), nameB: SizeStats(b)},
		Similarity:    similarity,
	}, nil
}
