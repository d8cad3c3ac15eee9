// Package output writes signed Louvain results to disk.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// Writer interface for flexible output generation
type Writer interface {
	WritePartition(p signed.Partition, path string) error
	WriteCommunities(result *signed.Result, path string) error
	WriteHierarchy(result *signed.Result, path string) error
	WriteRoot(result *signed.Result, path string) error
	WriteEdgeList(g *signed.Graph, path string) error
	WriteAll(result *signed.Result, g *signed.Graph, outputDir string, prefix string) error
}

// FileWriter implements Writer for file-based output
type FileWriter struct{}

// NewFileWriter creates a new file-based output writer
func NewFileWriter() Writer {
	return &FileWriter{}
}

// CommunityID names community com of dendrogram level (0-based) the way every
// file of one run refers to it.
func CommunityID(level int, com signed.NodeID) string {
	return fmt.Sprintf("c0_l%d_%d", level+1, com)
}

// WriteAll writes all output files
func (fw *FileWriter) WriteAll(result *signed.Result, g *signed.Graph, outputDir string, prefix string) error {
	if len(result.Dendrogram) == 0 {
		return fmt.Errorf("result has no dendrogram levels")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := func(ext string) string {
		return filepath.Join(outputDir, fmt.Sprintf("%s.%s", prefix, ext))
	}

	if err := fw.WritePartition(result.Partition, path("partition")); err != nil {
		return fmt.Errorf("failed to write partition: %w", err)
	}
	if err := fw.WriteCommunities(result, path("mapping")); err != nil {
		return fmt.Errorf("failed to write mapping: %w", err)
	}
	if err := fw.WriteHierarchy(result, path("hierarchy.yaml")); err != nil {
		return fmt.Errorf("failed to write hierarchy: %w", err)
	}
	if err := fw.WriteRoot(result, path("root")); err != nil {
		return fmt.Errorf("failed to write root: %w", err)
	}

	contracted, err := signed.InducedGraph(result.Partition, g)
	if err != nil {
		return fmt.Errorf("failed to contract graph: %w", err)
	}
	if err := fw.WriteEdgeList(contracted, path("edges")); err != nil {
		return fmt.Errorf("failed to write edges: %w", err)
	}
	return nil
}

// writeFile creates path and hands a buffered writer to fill
func writeFile(path string, fill func(w *bufio.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := fill(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func sortedNodes(ids []signed.NodeID) []signed.NodeID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WritePartition writes one "node community" line per node, sorted by node
func (fw *FileWriter) WritePartition(p signed.Partition, path string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		return writePartition(w, p)
	})
}

func writePartition(w io.Writer, p signed.Partition) error {
	nodes := make([]signed.NodeID, 0, len(p))
	for node := range p {
		nodes = append(nodes, node)
	}
	for _, node := range sortedNodes(nodes) {
		if _, err := fmt.Fprintf(w, "%d %d\n", node, p[node]); err != nil {
			return err
		}
	}
	return nil
}

// WriteCommunities writes the final communities with their original nodes:
// the community id, the member count, then one member per line.
func (fw *FileWriter) WriteCommunities(result *signed.Result, path string) error {
	top := len(result.Dendrogram) - 1
	members := result.Partition.Communities()

	coms := make([]signed.NodeID, 0, len(members))
	for com := range members {
		coms = append(coms, com)
	}

	return writeFile(path, func(w *bufio.Writer) error {
		for _, com := range sortedNodes(coms) {
			fmt.Fprintf(w, "%s\n%d\n", CommunityID(top, com), len(members[com]))
			for _, node := range members[com] {
				fmt.Fprintf(w, "%d\n", node)
			}
		}
		return nil
	})
}

// WriteRoot writes the ids of the top-level communities
func (fw *FileWriter) WriteRoot(result *signed.Result, path string) error {
	top := len(result.Dendrogram) - 1
	coms := make([]signed.NodeID, 0)
	for com := range result.Partition.Communities() {
		coms = append(coms, com)
	}

	return writeFile(path, func(w *bufio.Writer) error {
		for _, com := range sortedNodes(coms) {
			fmt.Fprintf(w, "%s\n", CommunityID(top, com))
		}
		return nil
	})
}

// WriteEdgeList writes "from to weight" lines in edge insertion order
func (fw *FileWriter) WriteEdgeList(g *signed.Graph, path string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		for _, e := range g.Edges() {
			fmt.Fprintf(w, "%d %d %s\n", e.From, e.To, strconv.FormatFloat(e.Weight, 'g', -1, 64))
		}
		return nil
	})
}

// Hierarchy is the YAML document written by WriteHierarchy
type Hierarchy struct {
	Objective float64          `json:"objective" yaml:"objective"`
	Levels    []HierarchyLevel `json:"levels" yaml:"levels"`
}

// HierarchyLevel is one retained dendrogram level. Parents maps every node of
// the level to its community.
type HierarchyLevel struct {
	Level              int                             `json:"level" yaml:"level"`
	Nodes              int                             `json:"nodes" yaml:"nodes"`
	Communities        int                             `json:"communities" yaml:"communities"`
	Objective          float64                         `json:"objective" yaml:"objective"`
	PositiveModularity float64                         `json:"positive_modularity" yaml:"positive_modularity"`
	NegativeModularity float64                         `json:"negative_modularity" yaml:"negative_modularity"`
	Parents            map[signed.NodeID]signed.NodeID `json:"parents" yaml:"parents"`
}

// BuildHierarchy collects the retained levels of result
func BuildHierarchy(result *signed.Result) Hierarchy {
	h := Hierarchy{Objective: result.Objective, Levels: make([]HierarchyLevel, 0, len(result.Dendrogram))}

	stats := make(map[int]signed.LevelStats, len(result.Levels))
	for _, s := range result.Levels {
		if s.Retained {
			stats[s.Level] = s
		}
	}

	for level, p := range result.Dendrogram {
		s := stats[level]
		h.Levels = append(h.Levels, HierarchyLevel{
			Level:              level,
			Nodes:              len(p),
			Communities:        p.Count(),
			Objective:          s.Objective,
			PositiveModularity: s.PositiveModularity,
			NegativeModularity: s.NegativeModularity,
			Parents:            p,
		})
	}
	return h
}

// WriteHierarchy writes every dendrogram level as YAML
func (fw *FileWriter) WriteHierarchy(result *signed.Result, path string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(BuildHierarchy(result)); err != nil {
			return err
		}
		return enc.Close()
	})
}

// ReadHierarchy parses a file written by WriteHierarchy back into a dendrogram
func ReadHierarchy(path string) (signed.Dendrogram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h Hierarchy
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode hierarchy: %w", err)
	}
	d := make(signed.Dendrogram, 0, len(h.Levels))
	for _, level := range h.Levels {
		d = append(d, signed.Partition(level.Parents))
	}
	return d, nil
}
