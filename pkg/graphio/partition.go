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

// ReadPartition parses "node community" lines, the layout written by the
// output package. Blank lines and lines starting with # are skipped.
func ReadPartition(r io.Reader) (signed.Partition, error) {
	p := make(signed.Partition)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", lineNum, len(fields))
		}
		node, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid node %q: %w", lineNum, fields[0], err)
		}
		com, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid community %q: %w", lineNum, fields[1], err)
		}
		if _, dup := p[signed.NodeID(node)]; dup {
			return nil, fmt.Errorf("line %d: node %d assigned twice", lineNum, node)
		}
		p[signed.NodeID(node)] = signed.NodeID(com)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}
	return p, nil
}

// LoadPartition reads a partition file
func LoadPartition(path string) (signed.Partition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open partition: %w", err)
	}
	defer file.Close()

	p, err := ReadPartition(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
