package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/signed-louvain/backend/metrics"
	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/pkg/graphio"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

var (
	// ErrNotFound is wrapped by every lookup of an unknown dataset or job
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is wrapped by validation failures of caller input
	ErrInvalidInput = errors.New("invalid input")
)

var validate = validator.New()

// DatasetService stores uploaded edge lists and their parsed graphs
type DatasetService struct {
	datasets  map[string]*models.Dataset
	graphs    map[string]*signed.Graph
	uploadDir string
	metrics   *metrics.Registry
	mutex     sync.RWMutex
}

// NewDatasetService creates a new dataset service
func NewDatasetService(uploadDir string, m *metrics.Registry) *DatasetService {
	return &DatasetService{
		datasets:  make(map[string]*models.Dataset),
		graphs:    make(map[string]*signed.Graph),
		uploadDir: uploadDir,
		metrics:   m,
	}
}

// Upload stores the edge list read from r and parses it with opts. A file
// that does not parse is rejected and nothing is kept.
func (s *DatasetService) Upload(name string, r io.Reader, opts models.LoadOptions) (*models.Dataset, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	datasetID := uuid.New().String()
	if name == "" {
		name = datasetID
	}

	log.Info().
		Str("dataset_id", datasetID).
		Str("name", name).
		Msg("Starting dataset upload")

	datasetDir := filepath.Join(s.uploadDir, datasetID)
	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(datasetDir, "graph.txt")
	size, err := saveFile(r, path)
	if err != nil {
		os.RemoveAll(datasetDir)
		return nil, err
	}

	g, err := graphio.LoadEdgeList(path, opts.GraphOptions())
	if err != nil {
		os.RemoveAll(datasetDir)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// the summary counts arcs, jobs run on the folded graph
	summary := graphio.Summarize(g)
	g = graphio.Fold(g)

	now := time.Now()
	dataset := &models.Dataset{
		ID:      datasetID,
		Name:    name,
		Status:  models.DatasetStatusReady,
		File:    path,
		Options: opts,
		Metadata: models.DatasetMetadata{
			Graph:    summary,
			FileSize: size,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.datasets[datasetID] = dataset
	s.graphs[datasetID] = g
	count := len(s.datasets)
	s.mutex.Unlock()

	s.metrics.DatasetsTotal.Set(float64(count))
	s.metrics.DatasetNodes.Observe(float64(g.NumNodes()))

	log.Info().
		Str("dataset_id", datasetID).
		Int("nodes", dataset.Metadata.Graph.Nodes).
		Int("edges", dataset.Metadata.Graph.Edges).
		Int("negative_edges", dataset.Metadata.Graph.NegativeEdges).
		Int64("size_bytes", size).
		Msg("Dataset upload complete")

	return dataset, nil
}

// Get retrieves a dataset by ID
func (s *DatasetService) Get(datasetID string) (*models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	dataset, exists := s.datasets[datasetID]
	if !exists {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}

	return dataset, nil
}

// Graph returns the parsed graph of a dataset
func (s *DatasetService) Graph(datasetID string) (*signed.Graph, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	g, exists := s.graphs[datasetID]
	if !exists {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}

	return g, nil
}

// List returns all datasets, oldest first
func (s *DatasetService) List() []*models.Dataset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	datasets := make([]*models.Dataset, 0, len(s.datasets))
	for _, dataset := range s.datasets {
		datasets = append(datasets, dataset)
	}
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].CreatedAt.Before(datasets[j].CreatedAt)
	})

	return datasets
}

// Delete removes a dataset and its files
func (s *DatasetService) Delete(datasetID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dataset, exists := s.datasets[datasetID]
	if !exists {
		return fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}

	if err := os.RemoveAll(filepath.Dir(dataset.File)); err != nil {
		log.Warn().
			Str("dataset_id", datasetID).
			Err(err).
			Msg("Failed to remove dataset files")
	}

	delete(s.datasets, datasetID)
	delete(s.graphs, datasetID)
	s.metrics.DatasetsTotal.Set(float64(len(s.datasets)))

	log.Info().
		Str("dataset_id", datasetID).
		Msg("Dataset deleted")

	return nil
}

func saveFile(r io.Reader, destPath string) (int64, error) {
	destFile, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	n, err := io.Copy(destFile, r)
	if err != nil {
		return 0, fmt.Errorf("failed to copy file contents: %w", err)
	}
	return n, nil
}
