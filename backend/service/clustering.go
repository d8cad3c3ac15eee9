package service

import (
	"fmt"
	"strconv"

	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/pkg/evaluation"
	"github.com/gilchrisn/signed-louvain/pkg/output"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// ClusteringService answers queries on completed jobs
type ClusteringService struct {
	datasets *DatasetService
	jobs     *JobService
}

// NewClusteringService creates a new clustering service
func NewClusteringService(datasets *DatasetService, jobs *JobService) *ClusteringService {
	return &ClusteringService{datasets: datasets, jobs: jobs}
}

// result returns the result of jobID after checking it belongs to datasetID
func (s *ClusteringService) result(datasetID, jobID string) (*signed.Result, error) {
	job, err := s.jobs.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.DatasetID != datasetID {
		return nil, fmt.Errorf("job %s on dataset %s: %w", jobID, datasetID, ErrNotFound)
	}
	return s.jobs.GetResult(jobID)
}

// Hierarchy returns every retained level of a completed job
func (s *ClusteringService) Hierarchy(datasetID, jobID string) (*models.HierarchyResponse, error) {
	result, err := s.result(datasetID, jobID)
	if err != nil {
		return nil, err
	}
	return &models.HierarchyResponse{
		DatasetID: datasetID,
		JobID:     jobID,
		Hierarchy: output.BuildHierarchy(result),
	}, nil
}

// Level projects the dendrogram of a completed job down to the original nodes
func (s *ClusteringService) Level(datasetID, jobID string, level int) (*models.LevelResponse, error) {
	result, err := s.result(datasetID, jobID)
	if err != nil {
		return nil, err
	}
	p, err := signed.PartitionAtLevel(result.Dendrogram, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &models.LevelResponse{
		JobID:       jobID,
		Level:       level,
		Communities: p.Count(),
		Partition:   p,
	}, nil
}

// Community lists the original nodes of one community at a level. The id is
// either the numeric community or the label written by the output package.
func (s *ClusteringService) Community(datasetID, jobID string, level int, communityID string) (*models.CommunityResponse, error) {
	lr, err := s.Level(datasetID, jobID, level)
	if err != nil {
		return nil, err
	}

	com, err := parseCommunityID(level, communityID)
	if err != nil {
		return nil, err
	}
	members, ok := lr.Partition.Communities()[com]
	if !ok {
		return nil, fmt.Errorf("community %s at level %d: %w", communityID, level, ErrNotFound)
	}

	return &models.CommunityResponse{
		JobID:       jobID,
		Level:       level,
		CommunityID: output.CommunityID(level, com),
		Members:     members,
	}, nil
}

func parseCommunityID(level int, id string) (signed.NodeID, error) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return signed.NodeID(n), nil
	}
	var l int
	var n int64
	if _, err := fmt.Sscanf(id, "c0_l%d_%d", &l, &n); err != nil || l != level+1 {
		return 0, fmt.Errorf("%w: community id %q", ErrInvalidInput, id)
	}
	return signed.NodeID(n), nil
}

// Evaluate reports the quality of the partition at a level. A negative level
// selects the last one.
func (s *ClusteringService) Evaluate(datasetID, jobID string, level int) (*models.EvaluationResponse, error) {
	result, err := s.result(datasetID, jobID)
	if err != nil {
		return nil, err
	}
	g, err := s.datasets.Graph(datasetID)
	if err != nil {
		return nil, err
	}

	if level < 0 {
		level = len(result.Dendrogram) - 1
	}
	p, err := signed.PartitionAtLevel(result.Dendrogram, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	objective := result.Objective
	if level != len(result.Dendrogram)-1 {
		if objective, err = signed.Objective(g, p); err != nil {
			return nil, err
		}
	}
	report, err := evaluation.BuildReportForPartition(g, p, level+1, objective)
	if err != nil {
		return nil, err
	}

	return &models.EvaluationResponse{JobID: jobID, Level: level, Report: report}, nil
}

// Compare scores the final partitions of two completed jobs on the same dataset
func (s *ClusteringService) Compare(jobA, jobB string) (*evaluation.ComparisonMetrics, error) {
	a, err := s.jobs.Get(jobA)
	if err != nil {
		return nil, err
	}
	b, err := s.jobs.Get(jobB)
	if err != nil {
		return nil, err
	}
	if a.DatasetID != b.DatasetID {
		return nil, fmt.Errorf("%w: jobs %s and %s ran on different datasets", ErrInvalidInput, jobA, jobB)
	}

	ra, err := s.jobs.GetResult(jobA)
	if err != nil {
		return nil, err
	}
	rb, err := s.jobs.GetResult(jobB)
	if err != nil {
		return nil, err
	}
	return evaluation.Compare(jobA, ra.Partition, jobB, rb.Partition)
}
