package models

import (
	"time"

	"github.com/gilchrisn/signed-louvain/pkg/evaluation"
	"github.com/gilchrisn/signed-louvain/pkg/graphio"
	"github.com/gilchrisn/signed-louvain/pkg/output"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// Dataset represents an uploaded signed edge list
type Dataset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    DatasetStatus   `json:"status"`
	File      string          `json:"file"`
	Options   LoadOptions     `json:"options"`
	Metadata  DatasetMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type DatasetStatus string

const (
	DatasetStatusReady     DatasetStatus = "ready"
	DatasetStatusCorrupted DatasetStatus = "corrupted"
)

// LoadOptions are the parsing options sent with an upload
type LoadOptions struct {
	Separator        string  `json:"separator,omitempty" validate:"max=4"`
	Comment          string  `json:"comment,omitempty" validate:"max=4"`
	SkipRows         int     `json:"skipRows" validate:"gte=0"`
	NormalizerFactor float64 `json:"normalizerFactor" validate:"gte=0"`
	Unweighted       bool    `json:"unweighted"`
	Directed         bool    `json:"directed"`
}

// GraphOptions converts the upload options into loader options
func (o LoadOptions) GraphOptions() graphio.Options {
	opts := graphio.DefaultOptions()
	opts.Separator = o.Separator
	if o.Comment != "" {
		opts.Comment = o.Comment
	}
	opts.SkipRows = o.SkipRows
	if o.NormalizerFactor > 0 {
		opts.NormalizerFactor = o.NormalizerFactor
	}
	opts.Unweighted = o.Unweighted
	opts.Directed = o.Directed
	return opts
}

type DatasetMetadata struct {
	Graph    graphio.Summary `json:"graph"`
	FileSize int64           `json:"fileSize"`
}

// Job represents a clustering job
type Job struct {
	ID          string        `json:"id"`
	DatasetID   string        `json:"datasetId"`
	Parameters  JobParameters `json:"parameters"`
	Status      JobStatus     `json:"status"`
	Progress    JobProgress   `json:"progress"`
	Result      *JobResult    `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// JobParameters are the signed Louvain knobs of one job. Nil fields keep the
// algorithm defaults.
type JobParameters struct {
	Resolution *float64 `json:"resolution,omitempty" validate:"omitempty,gt=0"`
	Randomize  *bool    `json:"randomize,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`
	MaxLevels  *int     `json:"maxLevels,omitempty" validate:"omitempty,gte=-1"`
	MaxPasses  *int     `json:"maxPasses,omitempty" validate:"omitempty,gte=-1"`
}

// Apply writes the non-nil parameters into cfg
func (p JobParameters) Apply(cfg *signed.Config) {
	if p.Resolution != nil {
		cfg.Set("algorithm.resolution", *p.Resolution)
	}
	if p.Randomize != nil {
		cfg.Set("algorithm.randomize", *p.Randomize)
	}
	if p.Seed != nil {
		cfg.Set("algorithm.random_seed", *p.Seed)
	}
	if p.MaxLevels != nil {
		cfg.Set("algorithm.max_levels", *p.MaxLevels)
	}
	if p.MaxPasses != nil {
		cfg.Set("algorithm.max_passes", *p.MaxPasses)
	}
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the job reached a terminal state
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type JobProgress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type JobResult struct {
	Objective        float64             `json:"objective"`
	NumLevels        int                 `json:"numLevels"`
	NumCommunities   int                 `json:"numCommunities"`
	ProcessingTimeMS int64               `json:"processingTimeMS"`
	Levels           []signed.LevelStats `json:"levels"`
	Statistics       signed.Statistics   `json:"statistics"`
}

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type UploadResponse struct {
	DatasetID string  `json:"datasetId"`
	Dataset   Dataset `json:"dataset"`
}

type ClusteringResponse struct {
	JobID string `json:"jobId"`
	Job   Job    `json:"job"`
}

type HierarchyResponse struct {
	DatasetID string           `json:"datasetId"`
	JobID     string           `json:"jobId"`
	Hierarchy output.Hierarchy `json:"hierarchy"`
}

// LevelResponse is the partition of the original nodes at one dendrogram level
type LevelResponse struct {
	JobID       string           `json:"jobId"`
	Level       int              `json:"level"`
	Communities int              `json:"communities"`
	Partition   signed.Partition `json:"partition"`
}

type CommunityResponse struct {
	JobID       string          `json:"jobId"`
	Level       int             `json:"level"`
	CommunityID string          `json:"communityId"`
	Members     []signed.NodeID `json:"members"`
}

type EvaluationResponse struct {
	JobID  string             `json:"jobId"`
	Level  int                `json:"level"`
	Report *evaluation.Report `json:"report"`
}
