package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/signed-louvain/backend/config"
	"github.com/gilchrisn/signed-louvain/backend/metrics"
	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/pkg/signed"
)

// ErrJobNotFinished is returned when results of a queued or running job are requested
var ErrJobNotFinished = errors.New("job has not completed")

// JobService runs signed Louvain jobs in the background
type JobService struct {
	jobs     map[string]*models.Job
	results  map[string]*signed.Result
	cancels  map[string]context.CancelFunc
	workers  chan struct{}
	datasets *DatasetService
	metrics  *metrics.Registry
	cfg      config.JobConfig
	logLevel string

	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
	mutex sync.RWMutex
}

// NewJobService creates a job service and starts its cleanup loop. logLevel
// is the level of the per-run algorithm logger.
func NewJobService(datasets *DatasetService, cfg config.JobConfig, m *metrics.Registry, logLevel string) *JobService {
	ctx, stop := context.WithCancel(context.Background())
	s := &JobService{
		jobs:     make(map[string]*models.Job),
		results:  make(map[string]*signed.Result),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, cfg.MaxWorkers),
		datasets: datasets,
		metrics:  m,
		cfg:      cfg,
		logLevel: logLevel,
		ctx:      ctx,
		stop:     stop,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Submit creates and queues a new clustering job
func (s *JobService) Submit(datasetID string, params models.JobParameters) (*models.Job, error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.datasets.Get(datasetID); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	jobID := uuid.New().String()
	now := time.Now()
	job := &models.Job{
		ID:         jobID,
		DatasetID:  datasetID,
		Parameters: params,
		Status:     models.JobStatusQueued,
		Progress: models.JobProgress{
			Percentage: 0,
			Message:    "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[jobID] = job

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.JobTimeout)
	s.cancels[jobID] = cancel

	log.Info().
		Str("job_id", jobID).
		Str("dataset_id", datasetID).
		Msg("Job submitted")

	s.wg.Add(1)
	go s.processJob(ctx, jobID)

	snapshot := *job
	return &snapshot, nil
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	snapshot := *job
	return &snapshot, nil
}

// GetResult retrieves the algorithm result of a completed job
func (s *JobService) GetResult(jobID string) (*signed.Result, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	result, exists := s.results[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s is %s: %w", jobID, job.Status, ErrJobNotFinished)
	}

	return result, nil
}

// List returns snapshots of all jobs for a dataset, oldest first
func (s *JobService) List(datasetID string) []*models.Job {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]*models.Job, 0)
	for _, job := range s.jobs {
		if job.DatasetID == datasetID {
			snapshot := *job
			jobs = append(jobs, &snapshot)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })

	return jobs
}

// Cancel stops a queued or running job. A running job stops before its next
// dendrogram level. Cancelling a finished job is a no-op.
func (s *JobService) Cancel(jobID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if job.Status.Finished() {
		return nil
	}

	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
	}
	now := time.Now()
	job.Status = models.JobStatusCancelled
	job.Progress.Message = "Cancelled"
	job.CompletedAt = &now
	job.UpdatedAt = now

	log.Info().
		Str("job_id", jobID).
		Msg("Job cancelled")

	return nil
}

// Close cancels every job and waits for the background goroutines
func (s *JobService) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *JobService) processJob(ctx context.Context, jobID string) {
	defer s.wg.Done()
	defer s.release(jobID)

	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		s.abortJob(jobID, ctx.Err())
		return
	}
	defer func() { <-s.workers }()

	s.metrics.JobsRunning.Inc()
	defer s.metrics.JobsRunning.Dec()

	startTime := time.Now()
	job, ok := s.startJob(jobID, startTime)
	if !ok {
		return
	}

	log.Info().
		Str("job_id", jobID).
		Str("dataset_id", job.DatasetID).
		Msg("Job processing started")

	g, err := s.datasets.Graph(job.DatasetID)
	if err != nil {
		s.failJob(jobID, fmt.Errorf("failed to get dataset: %w", err), startTime)
		return
	}

	cfg := signed.NewConfig()
	cfg.Set("logging.level", s.logLevel)
	job.Parameters.Apply(cfg)

	result, err := signed.Run(ctx, g, nil, cfg)
	switch {
	case err == nil:
		s.completeJob(jobID, result, startTime)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.abortJob(jobID, err)
	default:
		s.failJob(jobID, fmt.Errorf("algorithm execution failed: %w", err), startTime)
	}
}

// startJob moves a queued job to running and returns a snapshot of it. It
// reports false when the job was cancelled meanwhile.
func (s *JobService) startJob(jobID string, startTime time.Time) (models.Job, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status != models.JobStatusQueued {
		return models.Job{}, false
	}

	job.Status = models.JobStatusRunning
	job.Progress.Percentage = 10
	job.Progress.Message = "Running signed Louvain"
	job.StartedAt = &startTime
	job.UpdatedAt = startTime

	return *job, true
}

// completeJob marks a job as completed with results
func (s *JobService) completeJob(jobID string, result *signed.Result, startTime time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status != models.JobStatusRunning {
		return
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress.Percentage = 100
	job.Progress.Message = "Complete"
	job.CompletedAt = &now
	job.UpdatedAt = now
	job.Result = &models.JobResult{
		Objective:        result.Objective,
		NumLevels:        result.NumLevels(),
		NumCommunities:   result.Partition.Count(),
		ProcessingTimeMS: result.Statistics.RuntimeMS,
		Levels:           result.Levels,
		Statistics:       result.Statistics,
	}
	s.results[jobID] = result

	s.metrics.RecordJob(string(models.JobStatusCompleted), now.Sub(startTime))
	s.metrics.RecordResult(result.NumLevels(), result.Objective)

	log.Info().
		Str("job_id", jobID).
		Float64("objective", result.Objective).
		Int("levels", result.NumLevels()).
		Int("communities", job.Result.NumCommunities).
		Int64("processing_time_ms", result.Statistics.RuntimeMS).
		Msg("Job completed successfully")
}

// failJob marks a job as failed
func (s *JobService) failJob(jobID string, err error, startTime time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Finished() {
		return
	}

	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = err.Error()
	job.Progress.Message = "Failed"
	job.CompletedAt = &now
	job.UpdatedAt = now

	s.metrics.RecordJob(string(models.JobStatusFailed), now.Sub(startTime))

	log.Error().
		Str("job_id", jobID).
		Err(err).
		Msg("Job failed")
}

// abortJob records a context stop. Explicit cancellation already set the
// status; a timeout or shutdown marks the job failed.
func (s *JobService) abortJob(jobID string, cause error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return
	}

	now := time.Now()
	if !job.Status.Finished() {
		job.Status = models.JobStatusFailed
		job.Error = cause.Error()
		job.Progress.Message = "Aborted"
		job.CompletedAt = &now
		job.UpdatedAt = now
	}
	s.metrics.RecordJob(string(job.Status), now.Sub(job.CreatedAt))

	log.Warn().
		Str("job_id", jobID).
		Str("status", string(job.Status)).
		Err(cause).
		Msg("Job stopped")
}

func (s *JobService) release(jobID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
		delete(s.cancels, jobID)
	}
}

// cleanupLoop periodically cleans up old jobs and results
func (s *JobService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.ctx.Done():
			return
		}
	}
}

// cleanup removes finished jobs not updated within the result TTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.cfg.ResultTTL)
	cleaned := 0

	for jobID, job := range s.jobs {
		if job.Status.Finished() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			delete(s.results, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
	return cleaned
}
