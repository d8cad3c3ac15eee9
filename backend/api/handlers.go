package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/signed-louvain/backend/models"
	"github.com/gilchrisn/signed-louvain/backend/service"
	"github.com/gilchrisn/signed-louvain/backend/utils"
)

const version = "1.0.0"

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService    *service.DatasetService
	clusteringService *service.ClusteringService
	jobService        *service.JobService
	maxUploadSize     int64
}

// NewHandlers creates new API handlers
func NewHandlers(datasetService *service.DatasetService, clusteringService *service.ClusteringService, jobService *service.JobService, maxUploadSize int64) *Handlers {
	return &Handlers{
		datasetService:    datasetService,
		clusteringService: clusteringService,
		jobService:        jobService,
		maxUploadSize:     maxUploadSize,
	}
}

// writeServiceError maps service errors onto status codes
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrJobNotFinished):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(message)
	}
	utils.WriteErrorResponse(w, status, message, err)
}

// uploadOptions reads the parsing options sent next to the graph file
func uploadOptions(r *http.Request) (models.LoadOptions, error) {
	opts := models.LoadOptions{
		Separator: r.FormValue("separator"),
		Comment:   r.FormValue("comment"),
	}

	var err error
	if v := r.FormValue("skipRows"); v != "" {
		if opts.SkipRows, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("skipRows: %w", err)
		}
	}
	if v := r.FormValue("normalizerFactor"); v != "" {
		if opts.NormalizerFactor, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, fmt.Errorf("normalizerFactor: %w", err)
		}
	}
	if v := r.FormValue("unweighted"); v != "" {
		if opts.Unweighted, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("unweighted: %w", err)
		}
	}
	if v := r.FormValue("directed"); v != "" {
		if opts.Directed, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("directed: %w", err)
		}
	}
	return opts, nil
}

// UploadDataset handles dataset upload
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("graphFile")
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing required file: graphFile", err)
		return
	}
	defer file.Close()

	opts, err := uploadOptions(r)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid upload options", err)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	dataset, err := h.datasetService.Upload(name, file, opts)
	if err != nil {
		writeServiceError(w, "Dataset upload failed", err)
		return
	}

	response := models.UploadResponse{
		DatasetID: dataset.ID,
		Dataset:   *dataset,
	}
	utils.WriteStatusResponse(w, http.StatusCreated, "Dataset uploaded successfully", response)
}

// ListDatasets handles listing all datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Datasets retrieved", h.datasetService.List())
}

// GetDataset handles getting a specific dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasetService.Get(mux.Vars(r)["datasetId"])
	if err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Dataset retrieved", dataset)
}

// DeleteDataset handles dataset deletion
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	for _, job := range h.jobService.List(datasetID) {
		if !job.Status.Finished() {
			utils.WriteErrorResponse(w, http.StatusConflict, "Dataset has active jobs", fmt.Errorf("job %s is %s", job.ID, job.Status))
			return
		}
	}

	if err := h.datasetService.Delete(datasetID); err != nil {
		writeServiceError(w, "Failed to delete dataset", err)
		return
	}
	utils.WriteSuccessResponse(w, "Dataset deleted", nil)
}

// StartClustering handles starting a signed Louvain job
func (h *Handlers) StartClustering(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var req struct {
		Parameters models.JobParameters `json:"parameters"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	job, err := h.jobService.Submit(datasetID, req.Parameters)
	if err != nil {
		writeServiceError(w, "Failed to start clustering", err)
		return
	}

	response := models.ClusteringResponse{
		JobID: job.ID,
		Job:   *job,
	}
	utils.WriteStatusResponse(w, http.StatusAccepted, "Clustering job started", response)
}

// ListClusteringJobs lists the jobs of a dataset
func (h *Handlers) ListClusteringJobs(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]
	if _, err := h.datasetService.Get(datasetID); err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Jobs retrieved", h.jobService.List(datasetID))
}

// GetClusteringJob handles getting a clustering job of a dataset
func (h *Handlers) GetClusteringJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.jobService.Get(vars["jobId"])
	if err == nil && job.DatasetID != vars["datasetId"] {
		err = fmt.Errorf("job %s on dataset %s: %w", vars["jobId"], vars["datasetId"], service.ErrNotFound)
	}
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job retrieved", job)
}

// CancelClusteringJob handles cancelling a clustering job
func (h *Handlers) CancelClusteringJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.jobService.Get(vars["jobId"])
	if err == nil && job.DatasetID != vars["datasetId"] {
		err = fmt.Errorf("job %s on dataset %s: %w", vars["jobId"], vars["datasetId"], service.ErrNotFound)
	}
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	h.CancelJob(w, r)
}

// GetFullHierarchy returns every dendrogram level of a job
func (h *Handlers) GetFullHierarchy(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hierarchy, err := h.clusteringService.Hierarchy(vars["datasetId"], vars["jobId"])
	if err != nil {
		writeServiceError(w, "Failed to get hierarchy", err)
		return
	}
	utils.WriteSuccessResponse(w, "Hierarchy retrieved", hierarchy)
}

// GetHierarchyLevel returns the partition of the original nodes at one level
func (h *Handlers) GetHierarchyLevel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := strconv.Atoi(vars["level"])
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid level", err)
		return
	}

	resp, err := h.clusteringService.Level(vars["datasetId"], vars["jobId"], level)
	if err != nil {
		writeServiceError(w, "Failed to get hierarchy level", err)
		return
	}
	utils.WriteSuccessResponse(w, "Hierarchy level retrieved", resp)
}

// GetCommunityNodes returns the members of one community
func (h *Handlers) GetCommunityNodes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := utils.IntQuery(r, "level", 0)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid level", err)
		return
	}

	resp, err := h.clusteringService.Community(vars["datasetId"], vars["jobId"], level, vars["communityId"])
	if err != nil {
		writeServiceError(w, "Failed to get community", err)
		return
	}
	utils.WriteSuccessResponse(w, "Community retrieved", resp)
}

// GetEvaluation returns the quality report of a job at a level
func (h *Handlers) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := utils.IntQuery(r, "level", -1)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid level", err)
		return
	}

	resp, err := h.clusteringService.Evaluate(vars["datasetId"], vars["jobId"], level)
	if err != nil {
		writeServiceError(w, "Failed to evaluate job", err)
		return
	}
	utils.WriteSuccessResponse(w, "Evaluation computed", resp)
}

// CreateComparison compares the final partitions of two jobs
func (h *Handlers) CreateComparison(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobA string `json:"jobA"`
		JobB string `json:"jobB"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobA == "" || req.JobB == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Request needs jobA and jobB", err)
		return
	}

	comparison, err := h.clusteringService.Compare(req.JobA, req.JobB)
	if err != nil {
		writeServiceError(w, "Comparison failed", err)
		return
	}
	utils.WriteSuccessResponse(w, "Comparison computed", comparison)
}

// GetJob handles getting job status
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobService.Get(mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job retrieved", job)
}

// CancelJob handles job cancellation
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	if err := h.jobService.Cancel(jobID); err != nil {
		writeServiceError(w, "Failed to cancel job", err)
		return
	}
	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	utils.WriteSuccessResponse(w, "Job cancelled", job)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
		"datasets":  len(h.datasetService.List()),
	}
	utils.WriteSuccessResponse(w, "Service is healthy", health)
}
