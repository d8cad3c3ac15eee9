package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gilchrisn/signed-louvain/backend/metrics"
)

// NewRouter builds the full HTTP handler: routes, middleware and CORS
func NewRouter(handlers *Handlers, m *metrics.Registry, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)
	router.Handle("/metrics", m.Handler()).Methods("GET")

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(MetricsMiddleware(m))

	return CORS(allowedOrigins).Handler(router)
}

func SetupRoutes(router *mux.Router, handlers *Handlers) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods("GET")
	datasets.HandleFunc("", handlers.UploadDataset).Methods("POST")
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods("GET")
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods("DELETE")

	// Clustering endpoints
	clustering := datasets.PathPrefix("/{datasetId}/clustering").Subrouter()
	clustering.HandleFunc("", handlers.StartClustering).Methods("POST")
	clustering.HandleFunc("", handlers.ListClusteringJobs).Methods("GET")
	clustering.HandleFunc("/{jobId}", handlers.GetClusteringJob).Methods("GET")
	clustering.HandleFunc("/{jobId}", handlers.CancelClusteringJob).Methods("DELETE")

	// Hierarchy data endpoints
	hierarchy := datasets.PathPrefix("/{datasetId}/hierarchy").Subrouter()
	hierarchy.HandleFunc("", handlers.GetFullHierarchy).Methods("GET").Queries("jobId", "{jobId}")
	hierarchy.HandleFunc("/levels/{level:[0-9]+}", handlers.GetHierarchyLevel).Methods("GET").Queries("jobId", "{jobId}")

	// Community drill-down endpoints
	communities := datasets.PathPrefix("/{datasetId}/communities").Subrouter()
	communities.HandleFunc("/{communityId}/nodes", handlers.GetCommunityNodes).Methods("GET").Queries("jobId", "{jobId}")

	// Evaluation report
	datasets.HandleFunc("/{datasetId}/evaluation", handlers.GetEvaluation).Methods("GET").Queries("jobId", "{jobId}")

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}/cancel", handlers.CancelJob).Methods("POST")

	// Comparison of two jobs
	api.HandleFunc("/comparisons", handlers.CreateComparison).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}
