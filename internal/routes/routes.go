package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitstart-analyzer/internal/handlers"
)

// Handlers holds the handler set for route registration. Nil fields mean
// the backing service is unavailable and its routes are skipped.
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc

	Analysis   *handlers.AnalysisHandler
	Classifier *handlers.ClassifierHandler
	Issues     *handlers.IssueHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Main routes
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)

	// Complexity analysis
	if h.Analysis != nil {
		router.HandleFunc("/llm/health", h.Analysis.InsightHealth).Methods(http.MethodGet)
		router.HandleFunc("/api/v1/analyze/code", h.Analysis.AnalyzeCode).Methods(http.MethodPost)
	}

	// Issue classification
	if h.Classifier != nil {
		router.HandleFunc("/api/v1/issues/classify", h.Classifier.ClassifyIssue).Methods(http.MethodPost)
		router.HandleFunc("/api/v1/issues/features", h.Classifier.IssueFeatures).Methods(http.MethodPost)
		router.HandleFunc("/api/v1/classifier/train", h.Classifier.TrainClassifier).Methods(http.MethodPost)
		router.HandleFunc("/api/v1/jobs/{id}", h.Classifier.JobStatus).Methods(http.MethodGet)
	}

	// Issue storage and lookup
	if h.Issues != nil {
		router.HandleFunc("/api/v1/issues", h.Issues.ListIssues).Methods(http.MethodGet)
		router.HandleFunc("/api/v1/issues", h.Issues.CreateIssue).Methods(http.MethodPost)
		router.HandleFunc("/api/v1/issues/beginner", h.Issues.BeginnerIssues).Methods(http.MethodGet)
		router.HandleFunc("/api/v1/issues/similar", h.Issues.SimilarIssues).Methods(http.MethodPost)
	}
}
