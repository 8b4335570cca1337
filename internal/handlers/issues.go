package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"gitstart-analyzer/internal/models"
	"gitstart-analyzer/internal/repositories"
	"gitstart-analyzer/internal/services"
)

const defaultIssueLimit = 20

// IssueHandler serves database-backed issue listing, creation, and
// similarity lookup
type IssueHandler struct {
	issueRepo  repositories.IssueRepository
	vectorRepo repositories.VectorRepository
	classifier *services.IssueClassifier
	logger     *log.Logger
}

// NewIssueHandler creates a new issue handler. vectorRepo may be nil when
// ChromaDB is unavailable; similarity lookup degrades then.
func NewIssueHandler(issueRepo repositories.IssueRepository, vectorRepo repositories.VectorRepository, classifier *services.IssueClassifier, logger *log.Logger) *IssueHandler {
	return &IssueHandler{
		issueRepo:  issueRepo,
		vectorRepo: vectorRepo,
		classifier: classifier,
		logger:     logger,
	}
}

// ListIssues godoc
// @Summary List issues
// @Description Returns stored issues, newest first
// @Tags issues
// @Produce json
// @Param limit query int false "Maximum issues to return" default(20)
// @Success 200 {array} models.Issue
// @Failure 500 {object} models.BasicResponse
// @Router /api/v1/issues [get]
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueRepo.List(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load issues: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// BeginnerIssues godoc
// @Summary Get beginner-friendly issues
// @Description Returns stored issues classified as beginner difficulty
// @Tags issues
// @Produce json
// @Param limit query int false "Maximum issues to return" default(20)
// @Success 200 {array} models.Issue
// @Failure 500 {object} models.BasicResponse
// @Router /api/v1/issues/beginner [get]
func (h *IssueHandler) BeginnerIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issueRepo.ListByDifficulty(r.Context(), models.Beginner, parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load issues: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// CreateIssue godoc
// @Summary Create an issue
// @Description Stores an issue, classifying its difficulty when none is given and indexing it for similarity search
// @Tags issues
// @Accept json
// @Produce json
// @Param issue body models.Issue true "Issue to store"
// @Success 201 {object} models.Issue
// @Failure 400 {object} models.BasicResponse
// @Failure 500 {object} models.BasicResponse
// @Router /api/v1/issues [post]
func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var issue models.Issue
	if err := json.NewDecoder(r.Body).Decode(&issue); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if issue.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if issue.Id == "" {
		issue.Id = uuid.New().String()
	}

	// Classify unless the caller supplied an explicit tier
	if h.classifier != nil {
		if prediction, err := h.classifier.Predict(r.Context(), issue.Title+"\n"+issue.Description); err == nil {
			issue.Difficulty = prediction.Tier
		} else {
			h.logger.Printf("Classification during create failed, keeping supplied difficulty: %v", err)
		}
	}

	if err := h.issueRepo.Create(r.Context(), &issue); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store issue: "+err.Error())
		return
	}

	// Vector indexing is best effort; listing must not depend on Chroma
	if h.vectorRepo != nil && h.classifier != nil {
		if embedding, err := h.classifier.Embed(r.Context(), issue.Title+"\n"+issue.Description); err == nil {
			if err := h.vectorRepo.StoreIssue(r.Context(), &issue, embedding); err != nil {
				h.logger.Printf("Failed to index issue %s for similarity: %v", issue.Id, err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, issue)
}

// SimilarIssues godoc
// @Summary Find similar issues
// @Description Returns stored issues nearest to the given text by encoder embedding
// @Tags issues
// @Accept json
// @Produce json
// @Param request body models.SimilarIssuesRequest true "Query text"
// @Success 200 {array} repositories.SimilarIssue
// @Failure 400 {object} models.BasicResponse
// @Failure 503 {object} models.BasicResponse
// @Router /api/v1/issues/similar [post]
func (h *IssueHandler) SimilarIssues(w http.ResponseWriter, r *http.Request) {
	if h.vectorRepo == nil || h.classifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Similarity search is not available")
		return
	}

	var request models.SimilarIssuesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if request.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if request.TopK <= 0 {
		request.TopK = 3
	}

	embedding, err := h.classifier.Embed(r.Context(), request.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to embed query: "+err.Error())
		return
	}

	hits, err := h.vectorRepo.QuerySimilar(r.Context(), embedding, request.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Similarity search failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, hits)
}

// parseLimit reads the limit query parameter, falling back to the default
func parseLimit(r *http.Request) int {
	limit := defaultIssueLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
