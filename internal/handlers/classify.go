package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitstart-analyzer/internal/models"
	"gitstart-analyzer/internal/repositories"
	"gitstart-analyzer/internal/services"
)

// ClassifierHandler serves issue difficulty classification and training
type ClassifierHandler struct {
	classifier *services.IssueClassifier
	features   *services.FeatureExtractor
	jobRepo    repositories.JobRepository
	logger     *log.Logger
}

// NewClassifierHandler creates a new classifier handler. jobRepo may be nil
// when Redis is unavailable; training endpoints answer 503 then.
func NewClassifierHandler(classifier *services.IssueClassifier, jobRepo repositories.JobRepository, logger *log.Logger) *ClassifierHandler {
	return &ClassifierHandler{
		classifier: classifier,
		features:   services.NewFeatureExtractor(),
		jobRepo:    jobRepo,
		logger:     logger,
	}
}

// ClassifyIssue godoc
// @Summary Classify issue difficulty
// @Description Predicts the difficulty tier of an issue description
// @Tags issues
// @Accept json
// @Produce json
// @Param request body models.ClassifyRequest true "Issue text to classify"
// @Success 200 {object} models.ClassifyResponse
// @Failure 400 {object} models.BasicResponse
// @Failure 500 {object} models.BasicResponse
// @Router /api/v1/issues/classify [post]
func (h *ClassifierHandler) ClassifyIssue(w http.ResponseWriter, r *http.Request) {
	var request models.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	prediction, err := h.classifier.Predict(r.Context(), request.Text)
	if err != nil {
		h.logger.Printf("Classification failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Classification failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.ClassifyResponse{
		Difficulty:              prediction.Tier.String(),
		Confidence:              prediction.Confidence,
		RecommendedForBeginners: prediction.Tier == models.Beginner,
		ModelStatus:             prediction.ModelStatus,
	})
}

// TrainClassifier godoc
// @Summary Enqueue classifier training
// @Description Queues a background job that retrains the classifier on stored issues
// @Tags issues
// @Accept json
// @Produce json
// @Param request body models.TrainingJobPayload false "Training parameters"
// @Success 202 {object} models.Job
// @Failure 400 {object} models.BasicResponse
// @Failure 500 {object} models.BasicResponse
// @Router /api/v1/classifier/train [post]
func (h *ClassifierHandler) TrainClassifier(w http.ResponseWriter, r *http.Request) {
	if h.jobRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "Training is not available without job storage")
		return
	}

	var payload models.TrainingJobPayload
	if r.Body != nil {
		// An empty body means default parameters
		json.NewDecoder(r.Body).Decode(&payload)
	}
	if err := payload.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid training parameters: "+err.Error())
		return
	}

	job := &models.Job{
		ID:         uuid.New().String(),
		Type:       models.JobTypeClassifierTraining,
		Status:     models.JobStatusQueued,
		Message:    "Training queued",
		MaxRetries: 1,
		Payload: map[string]interface{}{
			"epochs": payload.Epochs,
		},
	}

	if err := h.jobRepo.CreateJob(r.Context(), job); err != nil {
		h.logger.Printf("Failed to enqueue training job: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to enqueue training job: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// JobStatus godoc
// @Summary Get job status
// @Description Returns the current state of a background job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.Job
// @Failure 404 {object} models.BasicResponse
// @Router /api/v1/jobs/{id} [get]
func (h *ClassifierHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	if h.jobRepo == nil {
		writeError(w, http.StatusServiceUnavailable, "Job storage is not available")
		return
	}

	jobID := mux.Vars(r)["id"]

	job, err := h.jobRepo.GetJob(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found: "+jobID)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// IssueFeatures godoc
// @Summary Extract issue features
// @Description Returns lexical features for an issue description
// @Tags issues
// @Accept json
// @Produce json
// @Param request body models.ClassifyRequest true "Issue text"
// @Success 200 {object} services.IssueFeatures
// @Failure 400 {object} models.BasicResponse
// @Router /api/v1/issues/features [post]
func (h *ClassifierHandler) IssueFeatures(w http.ResponseWriter, r *http.Request) {
	var request models.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	features, err := h.features.Extract(request.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Feature extraction failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, features)
}
