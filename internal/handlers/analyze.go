package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"gitstart-analyzer/internal/models"
	"gitstart-analyzer/internal/services"
)

// AnalysisHandler serves code complexity analysis
type AnalysisHandler struct {
	analyzer  *services.CodeAnalyzer
	completer services.TextCompleter
	logger    *log.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer *services.CodeAnalyzer, completer services.TextCompleter, logger *log.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:  analyzer,
		completer: completer,
		logger:    logger,
	}
}

// AnalyzeCode godoc
// @Summary Analyze code complexity
// @Description Scores a source file by fusing static analysis with an LLM's judgment
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body models.AnalyzeRequest true "Analysis request with file path"
// @Success 200 {object} models.ComplexityReport
// @Failure 400 {object} models.BasicResponse
// @Failure 502 {object} models.BasicResponse
// @Router /api/v1/analyze/code [post]
func (h *AnalysisHandler) AnalyzeCode(w http.ResponseWriter, r *http.Request) {
	var request models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if request.FilePath == "" {
		writeError(w, http.StatusBadRequest, "file_path is required")
		return
	}

	report, err := h.analyzer.AnalyzeFile(r.Context(), request.FilePath)
	if err != nil {
		h.logger.Printf("Analysis failed for %s: %v", request.FilePath, err)
		// Unreadable file path is a caller problem; anything else on this
		// path is the upstream model failing.
		status := http.StatusBadGateway
		if isFileError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Analysis failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// InsightHealthHandler godoc
// @Summary Check insight service health
// @Description Check if the upstream LLM endpoint is available
// @Tags analysis
// @Produce json
// @Success 200 {object} models.BasicResponse
// @Failure 503 {object} models.BasicResponse
// @Router /llm/health [get]
func (h *AnalysisHandler) InsightHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.completer.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Insight service is not available: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.BasicResponse{
		Message: "Insight service is available",
		Status:  "success",
	})
}
