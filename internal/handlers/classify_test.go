package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitstart-analyzer/internal/models"
	"gitstart-analyzer/internal/repositories"
	"gitstart-analyzer/internal/services"
)

const fakeEncoderDim = 8

// fakeEncoder derives a deterministic embedding from the text bytes
type fakeEncoder struct{}

func (f *fakeEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, fakeEncoderDim)
	for i, b := range []byte(text) {
		emb[i%fakeEncoderDim] += float32(b) / 255
	}
	return emb, nil
}

func (f *fakeEncoder) Dim() int { return fakeEncoderDim }

func (f *fakeEncoder) Close() error { return nil }

// fakeJobRepo records created jobs in memory
type fakeJobRepo struct {
	jobs      map[string]*models.Job
	createErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*models.Job)}
}

func (r *fakeJobRepo) CreateJob(ctx context.Context, job *models.Job) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, repositories.JobNotFoundError(jobID)
	}
	return job, nil
}

func (r *fakeJobRepo) UpdateJob(ctx context.Context, job *models.Job) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeJobRepo) ClaimPending(ctx context.Context, workerID string) (*models.Job, error) {
	return nil, nil
}

func (r *fakeJobRepo) Requeue(ctx context.Context, job *models.Job) error {
	return nil
}

func newTestClassifier(t *testing.T) *services.IssueClassifier {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "no-head.json")
	return services.NewIssueClassifier(&fakeEncoder{}, missing, testLogger())
}

func TestClassifyIssue(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	rec := postJSON(t, handler.ClassifyIssue, "/api/v1/issues/classify", models.ClassifyRequest{
		Text: "Fix the broken pagination on the issues page",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ClassifyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, []string{"beginner", "intermediate", "advanced", "expert"}, resp.Difficulty)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
	assert.Equal(t, resp.Difficulty == "beginner", resp.RecommendedForBeginners)
	// A fresh head must declare itself untrained
	assert.Equal(t, string(services.ModelStatusUntrained), resp.ModelStatus)
}

func TestClassifyIssue_InvalidBody(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/issues/classify", bytes.NewReader([]byte("nope")))
	rec := httptest.NewRecorder()
	handler.ClassifyIssue(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyIssue_EmptyText(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	rec := postJSON(t, handler.ClassifyIssue, "/api/v1/issues/classify", models.ClassifyRequest{})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrainClassifier(t *testing.T) {
	jobRepo := newFakeJobRepo()
	handler := NewClassifierHandler(newTestClassifier(t), jobRepo, testLogger())

	rec := postJSON(t, handler.TrainClassifier, "/api/v1/classifier/train", models.TrainingJobPayload{Epochs: 5})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job models.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, models.JobTypeClassifierTraining, job.Type)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.NotEmpty(t, job.ID)

	stored, ok := jobRepo.jobs[job.ID]
	require.True(t, ok)
	assert.EqualValues(t, 5, stored.Payload["epochs"])
}

func TestTrainClassifier_DefaultEpochs(t *testing.T) {
	jobRepo := newFakeJobRepo()
	handler := NewClassifierHandler(newTestClassifier(t), jobRepo, testLogger())

	rec := postJSON(t, handler.TrainClassifier, "/api/v1/classifier/train", map[string]interface{}{})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job models.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.EqualValues(t, 10, job.Payload["epochs"])
}

func TestTrainClassifier_WithoutJobStorage(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), nil, testLogger())

	rec := postJSON(t, handler.TrainClassifier, "/api/v1/classifier/train", models.TrainingJobPayload{Epochs: 5})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrainClassifier_TooManyEpochs(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	rec := postJSON(t, handler.TrainClassifier, "/api/v1/classifier/train", models.TrainingJobPayload{Epochs: 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobStatus(t *testing.T) {
	jobRepo := newFakeJobRepo()
	jobRepo.jobs["job-1"] = &models.Job{
		ID:     "job-1",
		Type:   models.JobTypeClassifierTraining,
		Status: models.JobStatusCompleted,
	}
	handler := NewClassifierHandler(newTestClassifier(t), jobRepo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "job-1"})
	rec := httptest.NewRecorder()
	handler.JobStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var job models.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, models.JobStatusCompleted, job.Status)
}

func TestJobStatus_NotFound(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/ghost", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "ghost"})
	rec := httptest.NewRecorder()
	handler.JobStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueFeatures(t *testing.T) {
	handler := NewClassifierHandler(newTestClassifier(t), newFakeJobRepo(), testLogger())

	rec := postJSON(t, handler.IssueFeatures, "/api/v1/issues/features", models.ClassifyRequest{
		Text: "Refactor the worker pool, there is a bug in shutdown",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var features services.IssueFeatures
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&features))
	assert.True(t, features.MentionsError)
	assert.Equal(t, 1, features.ComplexityWordCount)
}
