package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitstart-analyzer/internal/models"
	"gitstart-analyzer/internal/repositories"
	"gitstart-analyzer/internal/services"
)

// TrainingWorkerConfig holds the training worker's dependencies
type TrainingWorkerConfig struct {
	WorkerConfig

	JobRepo    repositories.JobRepository
	IssueRepo  repositories.IssueRepository
	Classifier *services.IssueClassifier
	HeadPath   string
	Logger     Logger
}

// TrainingWorker polls the job queue for classifier training jobs and runs
// them one at a time. Being the only writer to the classifier is what keeps
// Train and Predict from racing.
type TrainingWorker struct {
	*BaseWorker

	jobRepo    repositories.JobRepository
	issueRepo  repositories.IssueRepository
	classifier *services.IssueClassifier
	headPath   string
	logger     Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewTrainingWorker creates a new training worker
func NewTrainingWorker(config TrainingWorkerConfig) *TrainingWorker {
	return &TrainingWorker{
		BaseWorker: NewBaseWorker(config.WorkerConfig),
		jobRepo:    config.JobRepo,
		issueRepo:  config.IssueRepo,
		classifier: config.Classifier,
		headPath:   config.HeadPath,
		logger:     config.Logger,
	}
}

// Start begins polling for training jobs
func (w *TrainingWorker) Start(ctx context.Context) error {
	if w.IsRunning() {
		return fmt.Errorf("worker %s already running", w.Name())
	}

	w.stopCh = make(chan struct{})
	w.setRunning(true)
	w.logger.Info("Worker %s started (poll interval %v)", w.Name(), w.Config().PollInterval)

	w.wg.Add(1)
	go w.pollLoop(ctx)

	return nil
}

// Stop gracefully shuts down the worker
func (w *TrainingWorker) Stop(ctx context.Context) error {
	if !w.IsRunning() {
		return nil
	}

	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.Config().ShutdownTimeout):
		w.logger.Warn("Worker %s shutdown timed out", w.Name())
	case <-ctx.Done():
	}

	w.setRunning(false)
	w.logger.Info("Worker %s stopped", w.Name())
	return nil
}

// pollLoop claims and processes jobs until stopped
func (w *TrainingWorker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.Config().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.jobRepo.ClaimPending(ctx, w.Name())
			if err != nil {
				w.logger.Error("Failed to claim job: %v", err)
				continue
			}
			if job == nil {
				continue
			}
			w.processJob(ctx, job)
		}
	}
}

// processJob runs one training job end to end
func (w *TrainingWorker) processJob(ctx context.Context, job *models.Job) {
	startTime := time.Now()
	w.logger.Info("Processing job %s (attempt %d/%d)", job.ID, job.RetryCount+1, job.MaxRetries+1)

	if err := w.runTraining(ctx, job); err != nil {
		w.recordJobFailure(startTime)
		w.logger.Error("Job %s failed: %v", job.ID, err)

		job.Error = err.Error()
		job.Status = models.JobStatusFailed
		if job.CanRetry() {
			if requeueErr := w.jobRepo.Requeue(ctx, job); requeueErr != nil {
				w.logger.Error("Failed to requeue job %s: %v", job.ID, requeueErr)
			}
			return
		}

		now := time.Now()
		job.CompletedAt = &now
		if updateErr := w.jobRepo.UpdateJob(ctx, job); updateErr != nil {
			w.logger.Error("Failed to update job %s: %v", job.ID, updateErr)
		}
		return
	}

	w.recordJobSuccess(startTime)
	w.logger.Info("Job %s completed in %v", job.ID, time.Since(startTime))
}

// runTraining assembles labeled samples from stored issues, fits the
// classifier, and persists the new head
func (w *TrainingWorker) runTraining(ctx context.Context, job *models.Job) error {
	epochs := 10
	if raw, ok := job.Payload["epochs"].(float64); ok && raw > 0 {
		epochs = int(raw)
	}

	issues, err := w.issueRepo.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load training issues: %w", err)
	}
	if len(issues) < services.NumDifficultyTiers {
		return fmt.Errorf("not enough labeled issues to train: have %d", len(issues))
	}

	texts := make([]string, len(issues))
	labels := make([]int, len(issues))
	for i, issue := range issues {
		texts[i] = issue.Title + "\n" + issue.Description
		labels[i] = int(issue.Difficulty)
	}

	job.Progress = 10
	job.Message = fmt.Sprintf("Training on %d issues for %d epochs", len(texts), epochs)
	if err := w.jobRepo.UpdateJob(ctx, job); err != nil {
		w.logger.Warn("Failed to update job progress: %v", err)
	}

	report, err := w.classifier.Train(ctx, texts, labels, epochs)
	if err != nil {
		return err
	}

	if err := w.classifier.Save(w.headPath); err != nil {
		return fmt.Errorf("failed to persist trained head: %w", err)
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Message = "Training complete"
	job.CompletedAt = &now
	job.Result = map[string]interface{}{
		"samples":             report.Samples,
		"train_samples":       report.TrainSamples,
		"validation_samples":  report.ValidationSamples,
		"epochs":              report.Epochs,
		"train_accuracy":      report.TrainAccuracy,
		"validation_accuracy": report.ValidationAccuracy,
	}
	return w.jobRepo.UpdateJob(ctx, job)
}
