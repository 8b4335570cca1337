package models

import (
	"time"
)

// Job represents a background job in the queue
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Progress    int                    `json:"progress"` // 0-100
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	UpdatedAt   time.Time              `json:"updated_at"`
	WorkerID    string                 `json:"worker_id,omitempty"`
}

// JobType represents the type of job
type JobType string

const (
	JobTypeClassifierTraining JobType = "classifier_training"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Validate checks if job is valid
func (j *Job) Validate() error {
	if j.ID == "" {
		return &ValidationError{Field: "id", Message: "job ID is required"}
	}
	if j.Type == "" {
		return &ValidationError{Field: "type", Message: "job type is required"}
	}
	if !j.Type.IsValid() {
		return &ValidationError{Field: "type", Message: "invalid job type: " + string(j.Type)}
	}
	if !j.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "invalid job status: " + string(j.Status)}
	}
	if j.Progress < 0 || j.Progress > 100 {
		return &ValidationError{Field: "progress", Message: "progress must be between 0 and 100"}
	}
	if j.MaxRetries < 0 {
		return &ValidationError{Field: "max_retries", Message: "max retries cannot be negative"}
	}
	return nil
}

// IsValid checks if job type is valid
func (t JobType) IsValid() bool {
	return t == JobTypeClassifierTraining
}

// String returns the string representation of job type
func (t JobType) String() string {
	return string(t)
}

// IsValid checks if job status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusQueued, JobStatusProcessing,
		JobStatusCompleted, JobStatusFailed, JobStatusRetrying:
		return true
	default:
		return false
	}
}

// String returns the string representation of job status
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanRetry returns true if the job can be retried
func (j *Job) CanRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// Duration returns the time taken to complete the job
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	if j.CompletedAt == nil {
		return time.Since(*j.StartedAt)
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// TrainingJobPayload represents the payload for classifier training jobs
type TrainingJobPayload struct {
	Epochs int `json:"epochs"`
}

// Validate validates the training job payload
func (p *TrainingJobPayload) Validate() error {
	if p.Epochs <= 0 {
		p.Epochs = 10 // Default
	}
	if p.Epochs > 100 {
		return &ValidationError{Field: "epochs", Message: "epochs cannot exceed 100"}
	}
	return nil
}
