package repositories

import (
	"context"

	"gitstart-analyzer/internal/models"
)

// JobRepository persists training jobs and a pending-work queue
type JobRepository interface {
	// CreateJob stores a new job and queues it for processing
	CreateJob(ctx context.Context, job *models.Job) error

	// GetJob retrieves a job by ID
	GetJob(ctx context.Context, jobID string) (*models.Job, error)

	// UpdateJob replaces a stored job
	UpdateJob(ctx context.Context, job *models.Job) error

	// ClaimPending pops the oldest queued job and marks it processing under
	// workerID. Returns (nil, nil) when the queue is empty.
	ClaimPending(ctx context.Context, workerID string) (*models.Job, error)

	// Requeue puts a failed job back on the queue for another attempt
	Requeue(ctx context.Context, job *models.Job) error
}
