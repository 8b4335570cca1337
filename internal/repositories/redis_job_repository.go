package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"gitstart-analyzer/internal/models"
)

const (
	// Redis key prefixes for jobs
	jobKeyPrefix = "job:"
	jobIndexKey  = "jobs:index"
	jobQueueKey  = "jobs:queue"
)

// RedisJobRepository implements JobRepository using Redis
type RedisJobRepository struct {
	client *redis.Client
}

// NewRedisJobRepository creates a new Redis-based job repository
func NewRedisJobRepository(client *redis.Client) *RedisJobRepository {
	return &RedisJobRepository{
		client: client,
	}
}

// CreateJob stores a new job and queues it for processing
func (r *RedisJobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	exists, err := r.client.Exists(ctx, jobKeyPrefix+job.ID).Result()
	if err != nil {
		return NewRepositoryError("create_job", job.ID, err, "")
	}
	if exists > 0 {
		return JobAlreadyExistsError(job.ID)
	}

	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return NewRepositoryError("create_job", job.ID, err, "failed to marshal job")
	}

	// Use transaction for atomicity
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, jobJSON, 0)
	pipe.SAdd(ctx, jobIndexKey, job.ID)
	pipe.LPush(ctx, jobQueueKey, job.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewRepositoryError("create_job", job.ID, err, "failed to execute transaction")
	}

	return nil
}

// GetJob retrieves a job by ID
func (r *RedisJobRepository) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	jobJSON, err := r.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return nil, JobNotFoundError(jobID)
	}
	if err != nil {
		return nil, NewRepositoryError("get_job", jobID, err, "")
	}

	var job models.Job
	if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
		return nil, NewRepositoryError("get_job", jobID, err, "failed to unmarshal job")
	}

	return &job, nil
}

// UpdateJob replaces a stored job
func (r *RedisJobRepository) UpdateJob(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	exists, err := r.client.Exists(ctx, jobKeyPrefix+job.ID).Result()
	if err != nil {
		return NewRepositoryError("update_job", job.ID, err, "")
	}
	if exists == 0 {
		return JobNotFoundError(job.ID)
	}

	job.UpdatedAt = time.Now()

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return NewRepositoryError("update_job", job.ID, err, "failed to marshal job")
	}

	if err := r.client.Set(ctx, jobKeyPrefix+job.ID, jobJSON, 0).Err(); err != nil {
		return NewRepositoryError("update_job", job.ID, err, "failed to save job")
	}

	return nil
}

// ClaimPending pops the oldest queued job and marks it processing
func (r *RedisJobRepository) ClaimPending(ctx context.Context, workerID string) (*models.Job, error) {
	jobID, err := r.client.RPop(ctx, jobQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, NewRepositoryError("claim_pending", "", err, "")
	}

	job, err := r.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &now
	job.WorkerID = workerID

	if err := r.UpdateJob(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// Requeue puts a failed job back on the queue for another attempt
func (r *RedisJobRepository) Requeue(ctx context.Context, job *models.Job) error {
	job.Status = models.JobStatusRetrying
	job.RetryCount++

	if err := r.UpdateJob(ctx, job); err != nil {
		return err
	}

	if err := r.client.LPush(ctx, jobQueueKey, job.ID).Err(); err != nil {
		return NewRepositoryError("requeue_job", job.ID, err, "")
	}
	return nil
}
