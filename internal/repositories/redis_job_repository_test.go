package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitstart-analyzer/internal/models"
)

func newTrainingJob(id string) *models.Job {
	return &models.Job{
		ID:         id,
		Type:       models.JobTypeClassifierTraining,
		Status:     models.JobStatusQueued,
		Message:    "Training queued",
		MaxRetries: 1,
		Payload:    map[string]interface{}{"epochs": 10},
	}
}

func TestNewRedisJobRepository(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewRedisJobRepository(client)
	assert.NotNil(t, repo)
	assert.Equal(t, client, repo.client)
}

func TestRedisJobRepository_CreateJob(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisJobRepository(client)
	ctx := context.Background()

	t.Run("successful job creation", func(t *testing.T) {
		job := newTrainingJob("job-1")

		err := repo.CreateJob(ctx, job)
		require.NoError(t, err)

		retrieved, err := repo.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, job.ID, retrieved.ID)
		assert.Equal(t, models.JobTypeClassifierTraining, retrieved.Type)
		assert.Equal(t, models.JobStatusQueued, retrieved.Status)
		assert.NotZero(t, retrieved.CreatedAt)
		assert.NotZero(t, retrieved.UpdatedAt)
	})

	t.Run("duplicate job creation fails", func(t *testing.T) {
		job := newTrainingJob("job-dup")

		require.NoError(t, repo.CreateJob(ctx, job))
		err := repo.CreateJob(ctx, job)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("invalid job fails validation", func(t *testing.T) {
		job := newTrainingJob("")

		err := repo.CreateJob(ctx, job)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("unknown type fails validation", func(t *testing.T) {
		job := newTrainingJob("job-bad-type")
		job.Type = "mystery"

		err := repo.CreateJob(ctx, job)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid job type")
	})
}

func TestRedisJobRepository_UpdateJob(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisJobRepository(client)
	ctx := context.Background()

	job := newTrainingJob("job-update")
	require.NoError(t, repo.CreateJob(ctx, job))

	job.Status = models.JobStatusProcessing
	job.Progress = 40
	job.Message = "Training in progress"
	require.NoError(t, repo.UpdateJob(ctx, job))

	retrieved, err := repo.GetJob(ctx, "job-update")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, retrieved.Status)
	assert.Equal(t, 40, retrieved.Progress)

	t.Run("missing job fails", func(t *testing.T) {
		ghost := newTrainingJob("job-ghost")
		err := repo.UpdateJob(ctx, ghost)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestRedisJobRepository_ClaimPending(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisJobRepository(client)
	ctx := context.Background()

	t.Run("empty queue returns nil", func(t *testing.T) {
		job, err := repo.ClaimPending(ctx, "worker-1")
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("claims oldest job first", func(t *testing.T) {
		require.NoError(t, repo.CreateJob(ctx, newTrainingJob("job-first")))
		require.NoError(t, repo.CreateJob(ctx, newTrainingJob("job-second")))

		claimed, err := repo.ClaimPending(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, "job-first", claimed.ID)
		assert.Equal(t, models.JobStatusProcessing, claimed.Status)
		assert.Equal(t, "worker-1", claimed.WorkerID)
		require.NotNil(t, claimed.StartedAt)

		claimed, err = repo.ClaimPending(ctx, "worker-1")
		require.NoError(t, err)
		require.NotNil(t, claimed)
		assert.Equal(t, "job-second", claimed.ID)
	})
}

func TestRedisJobRepository_Requeue(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisJobRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.CreateJob(ctx, newTrainingJob("job-retry")))

	claimed, err := repo.ClaimPending(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, repo.Requeue(ctx, claimed))

	stored, err := repo.GetJob(ctx, "job-retry")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)

	// The job is claimable again
	reclaimed, err := repo.ClaimPending(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, reclaimed)
	assert.Equal(t, "job-retry", reclaimed.ID)
	assert.Equal(t, "worker-2", reclaimed.WorkerID)
}
