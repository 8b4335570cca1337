package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitstart-analyzer/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use separate DB for testing
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Flush test database
	require.NoError(t, client.FlushDB(ctx).Err())

	return client
}

func TestNewRedisIssueRepository(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewRedisIssueRepository(client)
	assert.NotNil(t, repo)
	assert.Equal(t, client, repo.client)
}

func TestRedisIssueRepository_CreateAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisIssueRepository(client)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		issue := &models.Issue{
			Id:          "issue-1",
			Title:       "Fix flaky test",
			Description: "The login test fails intermittently",
			Difficulty:  models.Beginner,
			Labels:      []string{"testing"},
		}

		err := repo.Create(ctx, issue)
		require.NoError(t, err)
		assert.False(t, issue.CreatedAt.IsZero())

		retrieved, err := repo.Get(ctx, "issue-1")
		require.NoError(t, err)
		assert.Equal(t, issue.Title, retrieved.Title)
		assert.Equal(t, models.Beginner, retrieved.Difficulty)
		assert.Equal(t, issue.Labels, retrieved.Labels)
	})

	t.Run("duplicate creation fails", func(t *testing.T) {
		issue := &models.Issue{Id: "issue-1", Title: "Duplicate"}

		err := repo.Create(ctx, issue)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("missing ID fails validation", func(t *testing.T) {
		err := repo.Create(ctx, &models.Issue{Title: "no id"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("missing title fails validation", func(t *testing.T) {
		err := repo.Create(ctx, &models.Issue{Id: "issue-no-title"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("unknown issue not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestRedisIssueRepository_List(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisIssueRepository(client)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "middle", "new"} {
		require.NoError(t, repo.Create(ctx, &models.Issue{
			Id:        id,
			Title:     "Issue " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("newest first", func(t *testing.T) {
		issues, err := repo.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, issues, 3)
		assert.Equal(t, "new", issues[0].Id)
		assert.Equal(t, "old", issues[2].Id)
	})

	t.Run("limit applies after sorting", func(t *testing.T) {
		issues, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "new", issues[0].Id)
	})
}

func TestRedisIssueRepository_ListByDifficulty(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisIssueRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "b1", Title: "Easy one", Difficulty: models.Beginner}))
	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "b2", Title: "Easy two", Difficulty: models.Beginner}))
	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "x1", Title: "Hard one", Difficulty: models.Expert}))

	beginners, err := repo.ListByDifficulty(ctx, models.Beginner, 0)
	require.NoError(t, err)
	assert.Len(t, beginners, 2)
	for _, issue := range beginners {
		assert.Equal(t, models.Beginner, issue.Difficulty)
	}

	experts, err := repo.ListByDifficulty(ctx, models.Expert, 0)
	require.NoError(t, err)
	assert.Len(t, experts, 1)

	advanced, err := repo.ListByDifficulty(ctx, models.Advanced, 0)
	require.NoError(t, err)
	assert.Empty(t, advanced)
}

func TestRedisIssueRepository_Count(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisIssueRepository(client)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "c1", Title: "One"}))
	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "c2", Title: "Two"}))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRedisIssueRepository_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()
	repo := NewRedisIssueRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Issue{Id: "d1", Title: "Doomed", Difficulty: models.Intermediate}))
	require.NoError(t, repo.Delete(ctx, "d1"))

	_, err := repo.Get(ctx, "d1")
	assert.Error(t, err)

	// Index entries go with the record
	intermediate, err := repo.ListByDifficulty(ctx, models.Intermediate, 0)
	require.NoError(t, err)
	assert.Empty(t, intermediate)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	assert.Error(t, repo.Delete(ctx, "d1"))
}
