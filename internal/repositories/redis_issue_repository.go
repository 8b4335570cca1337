package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"gitstart-analyzer/internal/models"
)

const (
	// Redis key prefixes for issues
	issueKeyPrefix        = "issue:"
	issueIndexKey         = "issues:index"
	issueDifficultyPrefix = "issues:difficulty:"
)

// RedisIssueRepository implements IssueRepository using Redis
type RedisIssueRepository struct {
	client *redis.Client
}

// NewRedisIssueRepository creates a new Redis-based issue repository
func NewRedisIssueRepository(client *redis.Client) *RedisIssueRepository {
	return &RedisIssueRepository{
		client: client,
	}
}

// Create stores a new issue and updates the difficulty index
func (r *RedisIssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.Id == "" {
		return &models.ValidationError{Field: "id", Message: "issue ID is required"}
	}
	if issue.Title == "" {
		return &models.ValidationError{Field: "title", Message: "issue title is required"}
	}

	exists, err := r.client.Exists(ctx, issueKeyPrefix+issue.Id).Result()
	if err != nil {
		return NewRepositoryError("create_issue", issue.Id, err, "")
	}
	if exists > 0 {
		return IssueAlreadyExistsError(issue.Id)
	}

	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}

	issueJSON, err := json.Marshal(issue)
	if err != nil {
		return NewRepositoryError("create_issue", issue.Id, err, "failed to marshal issue")
	}

	// Use transaction for atomicity
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, issueKeyPrefix+issue.Id, issueJSON, 0)
	pipe.SAdd(ctx, issueIndexKey, issue.Id)
	pipe.SAdd(ctx, issueDifficultyPrefix+issue.Difficulty.String(), issue.Id)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewRepositoryError("create_issue", issue.Id, err, "failed to execute transaction")
	}

	return nil
}

// Get retrieves an issue by ID
func (r *RedisIssueRepository) Get(ctx context.Context, id string) (*models.Issue, error) {
	issueJSON, err := r.client.Get(ctx, issueKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, IssueNotFoundError(id)
	}
	if err != nil {
		return nil, NewRepositoryError("get_issue", id, err, "")
	}

	var issue models.Issue
	if err := json.Unmarshal([]byte(issueJSON), &issue); err != nil {
		return nil, NewRepositoryError("get_issue", id, err, "failed to unmarshal issue")
	}

	return &issue, nil
}

// List returns up to limit issues, newest first
func (r *RedisIssueRepository) List(ctx context.Context, limit int) ([]*models.Issue, error) {
	return r.listFromSet(ctx, issueIndexKey, limit)
}

// ListByDifficulty returns up to limit issues of one tier, newest first
func (r *RedisIssueRepository) ListByDifficulty(ctx context.Context, difficulty models.Difficulty, limit int) ([]*models.Issue, error) {
	return r.listFromSet(ctx, issueDifficultyPrefix+difficulty.String(), limit)
}

// Count returns the number of stored issues
func (r *RedisIssueRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.client.SCard(ctx, issueIndexKey).Result()
	if err != nil {
		return 0, NewRepositoryError("count_issues", "", err, "")
	}
	return count, nil
}

// Delete removes an issue and its index entries
func (r *RedisIssueRepository) Delete(ctx context.Context, id string) error {
	issue, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, issueKeyPrefix+id)
	pipe.SRem(ctx, issueIndexKey, id)
	pipe.SRem(ctx, issueDifficultyPrefix+issue.Difficulty.String(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewRepositoryError("delete_issue", id, err, "failed to execute transaction")
	}

	return nil
}

// listFromSet loads all members of an index set, sorts by creation time
// descending, and truncates to limit
func (r *RedisIssueRepository) listFromSet(ctx context.Context, setKey string, limit int) ([]*models.Issue, error) {
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, NewRepositoryError("list_issues", setKey, err, "")
	}

	issues := make([]*models.Issue, 0, len(ids))
	for _, id := range ids {
		issue, err := r.Get(ctx, id)
		if err != nil {
			// Index entries can outlive the record briefly; skip strays
			continue
		}
		issues = append(issues, issue)
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})

	if limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}

	return issues, nil
}
