package repositories

import (
	"context"

	"gitstart-analyzer/internal/models"
)

// IssueRepository persists issues with difficulty-tier indexing
type IssueRepository interface {
	// Create stores a new issue; fails if the ID is already taken
	Create(ctx context.Context, issue *models.Issue) error

	// Get retrieves an issue by ID
	Get(ctx context.Context, id string) (*models.Issue, error)

	// List returns up to limit issues, newest first
	List(ctx context.Context, limit int) ([]*models.Issue, error)

	// ListByDifficulty returns up to limit issues of one tier, newest first
	ListByDifficulty(ctx context.Context, difficulty models.Difficulty, limit int) ([]*models.Issue, error)

	// Count returns the number of stored issues
	Count(ctx context.Context) (int64, error)

	// Delete removes an issue and its index entries
	Delete(ctx context.Context, id string) error
}
