package repositories

import (
	"context"

	"gitstart-analyzer/internal/models"
)

// SimilarIssue is one similarity-search hit
type SimilarIssue struct {
	IssueID    string  `json:"issue_id"`
	Title      string  `json:"title"`
	Difficulty string  `json:"difficulty"`
	Score      float64 `json:"score"` // cosine similarity, higher is closer
}

// VectorRepository stores issue embeddings for similarity lookup
type VectorRepository interface {
	// EnsureCollection creates the issue collection if it does not exist
	EnsureCollection(ctx context.Context) error

	// StoreIssue indexes an issue under its embedding
	StoreIssue(ctx context.Context, issue *models.Issue, embedding []float32) error

	// QuerySimilar returns the topK nearest stored issues
	QuerySimilar(ctx context.Context, embedding []float32, topK int) ([]SimilarIssue, error)

	// DeleteIssue removes an issue from the index
	DeleteIssue(ctx context.Context, id string) error
}
