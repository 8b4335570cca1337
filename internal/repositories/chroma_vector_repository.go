package repositories

import (
	"context"
	"fmt"

	"gitstart-analyzer/internal/db"
	"gitstart-analyzer/internal/models"
)

// IssueCollectionName is the single Chroma collection used for issues
const IssueCollectionName = "issues"

// ChromaVectorRepository implements VectorRepository using ChromaDB
type ChromaVectorRepository struct {
	client       *db.ChromaDBClient
	collectionID string
}

// NewChromaVectorRepository creates a new ChromaDB-backed vector repository
func NewChromaVectorRepository(client *db.ChromaDBClient) *ChromaVectorRepository {
	return &ChromaVectorRepository{
		client: client,
	}
}

// EnsureCollection creates the issue collection if it does not exist and
// caches its ID for record operations
func (r *ChromaVectorRepository) EnsureCollection(ctx context.Context) error {
	collection, err := r.client.GetCollection(ctx, IssueCollectionName)
	if err == nil {
		r.collectionID = collection.ID
		return nil
	}

	collection, err = r.client.CreateCollection(ctx, IssueCollectionName, nil)
	if err != nil {
		return NewRepositoryError("ensure_collection", IssueCollectionName, err, "")
	}
	r.collectionID = collection.ID
	return nil
}

// StoreIssue indexes an issue under its embedding
func (r *ChromaVectorRepository) StoreIssue(ctx context.Context, issue *models.Issue, embedding []float32) error {
	if r.collectionID == "" {
		return fmt.Errorf("issue collection not initialized")
	}

	document := issue.Title + "\n" + issue.Description
	metadata := map[string]interface{}{
		"title":      issue.Title,
		"difficulty": issue.Difficulty.String(),
	}

	err := r.client.Add(ctx, r.collectionID,
		[]string{issue.Id},
		[][]float32{embedding},
		[]string{document},
		[]map[string]interface{}{metadata},
	)
	if err != nil {
		return NewRepositoryError("store_issue", issue.Id, err, "")
	}
	return nil
}

// QuerySimilar returns the topK nearest stored issues
func (r *ChromaVectorRepository) QuerySimilar(ctx context.Context, embedding []float32, topK int) ([]SimilarIssue, error) {
	if r.collectionID == "" {
		return nil, fmt.Errorf("issue collection not initialized")
	}

	resp, err := r.client.Query(ctx, r.collectionID, embedding, topK)
	if err != nil {
		return nil, NewRepositoryError("query_similar", "", err, "")
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	hits := make([]SimilarIssue, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		hit := SimilarIssue{IssueID: id}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			if title, ok := resp.Metadatas[0][i]["title"].(string); ok {
				hit.Title = title
			}
			if difficulty, ok := resp.Metadatas[0][i]["difficulty"].(string); ok {
				hit.Difficulty = difficulty
			}
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			// cosine distance -> similarity
			hit.Score = 1 - resp.Distances[0][i]
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// DeleteIssue removes an issue from the index
func (r *ChromaVectorRepository) DeleteIssue(ctx context.Context, id string) error {
	if r.collectionID == "" {
		return fmt.Errorf("issue collection not initialized")
	}

	if err := r.client.DeleteRecords(ctx, r.collectionID, []string{id}); err != nil {
		return NewRepositoryError("delete_issue", id, err, "")
	}
	return nil
}
