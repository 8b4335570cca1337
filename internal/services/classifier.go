package services

import (
	"context"
	"fmt"
	"log"

	"gitstart-analyzer/internal/models"
)

// ModelStatus distinguishes a head restored from disk from a fresh,
// effectively random one. Callers must be able to tell the difference so the
// API never serves low-quality predictions silently.
type ModelStatus string

const (
	ModelStatusTrained   ModelStatus = "trained"
	ModelStatusUntrained ModelStatus = "untrained"
)

// DefaultHeadPath is where the trained head bundle lives by default
const DefaultHeadPath = "models/issue_classifier.json"

// IssueClassifier predicts the difficulty tier of an issue description.
//
// Predict treats the head as read-only; Train mutates it. Concurrent Train
// and Predict calls are undefined behavior — the training worker serializes
// training to keep the invariant.
type IssueClassifier struct {
	encoder TextEncoder
	head    *ClassifierHead
	status  ModelStatus
	logger  *log.Logger
}

// NewIssueClassifier constructs a classifier, restoring head weights from
// headPath when present. A missing or unreadable bundle falls back to a
// fresh untrained head with status reported accordingly.
func NewIssueClassifier(encoder TextEncoder, headPath string, logger *log.Logger) *IssueClassifier {
	head, err := LoadClassifierHead(headPath)
	status := ModelStatusTrained
	if err != nil {
		logger.Printf("No trained head at %s (%v), starting with a fresh untrained head", headPath, err)
		head = NewClassifierHead(encoder.Dim())
		status = ModelStatusUntrained
	} else if head.InputDim() != encoder.Dim() {
		logger.Printf("Head input dim %d does not match encoder dim %d, starting untrained", head.InputDim(), encoder.Dim())
		head = NewClassifierHead(encoder.Dim())
		status = ModelStatusUntrained
	} else {
		logger.Printf("Restored trained classifier head from %s", headPath)
	}

	return &IssueClassifier{
		encoder: encoder,
		head:    head,
		status:  status,
		logger:  logger,
	}
}

// Status reports whether the current head has been trained
func (c *IssueClassifier) Status() ModelStatus {
	return c.status
}

// Predict returns the argmax difficulty tier and its softmax confidence
func (c *IssueClassifier) Predict(ctx context.Context, text string) (*models.DifficultyPrediction, error) {
	embedding, err := c.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issue text: %w", err)
	}

	probs := c.head.Forward(embedding)
	best := argmax(probs)

	return &models.DifficultyPrediction{
		Tier:        models.DifficultyLevels[best],
		Confidence:  probs[best],
		ModelStatus: string(c.status),
	}, nil
}

// Embed exposes the pooled encoder embedding for similarity storage
func (c *IssueClassifier) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.encoder.Encode(ctx, text)
}

// Train fits the head on labeled issue texts. Labels index into
// models.DifficultyLevels. On success the classifier reports trained status.
func (c *IssueClassifier) Train(ctx context.Context, texts []string, labels []int, epochs int) (*TrainingReport, error) {
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("text/label count mismatch: %d vs %d", len(texts), len(labels))
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := c.encoder.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sample %d: %w", i, err)
		}
		embeddings[i] = embedding
	}

	report, err := c.head.Fit(embeddings, labels, epochs)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	c.status = ModelStatusTrained
	c.logger.Printf("Training complete: %d samples, %d epochs, train acc %.3f, val acc %.3f",
		report.Samples, report.Epochs, report.TrainAccuracy, report.ValidationAccuracy)
	return report, nil
}

// Save persists the head weights to path
func (c *IssueClassifier) Save(path string) error {
	return c.head.Save(path)
}
