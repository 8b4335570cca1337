package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultInsightBaseURL = "http://localhost:1234/v1"
	DefaultInsightModel   = "llama-3.2-3b-instruct"

	// Low temperature keeps the complexity ratings reasonably stable
	// between calls to the same source file.
	insightTemperature = 0.3
)

// TextCompleter is the narrow capability the analyzer needs from a hosted
// language model. Tests inject deterministic stand-ins.
type TextCompleter interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// insightRequest is the OpenAI-compatible chat completion request
type insightRequest struct {
	Model       string           `json:"model"`
	Messages    []insightMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Stream      bool             `json:"stream"`
}

type insightMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// insightResponse is the chat completion response
type insightResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// InsightService talks to an OpenAI-compatible chat completion endpoint
// (LM Studio, or any hosted service exposing the same surface)
type InsightService struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewInsightService creates an insight service against the default endpoint
func NewInsightService() *InsightService {
	return NewInsightServiceWithOptions(DefaultInsightBaseURL, DefaultInsightModel)
}

// NewInsightServiceWithOptions creates an insight service with an explicit
// endpoint and model identifier
func NewInsightServiceWithOptions(baseURL, model string) *InsightService {
	return &InsightService{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // LLMs can be slow
		},
	}
}

// CompleteText sends the prompt to the model and returns its raw text reply.
// Transport and service errors propagate to the caller unretried.
func (s *InsightService) CompleteText(ctx context.Context, prompt string) (string, error) {
	request := insightRequest{
		Model: s.model,
		Messages: []insightMessage{
			{Role: "system", Content: "You are a code complexity expert."},
			{Role: "user", Content: prompt},
		},
		Temperature: insightTemperature,
		MaxTokens:   -1, // No limit
		Stream:      false,
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to insight service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insight service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response insightResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from insight service")
	}

	return response.Choices[0].Message.Content, nil
}

// HealthCheck verifies the endpoint is reachable and has a model loaded
func (s *InsightService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/models", nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insight service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("insight service returned status %d", resp.StatusCode)
	}

	return nil
}
