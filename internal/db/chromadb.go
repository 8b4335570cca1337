package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChromaDBClient wraps HTTP calls to ChromaDB v2 API
// This avoids compatibility issues with the official Go client library
type ChromaDBClient struct {
	baseURL    string
	httpClient *http.Client
	host       string
	port       int
}

// ChromaDBConfig holds configuration for ChromaDB connection
type ChromaDBConfig struct {
	Host     string
	Port     int
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// Collection represents a ChromaDB collection
type Collection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// QueryResponse represents the response from a nearest-neighbor query
type QueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
}

// NewChromaDBClient creates a new ChromaDB client with v2 API support
func NewChromaDBClient(config ChromaDBConfig) *ChromaDBClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	// ChromaDB v2 API uses tenant and database in the path
	baseURL := fmt.Sprintf("http://%s:%d/api/v2/tenants/%s/databases/%s",
		config.Host, config.Port, config.Tenant, config.Database)

	return &ChromaDBClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		host: config.Host,
		port: config.Port,
	}
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaDBClient) Heartbeat(ctx context.Context) error {
	heartbeatURL := fmt.Sprintf("http://%s:%d/api/v2/heartbeat", c.host, c.port)
	req, err := http.NewRequestWithContext(ctx, "GET", heartbeatURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat failed with status: %d", resp.StatusCode)
	}

	return nil
}

// GetCollection retrieves a collection by name
func (c *ChromaDBClient) GetCollection(ctx context.Context, name string) (*Collection, error) {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get collection failed (status %d): %s", resp.StatusCode, string(body))
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &collection, nil
}

// CreateCollection creates a new collection
func (c *ChromaDBClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*Collection, error) {
	if metadata == nil {
		metadata = map[string]interface{}{
			"hnsw:space": "cosine",
		}
	}

	payload := map[string]interface{}{
		"name":     name,
		"metadata": metadata,
	}

	var collection Collection
	if err := c.post(ctx, fmt.Sprintf("%s/collections", c.baseURL), payload, &collection); err != nil {
		return nil, fmt.Errorf("create collection failed: %w", err)
	}

	return &collection, nil
}

// Add inserts records with precomputed embeddings into a collection
func (c *ChromaDBClient) Add(ctx context.Context, collectionID string, ids []string, embeddings [][]float32, documents []string, metadatas []map[string]interface{}) error {
	payload := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}

	url := fmt.Sprintf("%s/collections/%s/add", c.baseURL, collectionID)
	if err := c.post(ctx, url, payload, nil); err != nil {
		return fmt.Errorf("add records failed: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbor search against a collection
func (c *ChromaDBClient) Query(ctx context.Context, collectionID string, embedding []float32, topK int) (*QueryResponse, error) {
	payload := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	var result QueryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, collectionID)
	if err := c.post(ctx, url, payload, &result); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &result, nil
}

// DeleteRecords removes records by ID from a collection
func (c *ChromaDBClient) DeleteRecords(ctx context.Context, collectionID string, ids []string) error {
	payload := map[string]interface{}{
		"ids": ids,
	}

	url := fmt.Sprintf("%s/collections/%s/delete", c.baseURL, collectionID)
	if err := c.post(ctx, url, payload, nil); err != nil {
		return fmt.Errorf("delete records failed: %w", err)
	}
	return nil
}

// post sends a JSON payload and optionally decodes the response body
func (c *ChromaDBClient) post(ctx context.Context, url string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
