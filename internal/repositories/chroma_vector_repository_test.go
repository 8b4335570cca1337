package repositories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitstart-analyzer/internal/db"
	"gitstart-analyzer/internal/models"
)

// newFakeChroma wires a ChromaDBClient against an httptest server
func newFakeChroma(t *testing.T, handler http.Handler) (*db.ChromaDBClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(parsed.Port())
	require.NoError(t, err)

	client := db.NewChromaDBClient(db.ChromaDBConfig{
		Host:    parsed.Hostname(),
		Port:    port,
		Timeout: 5 * time.Second,
	})
	return client, server
}

func TestChromaVectorRepository_EnsureCollection_CreatesWhenMissing(t *testing.T) {
	var createdName string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/issues", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		createdName = payload["name"].(string)
		json.NewEncoder(w).Encode(db.Collection{ID: "col-123", Name: createdName})
	})

	client, _ := newFakeChroma(t, mux)
	repo := NewChromaVectorRepository(client)

	require.NoError(t, repo.EnsureCollection(context.Background()))
	assert.Equal(t, IssueCollectionName, createdName)
}

func TestChromaVectorRepository_EnsureCollection_ReusesExisting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/issues", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Collection{ID: "col-existing", Name: IssueCollectionName})
	})

	client, _ := newFakeChroma(t, mux)
	repo := NewChromaVectorRepository(client)

	require.NoError(t, repo.EnsureCollection(context.Background()))
}

func TestChromaVectorRepository_StoreAndQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/issues", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Collection{ID: "col-1", Name: IssueCollectionName})
	})

	var addPayload map[string]interface{}
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/col-1/add", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&addPayload))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/v2/tenants/default_tenant/databases/default_database/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.QueryResponse{
			IDs:       [][]string{{"issue-9"}},
			Documents: [][]string{{"Fix parser\nIt crashes"}},
			Metadatas: [][]map[string]interface{}{{
				{"title": "Fix parser", "difficulty": "beginner"},
			}},
			Distances: [][]float64{{0.12}},
		})
	})

	client, _ := newFakeChroma(t, mux)
	repo := NewChromaVectorRepository(client)
	ctx := context.Background()
	require.NoError(t, repo.EnsureCollection(ctx))

	issue := &models.Issue{Id: "issue-9", Title: "Fix parser", Description: "It crashes", Difficulty: models.Beginner}
	require.NoError(t, repo.StoreIssue(ctx, issue, []float32{0.1, 0.2}))

	ids := addPayload["ids"].([]interface{})
	assert.Equal(t, "issue-9", ids[0])
	docs := addPayload["documents"].([]interface{})
	assert.True(t, strings.HasPrefix(docs[0].(string), "Fix parser"))

	hits, err := repo.QuerySimilar(ctx, []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "issue-9", hits[0].IssueID)
	assert.Equal(t, "Fix parser", hits[0].Title)
	assert.Equal(t, "beginner", hits[0].Difficulty)
	assert.InDelta(t, 0.88, hits[0].Score, 1e-9)
}

func TestChromaVectorRepository_RequiresCollection(t *testing.T) {
	client, _ := newFakeChroma(t, http.NewServeMux())
	repo := NewChromaVectorRepository(client)
	ctx := context.Background()

	err := repo.StoreIssue(ctx, &models.Issue{Id: "x", Title: "X"}, []float32{0.1})
	assert.ErrorContains(t, err, "not initialized")

	_, err = repo.QuerySimilar(ctx, []float32{0.1}, 3)
	assert.ErrorContains(t, err, "not initialized")

	assert.ErrorContains(t, repo.DeleteIssue(ctx, "x"), "not initialized")
}
