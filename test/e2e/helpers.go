//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/veccache/internal/api/handlers"
	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/logging"
	"github.com/cloo-solutions/veccache/internal/server"
	"github.com/cloo-solutions/veccache/internal/source"
	"github.com/cloo-solutions/veccache/internal/testutil"
)

// E2ETestEnv holds all resources needed for end-to-end tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Source     *source.PostgresSource
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts a pgvector container, runs migrations and serves the
// full router over it
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	src := source.NewPostgresSource(pool)
	scopes := cache.NewScopeManager(domain.DefaultCacheConfig(), logging.NewNopLogger())
	handler := handlers.NewCacheHandler(scopes, src, nil)
	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{CacheHandler: handler}))

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Source:     src,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// SeedVectors inserts entries into the knowledge_vectors table for a scope
func (e *E2ETestEnv) SeedVectors(scope domain.Scope, entries []domain.VectorEntry) {
	for _, entry := range entries {
		if err := e.Source.InsertVector(e.Ctx, scope, entry); err != nil {
			e.T.Fatalf("failed to seed vector %s: %v", entry.Item.ID, err)
		}
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (int, *APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body
func (e *E2ETestEnv) Post(path string, body interface{}) (int, *APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (int, *APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (int, *APIResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var apiResp APIResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &apiResp); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("failed to parse response %q: %w", raw, err)
		}
	}
	return resp.StatusCode, &apiResp, nil
}

// ScopePath builds the API path prefix for a scope
func ScopePath(scope domain.Scope) string {
	return fmt.Sprintf("/scopes/%s/%s", scope.OrgID, scope.ChatbotConfigID)
}

// BasisVector returns a 1536-dimension vector with a single hot axis.
// Distinct axes give exactly zero pairwise similarity, which makes
// search assertions deterministic.
func BasisVector(axis int) []float32 {
	vec := make([]float32, 1536)
	vec[axis%1536] = 1
	return vec
}

// BlendVector returns a 1536-dimension vector leaning toward one axis
// with a small component on another, for non-trivial rankings.
func BlendVector(mainAxis, sideAxis int) []float32 {
	vec := make([]float32, 1536)
	vec[mainAxis%1536] = 0.9
	vec[sideAxis%1536] = 0.1
	return vec
}
