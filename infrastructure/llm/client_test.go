package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "ekg-backend/pkg/errors"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		DiscoveryModel:  "discovery-model",
		GenerationModel: "generation-model",
	}, zap.NewNop())
}

func TestClientSendsFileSearchRequest(t *testing.T) {
	var captured responseRequest
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/responses", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(apiResponse{
			ID:         "resp-1",
			Status:     "completed",
			OutputText: "answer text",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Generate(context.Background(), "the prompt", "vs-123", true, map[string]string{"domain": "acme"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "generation-model", captured.Model)
	require.Len(t, captured.Input, 1)
	assert.Equal(t, "user", captured.Input[0].Role)
	assert.Equal(t, "the prompt", captured.Input[0].Content)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "file_search", captured.Tools[0].Type)
	assert.Equal(t, []string{"vs-123"}, captured.Tools[0].VectorStoreIDs)
	assert.True(t, captured.Background)
	assert.Equal(t, "acme", captured.Metadata["domain"])

	assert.Equal(t, "resp-1", result.ID)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "answer text", result.OutputText)
}

func TestClientDiscoverOmitsToolsWithoutCorpus(t *testing.T) {
	var captured responseRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(apiResponse{Status: "completed", OutputText: "{}"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Discover(context.Background(), "analyze this", "")
	require.NoError(t, err)

	assert.Equal(t, "discovery-model", captured.Model)
	assert.Empty(t, captured.Tools)
	assert.False(t, captured.Background)
}

func TestClientJoinsMessageContentFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{
			Status: "completed",
			Output: []outputItem{
				{Type: "file_search_call"},
				{Type: "message", Content: []contentPart{
					{Type: "output_text", Text: "part one"},
					{Type: "output_text", Text: "part two"},
				}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Generate(context.Background(), "p", "vs", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "part one\npart two", result.OutputText)
}

func TestClientExtractsAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{
			Status:     "completed",
			OutputText: "cited answer",
			Output: []outputItem{
				{Type: "message", Content: []contentPart{{
					Type: "output_text",
					Text: "cited answer",
					Annotations: []apiAnnotation{
						{Type: "file_citation", Filename: "handbook.pdf", FileID: "file-1"},
						{Type: "file_citation", Title: "Ledger"},
					},
				}}},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Generate(context.Background(), "p", "vs", false, nil)
	require.NoError(t, err)

	require.Len(t, result.Annotations, 2)
	assert.Equal(t, "handbook.pdf", result.Annotations[0].Filename)
	assert.Equal(t, "file-1", result.Annotations[0].FileID)
	assert.Equal(t, "Ledger", result.Annotations[1].Title)
}

func TestClientSurfacesAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(apiErrorEnvelope{Error: &apiError{Type: "rate_limit", Message: "quota exceeded"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), "p", "vs", false, nil)
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Error(), "quota exceeded")
}

func TestClientSurfacesInBandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{
			Status: "failed",
			Error:  &apiError{Type: "server_error", Message: "backend exploded"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), "p", "vs", false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), "p", "vs", false, nil)
		require.Error(t, err)
	}

	// The sixth call fails fast without touching the server.
	_, err := client.Generate(context.Background(), "p", "vs", false, nil)
	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.ErrorTypeUnavailable, appErr.Type)
}
