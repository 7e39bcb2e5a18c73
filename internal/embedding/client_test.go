package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextinator/contextinator/internal/chunking"
)

func TestHTTPClientEmbedReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embeddingsResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(i)}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", "test-model", 1)
	vectors, err := client.Embed(context.Background(), []string{"a", "b", "c"}, ModePassage)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0}, vectors[0])
	assert.Equal(t, []float32{1}, vectors[1])
	assert.Equal(t, []float32{2}, vectors[2])
}

func TestHTTPClientEmbedClassifiesRateLimitAsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", "test-model", 3)
	_, err := client.Embed(context.Background(), []string{"a"}, ModePassage)
	require.Error(t, err)
	assert.True(t, isRetryable(err))
}

func TestHTTPClientEmbedClassifiesBadRequestAsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad model"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", "test-model", 3)
	_, err := client.Embed(context.Background(), []string{"a"}, ModePassage)
	require.Error(t, err)
	assert.False(t, isRetryable(err))
}

func TestHTTPClientEmbedMismatchedVectorCountIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingsResponse{})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "key", "test-model", 3)
	_, err := client.Embed(context.Background(), []string{"a", "b"}, ModePassage)
	require.Error(t, err)
	assert.False(t, isRetryable(err))
}

func TestValidateAndTruncateRejectsBlank(t *testing.T) {
	ok, _ := validateAndTruncate("   \n\t  ")
	assert.False(t, ok)
}

func TestValidateAndTruncateLeavesShortContentAlone(t *testing.T) {
	ok, out := validateAndTruncate("package main\n\nfunc main() {}\n")
	assert.True(t, ok)
	assert.Equal(t, "package main\n\nfunc main() {}\n", out)
}

func TestValidateAndTruncateCutsOversizedContent(t *testing.T) {
	content := strings.Repeat("x", maxTokensPerInput*5)
	ok, out := validateAndTruncate(content)
	assert.True(t, ok)
	assert.True(t, len(out) < len(content))
	assert.True(t, strings.HasSuffix(out, "\n... (truncated)"))
}

func TestContentForPrefersEnrichedContent(t *testing.T) {
	c := chunking.Chunk{Content: "raw", EnrichedContent: "enriched"}
	assert.Equal(t, "enriched", contentFor(c))

	c2 := chunking.Chunk{Content: "raw"}
	assert.Equal(t, "raw", contentFor(c2))
}
