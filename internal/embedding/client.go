package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// maxTokensPerInput is the provider-side input token ceiling; content over
// this is truncated before being sent, rather than rejected outright.
const maxTokensPerInput = 8191

// HTTPClient talks to an OpenAI-compatible "/embeddings" endpoint. No
// dedicated SDK for this wire contract ships with any example in the
// retrieval pack, so this is built directly on net/http, the idiomatic
// fallback this ecosystem reaches for when no client library is already
// in the dependency set.
type HTTPClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewHTTPClient builds a client against an OpenAI-compatible embeddings
// endpoint (e.g. "https://api.openai.com/v1/embeddings" or a local
// OpenAI-shaped server).
func NewHTTPClient(endpoint, apiKey, model string, dimensions int) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPClient) Dimensions() int { return c.dimensions }
func (c *HTTPClient) Model() string   { return c.model }
func (c *HTTPClient) Close() error    { return nil }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed sends one request for the whole batch of texts. Callers are
// expected to have already size-bounded and validated the batch (see
// validateAndTruncate); this method does not itself batch or retry — that
// policy lives in the Sync/Async orchestration in batch.go, matching the
// system this was modeled on keeping wire-level calls and retry/backoff
// policy as separate layers.
func (c *HTTPClient) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, contextinatorerrors.EmbeddingErrorWrap(err, "marshal embeddings request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, contextinatorerrors.EmbeddingErrorWrap(err, "build embeddings request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &classifiedError{retryable: true, err: contextinatorerrors.EmbeddingErrorWrap(err, "embeddings request")}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &classifiedError{retryable: true, err: contextinatorerrors.EmbeddingErrorWrap(err, "read embeddings response")}
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, &classifiedError{
			retryable: retryable,
			err:       contextinatorerrors.EmbeddingError("embeddings endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))),
		}
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &classifiedError{retryable: false, err: contextinatorerrors.EmbeddingErrorWrap(err, "parse embeddings response")}
	}
	if parsed.Error != nil {
		return nil, &classifiedError{retryable: false, err: contextinatorerrors.EmbeddingError("embeddings endpoint error: %s", parsed.Error.Message)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &classifiedError{retryable: false, err: contextinatorerrors.EmbeddingError("embeddings response had %d vectors for %d inputs", len(parsed.Data), len(texts))}
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &classifiedError{retryable: false, err: contextinatorerrors.EmbeddingError("embeddings response index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// classifiedError records whether an embedding call is worth retrying.
// Network errors, 429s, and 5xx responses are retryable; everything else
// (bad request, auth failure, malformed response) is not.
type classifiedError struct {
	retryable bool
	err       error
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	if ce, ok := err.(*classifiedError); ok {
		return ce.retryable
	}
	// Unknown errors default to retryable: conservative, since a spurious
	// failure shouldn't waste a whole batch's content.
	return true
}

// contentFor returns the text that should actually be embedded for a
// chunk: its enriched content if present, otherwise its raw content.
func contentFor(c chunking.Chunk) string {
	if c.EnrichedContent != "" {
		return c.EnrichedContent
	}
	return c.Content
}

// validateAndTruncate rejects empty/whitespace-only content and truncates
// anything estimated to exceed the provider's token ceiling to about 90%
// of the limit, flagging the cut with a trailing marker so it's visible in
// the embedded text itself.
func validateAndTruncate(content string) (ok bool, processed string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false, ""
	}
	estimatedTokens := len(content) / 4
	if estimatedTokens <= maxTokensPerInput {
		return true, content
	}
	maxChars := int(float64(maxTokensPerInput) * 4 * 0.9)
	if maxChars > len(content) {
		maxChars = len(content)
	}
	return true, content[:maxChars] + "\n... (truncated)"
}

func fmtBatchRange(start, count int) string {
	return fmt.Sprintf("[%d,%d)", start, start+count)
}
