package embedding

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextinator/contextinator/internal/chunking"
)

type mockProvider struct {
	mu         sync.Mutex
	failTexts  map[string]int
	maxFails   int
	dimensions int
	calls      int
}

func (m *mockProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	for _, t := range texts {
		if m.failTexts != nil && m.failTexts[t] < m.maxFails {
			m.mu.Lock()
			m.failTexts[t]++
			m.mu.Unlock()
			return nil, &classifiedError{retryable: true, err: assertErr}
		}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (m *mockProvider) Dimensions() int { return m.dimensions }
func (m *mockProvider) Model() string   { return "mock-model" }
func (m *mockProvider) Close() error    { return nil }

var assertErr = &testError{}

type testError struct{}

func (e *testError) Error() string { return "mock failure" }

func makeChunks(n int) []chunking.Chunk {
	chunks := make([]chunking.Chunk, n)
	for i := range chunks {
		chunks[i] = chunking.Chunk{ID: string(rune('a' + i)), Content: "content"}
	}
	return chunks
}

func TestSyncFailsWhenEveryBatchExhaustsRetries(t *testing.T) {
	provider := &mockProvider{failTexts: map[string]int{}, maxFails: 10}
	chunks := makeChunks(3)

	embedded, err := Sync(context.Background(), provider, chunks, nil)
	require.Error(t, err)
	assert.Nil(t, embedded)
}

func TestSyncReturnsEmbeddingsWhenProviderSucceeds(t *testing.T) {
	provider := &mockProvider{dimensions: 1}
	chunks := makeChunks(5)

	embedded, err := Sync(context.Background(), provider, chunks, nil)
	require.NoError(t, err)
	assert.Len(t, embedded, 5)
}

func TestSyncRejectsEmptyChunks(t *testing.T) {
	provider := &mockProvider{}
	_, err := Sync(context.Background(), provider, []chunking.Chunk{{Content: "   "}}, nil)
	require.Error(t, err)
}

func TestAsyncReturnsEmbeddingsForAllChunks(t *testing.T) {
	provider := &mockProvider{dimensions: 1}
	chunks := makeChunks(600)

	embedded, err := Async(context.Background(), provider, chunks)
	require.NoError(t, err)
	assert.Len(t, embedded, 600)
}

func TestAsyncFailsEntireCallWhenABatchExhaustsRetries(t *testing.T) {
	provider := &mockProvider{failTexts: map[string]int{}, maxFails: 10}
	chunks := makeChunks(3)

	_, err := Async(context.Background(), provider, chunks)
	require.Error(t, err)
}

func TestAsyncPanicsWhenCalledFromWithinAsyncContext(t *testing.T) {
	provider := &mockProvider{dimensions: 1}
	ctx := withAsyncMarker(context.Background())

	assert.Panics(t, func() {
		Async(ctx, provider, makeChunks(1))
	})
}
