// Package embedding turns chunk content into vectors via an OpenAI-
// compatible HTTP embeddings endpoint, with synchronous (skip-and-continue)
// and concurrent (fail-fast) dispatch modes matching the two ways a batch
// ingestion pipeline needs to trade off completeness against latency.
package embedding

import "context"

// Mode specifies whether embeddings are for a search query or a passage
// being indexed; some providers use different instructions/prefixes for
// each.
type Mode string

const (
	ModeQuery   Mode = "query"
	ModePassage Mode = "passage"
)

// Provider converts text into vectors.
type Provider interface {
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
	Dimensions() int
	// Model names the embedding model in use, recorded on every
	// EmbeddedChunk produced from its output.
	Model() string
	Close() error
}

// asyncMarker is the context.Value key used by the async leakage guard: the
// async pipeline stamps its context so the sync entry point can refuse to
// run nested inside it instead of silently serializing concurrent work.
type asyncMarkerKey struct{}

func withAsyncMarker(ctx context.Context) context.Context {
	return context.WithValue(ctx, asyncMarkerKey{}, true)
}

func inAsyncContext(ctx context.Context) bool {
	v, _ := ctx.Value(asyncMarkerKey{}).(bool)
	return v
}
