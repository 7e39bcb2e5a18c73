package embedding

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

const (
	defaultBatchSize     = 250
	defaultMaxConcurrent = 5
	maxAttempts          = 4
)

// Progress reports embedding progress for a CLI progress bar or similar.
type Progress struct {
	ProcessedChunks int
	TotalChunks     int
}

// Sync embeds chunks batch-by-batch, sequentially, skipping (and logging)
// any batch that fails after retries rather than aborting the whole run.
// It returns whatever succeeded; the caller can tell from the returned
// count versus len(chunks) whether some chunks were dropped. Returns an
// error only if every chunk failed to embed or none were valid to begin
// with.
func Sync(ctx context.Context, provider Provider, chunks []chunking.Chunk, progressCh chan<- Progress) ([]chunking.EmbeddedChunk, error) {
	if inAsyncContext(ctx) {
		panic("embedding.Sync called from within an async embedding context")
	}
	valid, err := prepare(chunks)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		return nil, contextinatorerrors.EmbeddingError("no valid chunks found to embed")
	}

	var embedded []chunking.EmbeddedChunk
	var failedBatches int
	processed := 0

	for start := 0; start < len(valid); start += defaultBatchSize {
		end := start + defaultBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		vectors, err := embedBatchWithRetry(ctx, provider, batch)
		if err != nil {
			log.Printf("batch %s failed, skipping %d chunks: %v", fmtBatchRange(start, len(batch)), len(batch), err)
			failedBatches++
			processed += len(batch)
			if progressCh != nil {
				progressCh <- Progress{ProcessedChunks: processed, TotalChunks: len(valid)}
			}
			continue
		}

		for i, v := range vectors {
			embedded = append(embedded, chunking.EmbeddedChunk{
				Chunk:          batch[i].preprocessed,
				Embedding:      v,
				EmbeddingModel: provider.Model(),
				OriginalIndex:  batch[i].originalIndex,
			})
		}
		processed += len(batch)
		if progressCh != nil {
			progressCh <- Progress{ProcessedChunks: processed, TotalChunks: len(valid)}
		}
	}

	if len(embedded) == 0 {
		return nil, contextinatorerrors.EmbeddingError("all embedding batches failed, no embeddings generated")
	}
	if failedBatches > 0 {
		log.Printf("embedding completed with %d failed batch(es); %d/%d chunks embedded", failedBatches, len(embedded), len(valid))
	}
	return embedded, nil
}

// Async embeds chunks in batches of defaultBatchSize (250), with up to
// defaultMaxConcurrent (5) batches in flight at once.
// Unlike Sync, a batch that exhausts its retries fails the entire call: the
// caller asked for throughput, and a partial result from a fail-fast mode
// would be surprising. Calling Async from a context already produced by
// Async itself panics, mirroring the "no nested event loop" guard the
// system this pipeline is modeled on uses to keep sync and concurrent
// embedding entry points from silently stacking.
func Async(ctx context.Context, provider Provider, chunks []chunking.Chunk) ([]chunking.EmbeddedChunk, error) {
	if inAsyncContext(ctx) {
		panic("embedding.Async called recursively from within an already-async embedding context")
	}
	ctx = withAsyncMarker(ctx)

	valid, err := prepare(chunks)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		return nil, contextinatorerrors.EmbeddingError("no valid chunks found to embed")
	}

	var batches [][]preparedChunk
	for start := 0; start < len(valid); start += defaultBatchSize {
		end := start + defaultBatchSize
		if end > len(valid) {
			end = len(valid)
		}
		batches = append(batches, valid[start:end])
	}

	results := make([][]chunking.EmbeddedChunk, len(batches))
	sem := semaphore.NewWeighted(int64(defaultMaxConcurrent))
	group, gctx := errgroup.WithContext(ctx)

	for i, batch := range batches {
		i, batch := i, batch
		group.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			vectors, err := embedBatchWithRetry(gctx, provider, batch)
			if err != nil {
				return contextinatorerrors.EmbeddingErrorWrap(err, "batch %s failed", fmtBatchRange(i*defaultBatchSize, len(batch)))
			}
			out := make([]chunking.EmbeddedChunk, len(vectors))
			for j, v := range vectors {
				out[j] = chunking.EmbeddedChunk{
					Chunk:          batch[j].preprocessed,
					Embedding:      v,
					EmbeddingModel: provider.Model(),
					OriginalIndex:  batch[j].originalIndex,
				}
			}
			results[i] = out
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, contextinatorerrors.EmbeddingErrorWrap(err, "async embedding failed")
	}

	var embedded []chunking.EmbeddedChunk
	for _, r := range results {
		embedded = append(embedded, r...)
	}
	return embedded, nil
}

type preparedChunk struct {
	preprocessed  chunking.Chunk
	content       string
	originalIndex int
}

func prepare(chunks []chunking.Chunk) ([]preparedChunk, error) {
	var out []preparedChunk
	for i, c := range chunks {
		ok, processed := validateAndTruncate(contentFor(c))
		if !ok {
			continue
		}
		updated := c
		if processed != contentFor(c) {
			if updated.EnrichedContent != "" {
				updated.EnrichedContent = processed
			} else {
				updated.Content = processed
			}
		}
		out = append(out, preparedChunk{preprocessed: updated, content: processed, originalIndex: i})
	}
	return out, nil
}

func embedBatchWithRetry(ctx context.Context, provider Provider, batch []preparedChunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, b := range batch {
		texts[i] = b.content
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		vectors, err := provider.Embed(ctx, texts, ModePassage)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * time.Second):
		}
	}
	return nil, lastErr
}
