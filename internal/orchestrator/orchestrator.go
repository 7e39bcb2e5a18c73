// Package orchestrator composes discovery, chunking, embedding, and
// vector-store upsert into the end-to-end single-repo and batch ingestion
// pipelines.
package orchestrator

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/config"
	"github.com/contextinator/contextinator/internal/discovery"
	"github.com/contextinator/contextinator/internal/embedding"
	gitutil "github.com/contextinator/contextinator/internal/git"
	"github.com/contextinator/contextinator/internal/persistence"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

// Options controls one repo's run through the pipeline.
type Options struct {
	// CollectionName overrides the sanitized-repo default collection name.
	CollectionName string
	// ClearExisting wipes the vector-store collection before upserting.
	ClearExisting bool
	// PersistManifests writes chunks.json/embeddings.json under BaseDir.
	PersistManifests bool
	// BaseDir roots on-disk manifests, e.g. the current working directory's
	// ".contextinator". The vector store is built by the caller.
	BaseDir string
	// Cleanup removes a cloned repo's temp directory after the run,
	// success or failure. Ignored for local paths.
	Cleanup bool
}

// Stats reports per-stage outcomes for one repo's run, matching spec
// §4.11's { files_ok, files_failed, unique_chunks, duplicates, split_chunks }.
type Stats struct {
	FilesOK      int
	FilesFailed  int
	UniqueChunks int
	Duplicates   int
	SplitChunks  int
	Embedded     int
	Upserted     int
}

// Result is one repo's outcome: either Stats on success, or Err on failure.
// RepoURLOrPath echoes the input so batch callers can report per-repo
// outcomes without threading extra state.
type Result struct {
	RepoURLOrPath string
	Collection    string
	Stats         Stats
	Err           error
}

// Orchestrator wires a Config to the ingestion pipeline's dependencies.
type Orchestrator struct {
	cfg      *config.Config
	provider embedding.Provider
	store    vectorstore.Store
}

// New builds an Orchestrator. provider and store are constructed by the
// caller (typically the CLI) so tests can substitute fakes.
func New(cfg *config.Config, provider embedding.Provider, store vectorstore.Store) *Orchestrator {
	return &Orchestrator{cfg: cfg, provider: provider, store: store}
}

// Process runs the single-repo pipeline: clone (if repoURLOrPath is a URL),
// discover, parse+extract, collect, split, embed, upsert. Cleanup of a
// cloned directory happens on every exit path when opts.Cleanup is set.
func (o *Orchestrator) Process(ctx context.Context, repoURLOrPath string, opts Options) (Stats, error) {
	var stats Stats

	repoPath := repoURLOrPath
	var cloned string
	if isRemoteURL(repoURLOrPath) {
		dir, err := gitutil.CloneShallow(ctx, repoURLOrPath, "", o.cfg.Git.CloneTimeout)
		if err != nil {
			return stats, err
		}
		cloned = dir
		repoPath = dir
	}
	if opts.Cleanup && cloned != "" {
		defer gitutil.Cleanup(cloned)
	}

	disc, err := discovery.New(repoPath, o.cfg.Discovery.Ignore)
	if err != nil {
		return stats, err
	}
	files, err := disc.DiscoverFiles()
	if err != nil {
		return stats, err
	}

	collector := chunking.NewCollector()
	for _, f := range files {
		nodes, err := chunking.ParseFromDisk(f)
		if err != nil {
			log.Printf("orchestrator: skipping %s: %v", f.Path, err)
			stats.FilesFailed++
			continue
		}
		collector.CollectFile(nodes)
		stats.FilesOK++
	}

	collectorStats := collector.Stats()
	stats.UniqueChunks = collectorStats.UniqueHashes
	stats.Duplicates = collectorStats.DuplicatesFound

	var splitChunks []chunking.Chunk
	for _, c := range collector.Chunks() {
		splits, err := chunking.SplitChunk(c, o.cfg.Chunking.MaxTokens, o.cfg.Chunking.Overlap, o.provider.Model())
		if err != nil {
			log.Printf("orchestrator: failed to split chunk %s: %v", c.ID, err)
			continue
		}
		splitChunks = append(splitChunks, splits...)
		if len(splits) > 1 {
			stats.SplitChunks += len(splits)
		}
	}

	collectionName := opts.CollectionName
	if collectionName == "" {
		collectionName = vectorstore.SanitizeCollectionName(repoName(repoURLOrPath))
	}

	if opts.PersistManifests && opts.BaseDir != "" {
		w, err := persistence.NewWriter(opts.BaseDir)
		if err != nil {
			return stats, err
		}
		if err := w.WriteChunks(collectionName, splitChunks, collectorStats); err != nil {
			return stats, err
		}
	}

	embedded, err := embedding.Async(ctx, o.provider, splitChunks)
	if err != nil {
		return stats, err
	}
	stats.Embedded = len(embedded)

	if opts.PersistManifests && opts.BaseDir != "" {
		w, err := persistence.NewWriter(opts.BaseDir)
		if err != nil {
			return stats, err
		}
		if err := w.WriteEmbeddings(collectionName, o.cfg.Embedding.Model, embedded); err != nil {
			return stats, err
		}
	}

	points := make([]vectorstore.Point, len(embedded))
	for i, e := range embedded {
		points[i] = vectorstore.PointFromEmbeddedChunk(e)
	}

	written, err := o.store.Upsert(ctx, collectionName, points, o.cfg.VectorStore.BatchSize, opts.ClearExisting)
	if err != nil {
		return stats, err
	}
	stats.Upserted = written

	return stats, nil
}

// ProcessBatch runs Process concurrently across repos under a semaphore of
// maxConcurrent permits. Each repo's outcome is independent; one repo's
// failure never aborts its peers.
func (o *Orchestrator) ProcessBatch(ctx context.Context, repos []string, opts Options, maxConcurrent int) []Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	sem := semaphore.NewWeighted(int64(maxConcurrent))
	results := make([]Result, len(repos))

	var wg sync.WaitGroup
	for i, repo := range repos {
		i, repo := i, repo
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{RepoURLOrPath: repo, Err: err}
				return
			}
			defer sem.Release(1)

			stats, err := o.Process(ctx, repo, opts)
			results[i] = Result{RepoURLOrPath: repo, Stats: stats, Err: err}
		}()
	}
	wg.Wait()
	return results
}

func isRemoteURL(repoURLOrPath string) bool {
	if _, err := os.Stat(repoURLOrPath); err == nil {
		return false
	}
	return hasScheme(repoURLOrPath) || hasGitSuffix(repoURLOrPath)
}

func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ':':
			return i > 0
		case '/':
			return false
		}
	}
	return false
}

func hasGitSuffix(s string) bool {
	return len(s) > 4 && s[len(s)-4:] == ".git"
}

// repoName derives a default collection name from the original
// repoURLOrPath the caller gave us, never from a clone's temporary
// directory path: "https://github.com/org/repo.git" and
// "git@github.com:org/repo.git" both yield "repo".
func repoName(repoURLOrPath string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(repoURLOrPath, "/"), ".git")
	return filepath.Base(trimmed)
}
