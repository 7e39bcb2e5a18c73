package vectorstore

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// LocalStore is a generalization of the teacher's chromemSearcher: one
// chromem-go persistent database rooted at a base directory, holding one
// collection per repository, adapted from
// ContextChunk-shaped documents to this package's backend-neutral Point
// shape. chromem-go's query surface is purely vector-similarity; metadata-
// only Get (the vector store contract's `get`, as opposed to `query`) is
// served from a parallel in-memory index kept alongside the collection,
// mirroring the teacher's habit of keeping a ChunkManager index separate
// from the chromem collection it feeds.
type LocalStore struct {
	db *chromem.DB

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	points      map[string]map[string]Point
}

// NewLocalStore opens (or creates) a persistent chromem-go database rooted
// at baseDir, e.g. "<working-dir>/.contextinator/chromadb".
func NewLocalStore(baseDir string) (*LocalStore, error) {
	db, err := chromem.NewPersistentDB(baseDir, false)
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "open local vector store at %s", baseDir)
	}
	return &LocalStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
		points:      make(map[string]map[string]Point),
	}, nil
}

func (s *LocalStore) Using() string { return "local" }

func (s *LocalStore) Heartbeat(ctx context.Context) error { return nil }

func (s *LocalStore) CreateCollection(ctx context.Context, name string) error {
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return contextinatorerrors.VectorStoreError(err, "create collection %s", name)
	}
	s.mu.Lock()
	s.collections[name] = col
	if s.points[name] == nil {
		s.points[name] = make(map[string]Point)
	}
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) GetCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	col := s.collectionFor(name)
	if col == nil {
		return nil, contextinatorerrors.VectorStoreError(nil, "collection %s does not exist", name)
	}
	return &CollectionInfo{Name: name, Count: col.Count()}, nil
}

func (s *LocalStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.db.DeleteCollection(name); err != nil {
		return contextinatorerrors.VectorStoreError(err, "delete collection %s", name)
	}
	s.mu.Lock()
	delete(s.collections, name)
	delete(s.points, name)
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) Upsert(ctx context.Context, collection string, points []Point, batchSize int, clearExisting bool) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	col := s.collectionFor(collection)
	if clearExisting && col != nil && col.Count() > 0 {
		if err := s.DeleteCollection(ctx, collection); err != nil {
			return 0, err
		}
		col = nil
	}
	if col == nil {
		if err := s.CreateCollection(ctx, collection); err != nil {
			return 0, err
		}
		col = s.collectionFor(collection)
	}

	written := 0
	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]

		docs := make([]chromem.Document, len(batch))
		for i, p := range batch {
			docs[i] = chromem.Document{
				ID:        p.ID,
				Content:   p.Document,
				Embedding: p.Vector,
				Metadata:  p.Metadata,
			}
		}
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			log.Printf("vectorstore: upsert batch [%d,%d) into %s failed, skipping: %v", start, end, collection, err)
			continue
		}

		s.mu.Lock()
		for _, p := range batch {
			s.points[collection][p.ID] = p
		}
		s.mu.Unlock()
		written += len(batch)
	}

	if written == 0 && len(points) > 0 {
		return 0, contextinatorerrors.VectorStoreError(nil, "all upsert batches failed for collection %s", collection)
	}
	return written, nil
}

func (s *LocalStore) Get(ctx context.Context, collection string, filter Filter, limit int) ([]Point, error) {
	s.mu.RLock()
	index := s.points[collection]
	s.mu.RUnlock()
	if index == nil {
		return nil, contextinatorerrors.VectorStoreError(nil, "collection %s does not exist", collection)
	}

	var out []Point
	for _, p := range index {
		if !matchesFilter(p, filter) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *LocalStore) Query(ctx context.Context, collection string, vector []float32, nResults int, filter Filter) ([]ScoredPoint, error) {
	col := s.collectionFor(collection)
	if col == nil {
		return nil, contextinatorerrors.VectorStoreError(nil, "collection %s does not exist", collection)
	}

	// Native WHERE filtering only expresses a single equality key; the rest
	// of filter.Equals and any DocumentContains check are applied
	// in-process below, same shape as the teacher's buildWhereFilter +
	// post-filter split.
	where := make(map[string]string)
	for k, v := range filter.Equals {
		where[k] = v
		break
	}

	fetch := nResults
	if len(filter.Equals) > 1 || filter.DocumentContains != "" {
		fetch = nResults * DefaultResultMultiplier
	}
	count := col.Count()
	if fetch <= 0 || fetch > count {
		fetch = count
	}
	if fetch == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, fetch, where, nil)
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "query collection %s", collection)
	}

	out := make([]ScoredPoint, 0, nResults)
	for _, r := range results {
		point := Point{ID: r.ID, Document: r.Content, Metadata: r.Metadata, Vector: r.Embedding}
		if !matchesFilter(point, filter) {
			continue
		}
		out = append(out, ScoredPoint{Point: point, Similarity: r.Similarity})
		if len(out) >= nResults {
			break
		}
	}
	return out, nil
}

func (s *LocalStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	infos := make([]CollectionInfo, 0)
	for name, col := range s.db.ListCollections() {
		infos = append(infos, CollectionInfo{Name: name, Count: col.Count()})
	}
	return infos, nil
}

func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) collectionFor(name string) *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if col, ok := s.collections[name]; ok {
		return col
	}
	return s.db.GetCollection(name, nil)
}

// DefaultResultMultiplier controls over-fetching headroom so in-process
// post-filtering still has enough candidates left to reach nResults.
const DefaultResultMultiplier = 2

// matchesFilter applies the portion of a Filter the backend's native query
// couldn't express.
func matchesFilter(p Point, filter Filter) bool {
	for k, v := range filter.Equals {
		if p.Metadata[k] != v {
			return false
		}
	}
	if filter.DocumentContains != "" && !strings.Contains(p.Document, filter.DocumentContains) {
		return false
	}
	return true
}
