package vectorstore

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// RemoteStore adapts Store to a Qdrant server, grounded on the go-client
// dependency declared (but not yet exercised) in rajajisai-bot-go's and
// jamaly87-codebase-semantic-search's go.mod files.
type RemoteStore struct {
	client     *qdrant.Client
	vectorSize uint64
}

// RemoteConfig configures a Qdrant connection.
type RemoteConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	VectorSize int
}

// NewRemoteStore dials a Qdrant server. Dialing itself does not prove
// reachability; callers should call Heartbeat before relying on the store.
func NewRemoteStore(cfg RemoteConfig) (*RemoteStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "dial qdrant at %s:%d", cfg.Host, cfg.Port)
	}
	return &RemoteStore{client: client, vectorSize: uint64(cfg.VectorSize)}, nil
}

func (s *RemoteStore) Using() string { return "remote" }

func (s *RemoteStore) Heartbeat(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return contextinatorerrors.VectorStoreError(err, "heartbeat")
	}
	return nil
}

func (s *RemoteStore) CreateCollection(ctx context.Context, name string) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return contextinatorerrors.VectorStoreError(err, "create collection %s", name)
	}
	return nil
}

func (s *RemoteStore) GetCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "get collection %s", name)
	}
	count := 0
	if info.GetPointsCount() > 0 {
		count = int(info.GetPointsCount())
	}
	return &CollectionInfo{Name: name, Count: count}, nil
}

func (s *RemoteStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return contextinatorerrors.VectorStoreError(err, "delete collection %s", name)
	}
	return nil
}

func (s *RemoteStore) Upsert(ctx context.Context, collection string, points []Point, batchSize int, clearExisting bool) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	info, err := s.GetCollection(ctx, collection)
	exists := err == nil
	if clearExisting && exists && info.Count > 0 {
		if err := s.DeleteCollection(ctx, collection); err != nil {
			return 0, err
		}
		exists = false
	}
	if !exists {
		if err := s.CreateCollection(ctx, collection); err != nil {
			return 0, err
		}
	}

	written := 0
	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]

		qpoints := make([]*qdrant.PointStruct, len(batch))
		for i, p := range batch {
			qpoints[i] = &qdrant.PointStruct{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(payloadFor(p)),
			}
		}

		wait := true
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         qpoints,
			Wait:           &wait,
		})
		if err != nil {
			log.Printf("vectorstore: upsert batch [%d,%d) into %s failed, skipping: %v", start, end, collection, err)
			continue
		}
		written += len(batch)
	}

	if written == 0 && len(points) > 0 {
		return 0, contextinatorerrors.VectorStoreError(nil, "all upsert batches failed for collection %s", collection)
	}
	return written, nil
}

func (s *RemoteStore) Get(ctx context.Context, collection string, filter Filter, limit int) ([]Point, error) {
	result, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         qdrantFilter(filter.Equals),
		Limit:          qdrant.PtrOf(uint32(scrollLimit(limit))),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "get from collection %s", collection)
	}

	out := make([]Point, 0, len(result))
	for _, r := range result {
		point := pointFromRetrieved(r)
		if filter.DocumentContains != "" && !containsSubstring(point.Document, filter.DocumentContains) {
			continue
		}
		out = append(out, point)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *RemoteStore) Query(ctx context.Context, collection string, vector []float32, nResults int, filter Filter) ([]ScoredPoint, error) {
	limit := uint64(nResults)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qdrantFilter(filter.Equals),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "query collection %s", collection)
	}

	out := make([]ScoredPoint, 0, len(results))
	for _, r := range results {
		point := Point{
			ID:       idString(r.GetId()),
			Vector:   vectorFromOutput(r.GetVectors()),
			Metadata: payloadToMetadata(r.GetPayload()),
		}
		point.Document = point.Metadata["content"]
		if filter.DocumentContains != "" && !containsSubstring(point.Document, filter.DocumentContains) {
			continue
		}
		out = append(out, ScoredPoint{Point: point, Similarity: r.GetScore()})
	}
	return out, nil
}

func (s *RemoteStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, contextinatorerrors.VectorStoreError(err, "list collections")
	}
	infos := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := s.GetCollection(ctx, name)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

func (s *RemoteStore) Close() error {
	return s.client.Close()
}

func payloadFor(p Point) map[string]any {
	payload := map[string]any{"content": p.Document}
	for k, v := range p.Metadata {
		payload[k] = v
	}
	return payload
}

func payloadToMetadata(payload map[string]*qdrant.Value) map[string]string {
	m := make(map[string]string, len(payload))
	for k, v := range payload {
		m[k] = v.GetStringValue()
	}
	return m
}

func pointFromRetrieved(r *qdrant.RetrievedPoint) Point {
	metadata := payloadToMetadata(r.GetPayload())
	return Point{
		ID:       idString(r.GetId()),
		Vector:   vectorFromOutput(r.GetVectors()),
		Metadata: metadata,
		Document: metadata["content"],
	}
}

func vectorFromOutput(v *qdrant.VectorsOutput) []float32 {
	if v == nil || v.GetVector() == nil {
		return nil
	}
	return v.GetVector().GetData()
}

func idString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func qdrantFilter(equals map[string]string) *qdrant.Filter {
	if len(equals) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(equals))
	for k, v := range equals {
		conditions = append(conditions, qdrant.NewMatch(k, v))
	}
	return &qdrant.Filter{Must: conditions}
}

func scrollLimit(limit int) int {
	if limit <= 0 {
		return 1000
	}
	return limit
}

func containsSubstring(haystack, needle string) bool {
	return needle == "" || strings.Contains(haystack, needle)
}
