// Package vectorstore adapts the chunk/embedding pipeline to a vector
// database, behind one Store interface with a local (chromem-go) and a
// remote (Qdrant) backend.
package vectorstore

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/contextinator/contextinator/internal/chunking"
)

// Point is one vector-store record: a chunk's embedding plus the metadata
// and document text needed to reconstruct a search result.
type Point struct {
	ID        string
	Vector    []float32
	Metadata  map[string]string
	Document  string
}

// Filter expresses an equality match over point metadata, plus an optional
// substring match over the document body for backends (or query paths)
// that support it natively.
type Filter struct {
	Equals           map[string]string
	DocumentContains string
}

// CollectionInfo reports on a collection's existence and size.
type CollectionInfo struct {
	Name  string
	Count int
}

// ScoredPoint is a query result: a Point plus its similarity to the query
// vector, already converted from distance (1 - distance) where the backend
// reports distance instead of similarity.
type ScoredPoint struct {
	Point
	Similarity float32
}

// Store is the thin contract every backend implements: collection
// lifecycle, batched upsert, and payload-filtered get/query.
type Store interface {
	Heartbeat(ctx context.Context) error
	CreateCollection(ctx context.Context, name string) error
	GetCollection(ctx context.Context, name string) (*CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error

	// Upsert adds or overwrites points in batches of batchSize. If
	// clearExisting is true and the collection already has points, it is
	// deleted and recreated first. Returns the number of points that were
	// actually written; per-batch failures are logged and skipped rather
	// than aborting the whole call.
	Upsert(ctx context.Context, collection string, points []Point, batchSize int, clearExisting bool) (int, error)

	Get(ctx context.Context, collection string, filter Filter, limit int) ([]Point, error)
	Query(ctx context.Context, collection string, vector []float32, nResults int, filter Filter) ([]ScoredPoint, error)

	// ListCollections enumerates every collection the backend currently
	// holds, for the `db list` CLI command.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// Using reports which backend actually serves requests: "remote" or
	// "local". NewStore may silently fall back to local after a failed
	// heartbeat, and callers/log lines want to know which one they got.
	Using() string

	Close() error
}

var collectionNameInvalid = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeCollectionName turns an arbitrary repository identifier into a
// valid collection name: replace any character outside [A-Za-z0-9._-] with
// "_", prepend "c" if the result doesn't start with an alphanumeric, force
// the last character to be alphanumeric, and truncate to 63 characters.
func SanitizeCollectionName(name string) string {
	sanitized := collectionNameInvalid.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "c"
	}
	if !isAlphanumeric(rune(sanitized[0])) {
		sanitized = "c" + sanitized
	}
	if len(sanitized) > 63 {
		sanitized = sanitized[:63]
	}
	for len(sanitized) > 0 && !isAlphanumeric(rune(sanitized[len(sanitized)-1])) {
		sanitized = sanitized[:len(sanitized)-1] + "0"
	}
	return sanitized
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// PointFromEmbeddedChunk converts a Chunk's scalar-serializable metadata
// (every field except content/enriched_content; fields whose value is empty,
// zero or false are left out) plus its embedding into a store Point. The document body is the chunk's original content, not the
// enriched one: enrichment is a retrieval-time/embedding-time concern, the
// persisted document should read like the source.
func PointFromEmbeddedChunk(c chunking.EmbeddedChunk) Point {
	return Point{
		ID:       c.ID,
		Vector:   c.Embedding,
		Metadata: metadataFor(c.Chunk),
		Document: c.Content,
	}
}

func metadataFor(c chunking.Chunk) map[string]string {
	m := map[string]string{
		"parent_id":     c.ParentID,
		"parent_type":   c.ParentType,
		"parent_name":   c.ParentName,
		"is_parent":     boolString(c.IsParent),
		"file_path":     c.FilePath,
		"language":      c.Language,
		"node_type":     c.NodeType,
		"node_name":     c.NodeName,
		"start_line":    intString(c.StartLine),
		"end_line":      intString(c.EndLine),
		"start_byte":    intString(c.StartByte),
		"end_byte":      intString(c.EndByte),
		"hash":          c.Hash,
		"cell_type":     c.CellType,
		"is_split":      boolString(c.IsSplit),
		"split_index":   intString(c.SplitIndex),
		"original_id":   c.OriginalID,
		"original_hash": c.OriginalHash,
		"token_count":   intString(c.TokenCount),
	}
	if c.CellIndex != 0 {
		m["cell_index"] = intString(c.CellIndex)
	}
	if len(c.ChildrenIDs) > 0 {
		m["children_ids"] = jsonEncode(c.ChildrenIDs)
	}
	if len(c.Locations) > 0 {
		m["locations"] = jsonEncode(c.Locations)
	}
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}

func jsonEncode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func intString(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSpace(jsonEncode(n))
}
