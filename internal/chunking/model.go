// Package chunking implements the extraction pipeline that turns a
// discovered source file into embeddable, deduplicated, size-bounded
// chunks: parsing (C3), node extraction (C4), notebook handling (C5),
// deduplication (C6), splitting (C7), and tokenization (C8).
package chunking

// FileRecord describes one file selected by discovery for processing.
type FileRecord struct {
	// Path is the file path relative to the repository root, forward-slash
	// separated regardless of host OS.
	Path     string
	AbsPath  string
	Language string
	IsDoc    bool
}

// RawNode is a single syntactic unit extracted from a file's AST, before
// deduplication or splitting.
type RawNode struct {
	ID         string
	ParentID   string
	ParentType string
	ParentName string
	ChildrenIDs []string
	IsParent   bool

	FilePath  string
	Language  string
	NodeType  string
	NodeName  string
	StartLine int
	EndLine   int
	StartByte int
	EndByte   int
	Content   string

	// CellIndex/CellType are set only for nodes extracted from notebook cells.
	CellIndex int
	CellType  string
	HasCell   bool
}

// Chunk is a deduplicated, enriched unit ready for splitting and embedding.
// It mirrors the field names original_source produces in its chunk dicts so
// manifests stay recognizable across the ecosystem.
type Chunk struct {
	ID              string   `json:"id"`
	ParentID        string   `json:"parent_id,omitempty"`
	ParentType      string   `json:"parent_type,omitempty"`
	ParentName      string   `json:"parent_name,omitempty"`
	ChildrenIDs     []string `json:"children_ids,omitempty"`
	IsParent        bool     `json:"is_parent"`

	Content         string `json:"content"`
	EnrichedContent string `json:"enriched_content"`

	FilePath  string `json:"file_path"`
	Language  string `json:"language"`
	NodeType  string `json:"node_type"`
	NodeName  string `json:"node_name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`

	Hash      string   `json:"hash"`
	Locations []string `json:"locations"`

	CellIndex int    `json:"cell_index,omitempty"`
	CellType  string `json:"cell_type,omitempty"`

	// Split-related fields, populated only when the chunk is a split product.
	IsSplit      bool   `json:"is_split,omitempty"`
	SplitIndex   int    `json:"split_index,omitempty"`
	OriginalID   string `json:"original_id,omitempty"`
	OriginalHash string `json:"original_hash,omitempty"`
	TokenCount   int    `json:"token_count,omitempty"`
}

// EmbeddedChunk pairs a Chunk with its vector representation.
type EmbeddedChunk struct {
	Chunk
	Embedding      []float32 `json:"embedding"`
	EmbeddingModel string    `json:"embedding_model"`
	// OriginalIndex is the chunk's position in the batch passed to the
	// embedding call, preserved so callers can recover input order even
	// after concurrent/retried dispatch.
	OriginalIndex int `json:"original_index"`
}

// CollectorStats summarizes one repository's collection pass.
type CollectorStats struct {
	TotalChunks        int            `json:"total_chunks"`
	UniqueHashes        int            `json:"unique_hashes"`
	DuplicatesFound     int            `json:"duplicates_found"`
	DuplicateLocations  map[string][]string `json:"duplicate_locations"`
}
