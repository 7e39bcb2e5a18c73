package chunking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Collector deduplicates raw nodes by content hash across an entire
// repository's worth of files. It is single-writer: one Collector instance
// is shared across every file processed for a repository so duplicate code
// anywhere in the tree is caught, not just within one file.
type Collector struct {
	seenHashes         map[string]bool
	chunks             []Chunk
	duplicateLocations map[string][]string
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		seenHashes:         make(map[string]bool),
		duplicateLocations: make(map[string][]string),
	}
}

// CollectFile converts one file's raw nodes into chunks, recording
// duplicates (by content hash) rather than emitting them again, and
// returns the chunks newly accepted from this file.
func (c *Collector) CollectFile(nodes []RawNode) []Chunk {
	var accepted []Chunk
	for _, n := range nodes {
		hash := hashContent(n.Content)
		location := fmt.Sprintf("%s:%d-%d", n.FilePath, n.StartLine, n.EndLine)

		if c.seenHashes[hash] {
			c.duplicateLocations[hash] = append(c.duplicateLocations[hash], location)
			continue
		}
		c.seenHashes[hash] = true

		chunk := Chunk{
			ID:          n.ID,
			ParentID:    n.ParentID,
			ParentType:  n.ParentType,
			ParentName:  n.ParentName,
			ChildrenIDs: n.ChildrenIDs,
			IsParent:    n.IsParent,
			Content:     n.Content,
			FilePath:    n.FilePath,
			Language:    n.Language,
			NodeType:    n.NodeType,
			NodeName:    n.NodeName,
			StartLine:   n.StartLine,
			EndLine:     n.EndLine,
			StartByte:   n.StartByte,
			EndByte:     n.EndByte,
			Hash:        hash,
			Locations:   []string{location},
		}
		if n.HasCell {
			chunk.CellIndex = n.CellIndex
			chunk.CellType = n.CellType
		}
		chunk.EnrichedContent = buildEnrichedContent(n)

		c.chunks = append(c.chunks, chunk)
		accepted = append(accepted, chunk)
	}
	return accepted
}

// Chunks returns every chunk accepted so far, across all files collected.
func (c *Collector) Chunks() []Chunk {
	return c.chunks
}

// Stats summarizes the collector's state so far.
func (c *Collector) Stats() CollectorStats {
	return CollectorStats{
		TotalChunks:        len(c.chunks) + totalDuplicates(c.duplicateLocations),
		UniqueHashes:       len(c.seenHashes),
		DuplicatesFound:    totalDuplicates(c.duplicateLocations),
		DuplicateLocations: c.duplicateLocations,
	}
}

func totalDuplicates(m map[string][]string) int {
	n := 0
	for _, locs := range m {
		n += len(locs)
	}
	return n
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
