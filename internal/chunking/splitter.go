package chunking

import (
	"strings"

	"github.com/google/uuid"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// SplitChunk splits chunk into one or more chunks, each bounded by maxTokens,
// carrying `overlap` tokens of trailing context from one split into the next
// so downstream retrieval doesn't lose the seam between pieces. Splits
// inherit the source chunk's hash as OriginalHash for duplicate attribution,
// since the hash identifies the symbol the split pieces came from, not the
// post-split text.
func SplitChunk(chunk Chunk, maxTokens, overlap int, model string) ([]Chunk, error) {
	if maxTokens <= 0 {
		return nil, contextinatorerrors.ValidationError("max_tokens must be positive, got %d", maxTokens)
	}
	if overlap < 0 {
		return nil, contextinatorerrors.ValidationError("overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxTokens {
		return nil, contextinatorerrors.ValidationError("overlap (%d) must be less than max_tokens (%d)", overlap, maxTokens)
	}

	if chunk.Content == "" {
		return []Chunk{chunk}, nil
	}

	totalTokens := CountTokens(chunk.Content, model)
	if totalTokens <= maxTokens {
		return []Chunk{chunk}, nil
	}

	lines := strings.Split(chunk.Content, "\n")

	var splits []Chunk
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		splits = append(splits, buildSplitChunk(chunk, current, len(splits), model))
	}

	for _, line := range lines {
		lineTokens := CountTokens(line, model)
		if len(current) > 0 && currentTokens+lineTokens > maxTokens {
			flush()
			current = overlapLines(current, overlap, model)
			currentTokens = sumTokens(current, model)
			if currentTokens+lineTokens > maxTokens {
				current = nil
				currentTokens = 0
			}
		}
		current = append(current, line)
		currentTokens += lineTokens
	}
	flush()

	return splits, nil
}

// overlapLines returns the trailing lines of `lines` whose combined token
// count fits within overlapTokens, working backward from the end so the
// most recent context is preserved, then restoring front-to-back order.
func overlapLines(lines []string, overlapTokens int, model string) []string {
	if overlapTokens <= 0 || len(lines) == 0 {
		return nil
	}

	var kept []string
	total := 0
	for i := len(lines) - 1; i >= 0; i-- {
		t := CountTokens(lines[i], model)
		if total+t > overlapTokens {
			break
		}
		kept = append([]string{lines[i]}, kept...)
		total += t
	}
	return kept
}

func sumTokens(lines []string, model string) int {
	n := 0
	for _, l := range lines {
		n += CountTokens(l, model)
	}
	return n
}

func buildSplitChunk(original Chunk, lines []string, splitIndex int, model string) Chunk {
	content := strings.Join(lines, "\n")

	split := original
	split.ID = uuid.NewString()
	split.OriginalID = original.ID
	split.OriginalHash = original.Hash
	split.Content = content
	split.IsSplit = true
	split.SplitIndex = splitIndex
	split.TokenCount = CountTokens(content, model)
	split.EnrichedContent = buildEnrichedContentForChunk(original, content)
	return split
}

// buildEnrichedContentForChunk rebuilds the enriched-content header against
// a split's new content, using the original chunk's metadata for the header
// fields (location, symbol name, parent) since those describe the source
// node regardless of which piece this is.
func buildEnrichedContentForChunk(original Chunk, content string) string {
	n := RawNode{
		ParentID:   original.ParentID,
		ParentType: original.ParentType,
		ParentName: original.ParentName,
		FilePath:   original.FilePath,
		Language:   original.Language,
		NodeType:   original.NodeType,
		NodeName:   original.NodeName,
		StartLine:  original.StartLine,
		EndLine:    original.EndLine,
		Content:    content,
	}
	return buildEnrichedContent(n)
}
