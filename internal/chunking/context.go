package chunking

import (
	"fmt"
	"strings"
)

// buildEnrichedContent prepends a short header describing a node's
// location in the codebase to its content, so an embedding captures the
// symbol/file/parent context alongside the raw text. Returns content
// unchanged if there's nothing worth heading.
func buildEnrichedContent(n RawNode) string {
	var parts []string
	if n.ParentID != "" && n.ParentName != "" {
		parts = append(parts, fmt.Sprintf("Parent: %s (%s)", n.ParentName, n.ParentType))
	}
	if n.FilePath != "" {
		parts = append(parts, "File: "+n.FilePath)
	}
	if n.Language != "" {
		parts = append(parts, "Language: "+n.Language)
	}
	if n.NodeType != "" {
		parts = append(parts, "Type: "+n.NodeType)
	}
	if n.NodeName != "" {
		parts = append(parts, "Symbol: "+n.NodeName)
	}
	if n.StartLine != 0 && n.EndLine != 0 {
		parts = append(parts, fmt.Sprintf("Lines: %d-%d", n.StartLine, n.EndLine))
	}
	if len(parts) == 0 {
		return n.Content
	}
	return strings.Join(parts, "\n") + "\n\n" + n.Content
}
