package chunking

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/contextinator/contextinator/internal/chunking/parsers"
)

const markdownHeadingMaxLen = 50
const mapKeyMaxLen = 30
const seqKeyMaxLen = 20

// frame carries the nearest enclosing "parent" node down the traversal, so
// a method or nested definition can record its enclosing class/struct/impl
// without a second pass over the tree.
type frame struct {
	id   string
	typ  string
	name string
}

// ExtractFile runs the three-tier parser (grammar success, grammar parse
// error, no grammar) over one file's content and returns its raw nodes.
func ExtractFile(file FileRecord, content []byte) ([]RawNode, error) {
	lang := file.Language
	if lang == "jupyter" {
		return ExtractNotebook(file, content)
	}
	if lang == "markdown" {
		if nodes := ExtractMarkdown(file, content); len(nodes) > 0 {
			return nodes, nil
		}
		return []RawNode{fallbackNode(file, content)}, nil
	}

	if !parsers.Supported(lang) {
		return []RawNode{fallbackNode(file, content)}, nil
	}

	grammar, err := parsers.Get(lang)
	if err != nil {
		return []RawNode{fallbackNode(file, content)}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return []RawNode{fallbackNode(file, content)}, nil
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return []RawNode{fallbackNode(file, content)}, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		// Tier 2: the grammar recognized the file but the source has syntax
		// errors severe enough that a partial tree isn't trustworthy for
		// boundary extraction. Fall back to one file-level node rather than
		// risk truncated/garbled chunks.
		return []RawNode{fallbackNode(file, content)}, nil
	}

	nodes := extractNodes(root, content, file, lang)
	if len(nodes) == 0 {
		return []RawNode{fallbackNode(file, content)}, nil
	}
	linkChildren(nodes)
	return nodes, nil
}

// ParseFromDisk reads file.AbsPath and calls ExtractFile. file.Path should
// already be the repository-relative path; file.AbsPath is read from disk.
func ParseFromDisk(file FileRecord) ([]RawNode, error) {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return nil, err
	}
	return ExtractFile(file, content)
}

func fallbackNode(file FileRecord, content []byte) RawNode {
	lineCount := strings.Count(string(content), "\n") + 1
	name := file.Path
	if idx := strings.LastIndexByte(file.Path, '/'); idx >= 0 {
		name = file.Path[idx+1:]
	}
	return RawNode{
		ID:        uuid.NewString(),
		FilePath:  file.Path,
		Language:  file.Language,
		NodeType:  "file",
		NodeName:  name,
		StartLine: 1,
		EndLine:   lineCount,
		StartByte: 0,
		EndByte:   len(content),
		Content:   string(content),
	}
}

// extractNodes performs the depth-first, frame-carrying traversal that
// identifies chunk-boundary nodes and records parent/child linkage.
func extractNodes(root *sitter.Node, source []byte, file FileRecord, lang string) []RawNode {
	var out []RawNode
	var walk func(node *sitter.Node, f frame)
	walk = func(node *sitter.Node, f frame) {
		kind := node.Kind()
		if IsChunkNodeType(lang, kind) {
			id := uuid.NewString()
			name := nodeName(node, source, lang)
			startLine := int(node.StartPosition().Row) + 1
			endLine := int(node.EndPosition().Row) + 1

			out = append(out, RawNode{
				ID:         id,
				ParentID:   f.id,
				ParentType: f.typ,
				ParentName: f.name,
				FilePath:   file.Path,
				Language:   lang,
				NodeType:   kind,
				NodeName:   name,
				StartLine:  startLine,
				EndLine:    endLine,
				StartByte:  int(node.StartByte()),
				EndByte:    int(node.EndByte()),
				Content:    parsers.NodeText(node, source),
			})

			nextFrame := f
			if IsParentNodeType(lang, kind) {
				nextFrame = frame{id: id, typ: kind, name: name}
			}
			childCount := int(node.ChildCount())
			for i := 0; i < childCount; i++ {
				walk(node.Child(uint(i)), nextFrame)
			}
			return
		}

		childCount := int(node.ChildCount())
		for i := 0; i < childCount; i++ {
			walk(node.Child(uint(i)), f)
		}
	}
	walk(root, frame{})
	return out
}

// linkChildren populates ChildrenIDs/IsParent by scanning for nodes whose
// ParentID references another node in the same slice.
func linkChildren(nodes []RawNode) {
	byID := make(map[string]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = i
	}
	for _, n := range nodes {
		if n.ParentID == "" {
			continue
		}
		if idx, ok := byID[n.ParentID]; ok {
			nodes[idx].ChildrenIDs = append(nodes[idx].ChildrenIDs, n.ID)
			nodes[idx].IsParent = true
		}
	}
}

// nodeName resolves a human-readable symbol name for node, with per-language
// and per-node-kind special cases matching how each grammar shapes its
// declarations, falling back to a deterministic synthetic name so every
// node always has one.
func nodeName(node *sitter.Node, source []byte, lang string) string {
	kind := node.Kind()
	line := int(node.StartPosition().Row) + 1

	switch kind {
	case "section", "heading":
		if h := parsers.FirstChildOfTypes(node, "atx_heading", "setext_heading"); h != nil {
			text := strings.TrimSpace(strings.TrimLeft(parsers.NodeText(h, source), "#"))
			text = strings.TrimSpace(text)
			if text != "" {
				return truncate(text, markdownHeadingMaxLen)
			}
		}
		text := parsers.NodeText(node, source)
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[:nl]
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return truncate(text, markdownHeadingMaxLen)
		}
		return fmt.Sprintf("section_line_%d", line)

	case "arrow_function":
		if parent := node.Parent(); parent != nil {
			declarator := parent
			if declarator.Kind() == "variable_declarator" || declarator.Kind() == "lexical_declaration" {
				if id := parsers.FirstChildOfType(declarator, "identifier"); id != nil {
					return parsers.NodeText(id, source)
				}
			}
			if declarator.Parent() != nil && declarator.Parent().Kind() == "variable_declarator" {
				if id := parsers.FirstChildOfType(declarator.Parent(), "identifier"); id != nil {
					return parsers.NodeText(id, source)
				}
			}
		}
		return fmt.Sprintf("arrow_fn_line_%d", line)

	case "object", "block_mapping":
		if parent := node.Parent(); parent != nil && parent.Kind() == "pair" {
			if key := parsers.FirstChildOfTypes(parent, "string", "flow_node", "identifier"); key != nil {
				text := strings.Trim(parsers.NodeText(key, source), `"'`)
				return truncate(text, mapKeyMaxLen)
			}
		}
		return fmt.Sprintf(kind+"_line_%d", line)

	case "array", "block_sequence":
		if parent := node.Parent(); parent != nil && parent.Kind() == "pair" {
			if key := parsers.FirstChildOfTypes(parent, "string", "flow_node", "identifier"); key != nil {
				text := strings.Trim(parsers.NodeText(key, source), `"'`)
				return truncate(text, seqKeyMaxLen) + "_array"
			}
		}
		return fmt.Sprintf(kind+"_line_%d", line)
	}

	// Generic fallback: search direct children, then grandchildren, for an
	// identifier-shaped node.
	identifierKinds := []string{"identifier", "name", "property_identifier", "type_identifier", "field_identifier"}
	if id := parsers.FirstChildOfTypes(node, identifierKinds...); id != nil {
		return parsers.NodeText(id, source)
	}
	childCount := int(node.ChildCount())
	for i := 0; i < childCount; i++ {
		child := node.Child(uint(i))
		if id := parsers.FirstChildOfTypes(child, identifierKinds...); id != nil {
			return parsers.NodeText(id, source)
		}
	}
	return fmt.Sprintf("anonymous_%s_line_%d", kind, line)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
