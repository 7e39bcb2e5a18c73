package parsers

import sitter "github.com/tree-sitter/go-tree-sitter"

// NodeText extracts the text content of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Lines extracts source code lines from startLine to endLine (1-indexed,
// inclusive).
func Lines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return ""
	}
	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	out := ""
	for i := start; i < end; i++ {
		if i > start {
			out += "\n"
		}
		out += lines[i]
	}
	return out
}

// Walk recursively visits node and its descendants in pre-order. The
// visitor returns false to skip descending into that node's children.
func Walk(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		Walk(node.Child(uint(i)), visitor)
	}
}

// FirstChildOfType returns the first direct child with the given kind.
func FirstChildOfType(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildrenOfType returns every direct child with the given kind.
func ChildrenOfType(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	if node == nil {
		return out
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(uint(i))
		if child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

// FirstChildOfTypes returns the first direct child whose kind is any of kinds.
func FirstChildOfTypes(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(uint(i))
		k := child.Kind()
		for _, want := range kinds {
			if k == want {
				return child
			}
		}
	}
	return nil
}
