package chunking

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextinator/contextinator/internal/chunking/parsers"
)

func parseTree(t *testing.T, lang, source string) (*sitter.Tree, *sitter.Node) {
	t.Helper()
	grammar, err := parsers.Get(lang)
	require.NoError(t, err)

	parser := sitter.NewParser()
	t.Cleanup(parser.Close)
	require.NoError(t, parser.SetLanguage(grammar))

	tree := parser.Parse([]byte(source), nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)

	return tree, tree.RootNode()
}

func findFirstOfKind(root *sitter.Node, kind string) *sitter.Node {
	var found *sitter.Node
	parsers.Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestExtractNodesLinksNestedParentChild(t *testing.T) {
	source := `class Widget:
    def render(self):
        return 1

    def resize(self):
        return 2
`
	file := FileRecord{Path: "widget.py", Language: "python"}
	nodes, err := ExtractFile(file, []byte(source))
	require.NoError(t, err)

	var class *RawNode
	var methods []*RawNode
	for i := range nodes {
		switch nodes[i].NodeType {
		case "class_definition":
			class = &nodes[i]
		case "function_definition":
			methods = append(methods, &nodes[i])
		}
	}

	require.NotNil(t, class, "expected a class_definition node")
	require.Len(t, methods, 2, "expected both methods to be extracted")

	assert.True(t, class.IsParent)
	assert.ElementsMatch(t, []string{methods[0].ID, methods[1].ID}, class.ChildrenIDs)

	for _, m := range methods {
		assert.Equal(t, class.ID, m.ParentID)
		assert.Equal(t, "class_definition", m.ParentType)
		assert.Equal(t, "Widget", m.ParentName)
	}
}

func TestExtractNodesTopLevelFunctionHasNoParent(t *testing.T) {
	source := "def standalone():\n    return 1\n"
	file := FileRecord{Path: "funcs.py", Language: "python"}
	nodes, err := ExtractFile(file, []byte(source))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Empty(t, nodes[0].ParentID)
	assert.False(t, nodes[0].IsParent)
}

func TestNodeNameResolvesArrowFunctionFromVariableDeclarator(t *testing.T) {
	source := "const handler = () => {\n  return 1;\n};\n"
	_, root := parseTree(t, "typescript", source)

	arrow := findFirstOfKind(root, "arrow_function")
	require.NotNil(t, arrow, "expected an arrow_function node in the parsed tree")

	name := nodeName(arrow, []byte(source), "typescript")
	assert.Equal(t, "handler", name)
}

func TestExtractFileNamesArrowFunctionChunks(t *testing.T) {
	source := "const handler = () => {\n  return 1;\n};\n"
	file := FileRecord{Path: "handler.ts", Language: "typescript"}
	nodes, err := ExtractFile(file, []byte(source))
	require.NoError(t, err)

	var arrow *RawNode
	for i := range nodes {
		if nodes[i].NodeType == "arrow_function" {
			arrow = &nodes[i]
		}
	}
	require.NotNil(t, arrow, "expected an arrow_function chunk")
	assert.Equal(t, "handler", arrow.NodeName)
}

func TestNodeNameResolvesObjectKeyFromPair(t *testing.T) {
	source := `const config = {
  "outer": {
    "inner": 1
  }
};
`
	_, root := parseTree(t, "typescript", source)

	var objects []*sitter.Node
	parsers.Walk(root, func(n *sitter.Node) bool {
		if n.Kind() == "object" {
			objects = append(objects, n)
		}
		return true
	})
	require.Len(t, objects, 2, "expected the outer and inner object literals")

	inner := objects[1]
	require.Equal(t, "pair", inner.Parent().Kind())

	name := nodeName(inner, []byte(source), "typescript")
	assert.Equal(t, "outer", name)
}

func TestNodeNameResolvesArrayKeyFromPair(t *testing.T) {
	source := `const config = {
  "items": [1, 2, 3]
};
`
	_, root := parseTree(t, "typescript", source)

	array := findFirstOfKind(root, "array")
	require.NotNil(t, array)
	require.Equal(t, "pair", array.Parent().Kind())

	name := nodeName(array, []byte(source), "typescript")
	assert.Equal(t, "items_array", name)
}

func TestNodeNameFallsBackToAnonymousWithLine(t *testing.T) {
	source := "x = 1\n"
	_, root := parseTree(t, "python", source)

	module := root // module node has no identifier children to match
	name := nodeName(module, []byte(source), "python")
	assert.Contains(t, name, "_line_1")
}
