package chunking

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notebookJSON(t *testing.T, cells []notebookCell) []byte {
	t.Helper()
	data, err := json.Marshal(notebookDoc{Cells: cells})
	require.NoError(t, err)
	return data
}

func rawSource(t *testing.T, s string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

// S4: a notebook with three code cells and one markdown cell produces Raw
// Nodes whose names are prefixed cell_1: .. cell_4:, and the markdown cell
// becomes at least one markdown/heading/section-typed node.
func TestExtractNotebookPrefixesNodeNamesByCellIndex(t *testing.T) {
	content := notebookJSON(t, []notebookCell{
		{CellType: "code", Source: rawSource(t, "def one():\n    return 1\n")},
		{CellType: "code", Source: rawSource(t, "def two():\n    return 2\n")},
		{CellType: "code", Source: rawSource(t, "def three():\n    return 3\n")},
		{CellType: "markdown", Source: rawSource(t, "## Notes\nsome text")},
	})

	file := FileRecord{Path: "analysis.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, content)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)

	prefixes := map[string]bool{}
	for _, n := range nodes {
		for _, p := range []string{"cell_1:", "cell_2:", "cell_3:", "cell_4:"} {
			if strings.HasPrefix(n.NodeName, p) {
				prefixes[p] = true
			}
		}
	}
	assert.True(t, prefixes["cell_1:"], "expected a node prefixed cell_1:")
	assert.True(t, prefixes["cell_2:"], "expected a node prefixed cell_2:")
	assert.True(t, prefixes["cell_3:"], "expected a node prefixed cell_3:")
	assert.True(t, prefixes["cell_4:"], "expected a node prefixed cell_4:")

	var markdownNode *RawNode
	for i, n := range nodes {
		if strings.HasPrefix(n.NodeName, "cell_4:") {
			markdownNode = &nodes[i]
		}
	}
	require.NotNil(t, markdownNode, "expected a node from the markdown cell")
	assert.Contains(t, []string{"markdown", "heading", "section"}, markdownNode.NodeType)
}

func TestExtractNotebookSkipsBlankCells(t *testing.T) {
	content := notebookJSON(t, []notebookCell{
		{CellType: "code", Source: rawSource(t, "   \n  \n")},
		{CellType: "code", Source: rawSource(t, "def real():\n    return 1\n")},
	})

	file := FileRecord{Path: "blank.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, content)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	for _, n := range nodes {
		assert.NotContains(t, n.NodeName, "cell_1:")
	}
}

func TestExtractNotebookJoinsSourceGivenAsLineList(t *testing.T) {
	lines, err := json.Marshal([]string{"def f():\n", "    return 1\n"})
	require.NoError(t, err)
	content := notebookJSON(t, []notebookCell{
		{CellType: "code", Source: json.RawMessage(lines)},
	})

	file := FileRecord{Path: "lines.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, content)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.True(t, strings.HasPrefix(nodes[0].NodeName, "cell_1:"))
}

func TestExtractNotebookFallsBackOnInvalidJSON(t *testing.T) {
	file := FileRecord{Path: "broken.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, []byte("not json"))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "file", nodes[0].NodeType)
}

func TestExtractNotebookFallsBackOnNoCells(t *testing.T) {
	content := notebookJSON(t, nil)
	file := FileRecord{Path: "empty.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, content)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "file", nodes[0].NodeType)
}

func TestRawCellNodeUsedForOtherCellTypes(t *testing.T) {
	content := notebookJSON(t, []notebookCell{
		{CellType: "raw", Source: rawSource(t, "some raw text")},
	})
	file := FileRecord{Path: "raw.ipynb", Language: "jupyter"}
	nodes, err := ExtractNotebook(file, content)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "cell", nodes[0].NodeType)
	assert.Equal(t, "cell_1: raw", nodes[0].NodeName)
}
