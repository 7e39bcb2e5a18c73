package chunking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePython = `def greet(name):
    return "hi " + name


class Greeter:
    def say(self):
        return greet("world")
`

func TestExtractFileForASTWritesOneDumpPerFile(t *testing.T) {
	astDir := t.TempDir()
	file := FileRecord{Path: "greet.py", AbsPath: "greet.py", Language: "python"}

	nodes, err := ExtractFileForAST(file, []byte(samplePython), astDir)
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)

	outPath := filepath.Join(astDir, "greet_python_ast.json")
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var viz astVisualization
	require.NoError(t, json.Unmarshal(data, &viz))
	assert.True(t, viz.TreeInfo.HasAST)
	assert.Equal(t, "python", viz.FileInfo.Language)
	assert.NotNil(t, viz.FullAST)
	assert.Greater(t, viz.ASTSummary.TotalNodes, 0)
	assert.Len(t, viz.ExtractedNodes, len(nodes))
}

func TestExtractFileForASTFallsBackForUnsupportedLanguage(t *testing.T) {
	astDir := t.TempDir()
	file := FileRecord{Path: "notes.txt", AbsPath: "notes.txt", Language: "text"}

	_, err := ExtractFileForAST(file, []byte("just some text"), astDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(astDir, "notes_text_ast.json"))
	require.NoError(t, err)

	var viz astVisualization
	require.NoError(t, json.Unmarshal(data, &viz))
	assert.False(t, viz.TreeInfo.HasAST)
	assert.Nil(t, viz.FullAST)
	assert.True(t, viz.ExtractionMapping.FallbackMode)
}

func TestSaveASTOverviewSummarizesWrittenDumps(t *testing.T) {
	astDir := t.TempDir()

	_, err := ExtractFileForAST(FileRecord{Path: "greet.py", AbsPath: "greet.py", Language: "python"}, []byte(samplePython), astDir)
	require.NoError(t, err)
	_, err = ExtractFileForAST(FileRecord{Path: "notes.txt", AbsPath: "notes.txt", Language: "text"}, []byte("hello"), astDir)
	require.NoError(t, err)

	overview, err := SaveASTOverview(astDir)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalFiles)
	assert.Equal(t, 1, overview.RealASTFiles)
	assert.Equal(t, 1, overview.FallbackFiles)
	assert.True(t, overview.TreeSitterAvailable)

	_, err = os.Stat(filepath.Join(astDir, "ast_overview.json"))
	require.NoError(t, err)
}
