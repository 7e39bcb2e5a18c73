package chunking

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// notebookCell mirrors the subset of the Jupyter notebook JSON format this
// package cares about: a cell's type and its source.
type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

type notebookDoc struct {
	Cells []notebookCell `json:"cells"`
}

// ExtractNotebook parses a .ipynb file's cells, dispatching code cells to
// the Python parser, markdown cells to the markdown fallback, and leaving
// raw/other cell types as a single synthetic node each. A notebook that
// fails to parse as JSON, or that has no cells, falls back to one
// file-level node for the whole document.
func ExtractNotebook(file FileRecord, content []byte) ([]RawNode, error) {
	var doc notebookDoc
	if err := json.Unmarshal(content, &doc); err != nil || len(doc.Cells) == 0 {
		return []RawNode{fallbackNode(file, content)}, nil
	}

	var nodes []RawNode
	for i, cell := range doc.Cells {
		source := cellSource(cell.Source)
		if strings.TrimSpace(source) == "" {
			continue
		}

		switch cell.CellType {
		case "code":
			nodes = append(nodes, parseCell(file, source, "python", i, cell.CellType)...)
		case "markdown":
			nodes = append(nodes, parseCell(file, source, "markdown", i, cell.CellType)...)
		default:
			nodes = append(nodes, rawCellNode(file, source, i, cell.CellType))
		}
	}

	if len(nodes) == 0 {
		return []RawNode{fallbackNode(file, content)}, nil
	}
	return nodes, nil
}

// cellSource normalizes a notebook cell's "source" field, which the format
// allows to be either a single string or a list of strings to be joined.
func cellSource(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "")
	}
	return ""
}

// parseCell sub-parses a code or markdown cell's source using the ordinary
// file extraction path, then prefixes every resulting node's name with
// "cell_{i+1}:" and records cell metadata, since one notebook can hold many
// same-named functions across cells.
func parseCell(file FileRecord, source string, lang string, cellIndex int, cellType string) []RawNode {
	cellFile := FileRecord{Path: file.Path, Language: lang}
	nodes, err := ExtractFile(cellFile, []byte(source))
	if err != nil {
		nodes = []RawNode{fallbackNode(cellFile, []byte(source))}
	}
	for i := range nodes {
		nodes[i].NodeName = namePrefix(cellIndex) + nodes[i].NodeName
		nodes[i].CellIndex = cellIndex
		nodes[i].CellType = cellType
		nodes[i].HasCell = true
	}
	return nodes
}

func rawCellNode(file FileRecord, source string, cellIndex int, cellType string) RawNode {
	lineCount := strings.Count(source, "\n") + 1
	return RawNode{
		ID:        uuid.NewString(),
		FilePath:  file.Path,
		Language:  "text",
		NodeType:  "cell",
		NodeName:  namePrefix(cellIndex) + cellType,
		StartLine: 1,
		EndLine:   lineCount,
		EndByte:   len(source),
		Content:   source,
		CellIndex: cellIndex,
		CellType:  cellType,
		HasCell:   true,
	}
}

func namePrefix(cellIndex int) string {
	return "cell_" + strconv.Itoa(cellIndex+1) + ": "
}
