package chunking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/contextinator/contextinator/internal/chunking/parsers"
)

const astMaxDepth = 10
const astNodeTextMaxLen = 200

// astPoint mirrors tree-sitter's row/column position, serialized the way
// original_source's ast_visualizer.py emits it.
type astPoint struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

type astNode struct {
	Type          string     `json:"type"`
	Text          string     `json:"text"`
	StartPoint    astPoint   `json:"start_point"`
	EndPoint      astPoint   `json:"end_point"`
	StartByte     int        `json:"start_byte"`
	EndByte       int        `json:"end_byte"`
	IsNamed       bool       `json:"is_named,omitempty"`
	ChildrenCount int        `json:"children_count,omitempty"`
	Children      []*astNode `json:"children,omitempty"`
}

type astSummary struct {
	TotalNodes            int            `json:"total_nodes"`
	MaxDepth              int            `json:"max_depth"`
	NodeTypeDistribution  map[string]int `json:"node_type_distribution"`
	RootType              string         `json:"root_type,omitempty"`
	TreeSizeBytes         int            `json:"tree_size_bytes"`
	FallbackUsed          bool           `json:"fallback_used,omitempty"`
}

type astFileInfo struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	SizeBytes int    `json:"size_bytes"`
	LineCount int    `json:"line_count"`
}

type astTreeInfo struct {
	HasAST         bool   `json:"has_ast"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

type astExtractedNode struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
}

type astExtractionPath struct {
	ExtractedNode astExtractionPathNode `json:"extracted_node"`
	ASTPath       any                   `json:"ast_path"`
}

type astExtractionPathNode struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	ByteRange [2]int `json:"byte_range"`
	LineRange [2]int `json:"line_range"`
}

type astExtractionMapping struct {
	TotalASTNodes    int                 `json:"total_ast_nodes,omitempty"`
	ExtractedCount   int                 `json:"extracted_count"`
	ExtractionPaths  []astExtractionPath `json:"extraction_paths,omitempty"`
	FallbackMode     bool                `json:"fallback_mode,omitempty"`
	Note             string              `json:"note,omitempty"`
}

type astVisualization struct {
	FileInfo          astFileInfo          `json:"file_info"`
	TreeInfo          astTreeInfo          `json:"tree_info"`
	ExtractedNodes    []astExtractedNode   `json:"extracted_nodes"`
	ASTSummary        astSummary           `json:"ast_summary"`
	FullAST           *astNode             `json:"full_ast"`
	ExtractionMapping astExtractionMapping `json:"extraction_mapping"`
}

// ExtractFileForAST behaves like ExtractFile but also writes a JSON AST
// dump to <astDir>/<file-stem>_<language>_ast.json, for the --save-ast
// debugging surface. astDir must already exist or be creatable by
// os.MkdirAll.
func ExtractFileForAST(file FileRecord, content []byte, astDir string) ([]RawNode, error) {
	lang := file.Language

	if lang == "jupyter" || lang == "markdown" || !parsers.Supported(lang) {
		nodes, err := ExtractFile(file, content)
		if err != nil {
			return nil, err
		}
		reason := "no tree-sitter grammar for language"
		if lang == "jupyter" {
			reason = "notebook cells are parsed per-cell, not as one AST"
		} else if lang == "markdown" {
			reason = "markdown is parsed with a line-oriented heading scan, not tree-sitter"
		}
		if err := saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: reason}); err != nil {
			return nodes, err
		}
		return nodes, nil
	}

	grammar, err := parsers.Get(lang)
	if err != nil {
		nodes, err := ExtractFile(file, content)
		if err != nil {
			return nil, err
		}
		return nodes, saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: err.Error()})
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		nodes, err := ExtractFile(file, content)
		if err != nil {
			return nil, err
		}
		return nodes, saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: "grammar rejected by parser"})
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		nodes, err := ExtractFile(file, content)
		if err != nil {
			return nil, err
		}
		return nodes, saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: "parser returned no tree"})
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		nodes, err := ExtractFile(file, content)
		if err != nil {
			return nil, err
		}
		return nodes, saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: "syntax errors in parsed source"})
	}

	nodes := extractNodes(root, content, file, lang)
	if len(nodes) == 0 {
		nodes = []RawNode{fallbackNode(file, content)}
		return nodes, saveASTVisualization(astDir, file, content, nil, nodes, astTreeInfo{HasAST: false, FallbackReason: "no chunk-boundary nodes found"})
	}
	linkChildren(nodes)

	return nodes, saveASTVisualization(astDir, file, content, root, nodes, astTreeInfo{HasAST: true})
}

func saveASTVisualization(astDir string, file FileRecord, content []byte, root *sitter.Node, nodes []RawNode, treeInfo astTreeInfo) error {
	if err := os.MkdirAll(astDir, 0o755); err != nil {
		return fmt.Errorf("create ast directory: %w", err)
	}

	extracted := make([]astExtractedNode, len(nodes))
	for i, n := range nodes {
		extracted[i] = astExtractedNode{
			Type:      n.NodeType,
			Name:      n.NodeName,
			StartLine: n.StartLine,
			EndLine:   n.EndLine,
			StartByte: n.StartByte,
			EndByte:   n.EndByte,
		}
	}

	viz := astVisualization{
		FileInfo: astFileInfo{
			Path:      file.Path,
			Language:  file.Language,
			SizeBytes: len(content),
			LineCount: strings.Count(string(content), "\n") + 1,
		},
		TreeInfo:       treeInfo,
		ExtractedNodes: extracted,
	}

	if root != nil && treeInfo.HasAST {
		viz.ASTSummary = summarizeAST(root)
		viz.FullAST = serializeASTNode(root, content, astMaxDepth, 0)
		viz.ExtractionMapping = mappingForExtraction(root, nodes)
	} else {
		viz.ASTSummary = astSummary{TreeSizeBytes: len(content), FallbackUsed: true}
		viz.ExtractionMapping = astExtractionMapping{
			FallbackMode:   true,
			ExtractedCount: len(nodes),
			Note:           "file-level chunking used due to tree-sitter unavailability",
		}
	}

	data, err := json.MarshalIndent(viz, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ast visualization: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	outPath := filepath.Join(astDir, fmt.Sprintf("%s_%s_ast.json", stem, file.Language))
	return os.WriteFile(outPath, data, 0o644)
}

func serializeASTNode(node *sitter.Node, source []byte, maxDepth, depth int) *astNode {
	if depth >= maxDepth {
		return &astNode{
			Type:          node.Kind(),
			Text:          "... (max depth reached)",
			StartPoint:    astPoint{Row: int(node.StartPosition().Row), Column: int(node.StartPosition().Column)},
			EndPoint:      astPoint{Row: int(node.EndPosition().Row), Column: int(node.EndPosition().Column)},
			StartByte:     int(node.StartByte()),
			EndByte:       int(node.EndByte()),
			ChildrenCount: int(node.ChildCount()),
		}
	}

	text := parsers.NodeText(node, source)
	if len(text) > astNodeTextMaxLen {
		text = text[:astNodeTextMaxLen] + "..."
	}

	out := &astNode{
		Type:       node.Kind(),
		Text:       text,
		StartPoint: astPoint{Row: int(node.StartPosition().Row), Column: int(node.StartPosition().Column)},
		EndPoint:   astPoint{Row: int(node.EndPosition().Row), Column: int(node.EndPosition().Column)},
		StartByte:  int(node.StartByte()),
		EndByte:    int(node.EndByte()),
		IsNamed:    node.IsNamed(),
	}

	childCount := int(node.ChildCount())
	out.Children = make([]*astNode, 0, childCount)
	for i := 0; i < childCount; i++ {
		child := node.Child(uint(i))
		out.Children = append(out.Children, serializeASTNode(child, source, maxDepth, depth+1))
	}
	return out
}

func summarizeAST(root *sitter.Node) astSummary {
	counts := map[string]int{}
	total := 0
	var countByType func(n *sitter.Node)
	countByType = func(n *sitter.Node) {
		counts[n.Kind()]++
		total++
		childCount := int(n.ChildCount())
		for i := 0; i < childCount; i++ {
			countByType(n.Child(uint(i)))
		}
	}
	countByType(root)

	return astSummary{
		TotalNodes:           total,
		MaxDepth:             treeDepth(root, 0),
		NodeTypeDistribution: counts,
		RootType:             root.Kind(),
		TreeSizeBytes:        int(root.EndByte() - root.StartByte()),
	}
}

func treeDepth(node *sitter.Node, depth int) int {
	childCount := int(node.ChildCount())
	if childCount == 0 {
		return depth
	}
	max := depth
	for i := 0; i < childCount; i++ {
		if d := treeDepth(node.Child(uint(i)), depth+1); d > max {
			max = d
		}
	}
	return max
}

func mappingForExtraction(root *sitter.Node, nodes []RawNode) astExtractionMapping {
	mapping := astExtractionMapping{
		TotalASTNodes:  countTotalNodes(root),
		ExtractedCount: len(nodes),
	}
	for _, n := range nodes {
		path := findNodePath(root, n.StartByte, n.EndByte, nil)
		var astPath any = "Not found"
		if path != nil {
			astPath = path
		}
		mapping.ExtractionPaths = append(mapping.ExtractionPaths, astExtractionPath{
			ExtractedNode: astExtractionPathNode{
				Type:      n.NodeType,
				Name:      n.NodeName,
				ByteRange: [2]int{n.StartByte, n.EndByte},
				LineRange: [2]int{n.StartLine, n.EndLine},
			},
			ASTPath: astPath,
		})
	}
	return mapping
}

type astPathStep struct {
	Type       string `json:"type"`
	ChildIndex *int   `json:"child_index,omitempty"`
	ByteRange  [2]int `json:"byte_range"`
}

func findNodePath(node *sitter.Node, targetStart, targetEnd int, path []astPathStep) []astPathStep {
	if int(node.StartByte()) == targetStart && int(node.EndByte()) == targetEnd {
		return append(path, astPathStep{Type: node.Kind(), ByteRange: [2]int{targetStart, targetEnd}})
	}

	childCount := int(node.ChildCount())
	for i := 0; i < childCount; i++ {
		child := node.Child(uint(i))
		if int(child.StartByte()) <= targetStart && int(child.EndByte()) >= targetEnd {
			idx := i
			next := append(append([]astPathStep{}, path...), astPathStep{
				Type:       node.Kind(),
				ChildIndex: &idx,
				ByteRange:  [2]int{int(node.StartByte()), int(node.EndByte())},
			})
			if result := findNodePath(child, targetStart, targetEnd, next); result != nil {
				return result
			}
		}
	}
	return nil
}

func countTotalNodes(node *sitter.Node) int {
	total := 1
	childCount := int(node.ChildCount())
	for i := 0; i < childCount; i++ {
		total += countTotalNodes(node.Child(uint(i)))
	}
	return total
}

// ASTOverviewFile is one entry in an ast-trees overview, matching
// original_source's ast_visualizer.create_ast_overview per-file summary.
type ASTOverviewFile struct {
	File            string `json:"file"`
	Language        string `json:"language"`
	ASTNodes        int    `json:"ast_nodes"`
	ExtractedNodes  int    `json:"extracted_nodes"`
	TreeDepth       int    `json:"tree_depth"`
	HasRealAST      bool   `json:"has_real_ast"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
}

// ASTOverview summarizes every *_ast.json file under an ast_trees directory.
type ASTOverview struct {
	TotalFiles           int             `json:"total_files"`
	Languages            map[string]int  `json:"languages"`
	TotalNodesExtracted  int             `json:"total_nodes_extracted"`
	TotalASTNodes        int             `json:"total_ast_nodes"`
	TreeSitterAvailable  bool            `json:"tree_sitter_available"`
	FallbackFiles        int             `json:"fallback_files"`
	RealASTFiles         int             `json:"real_ast_files"`
	Files                []ASTOverviewFile `json:"files"`
}

// SaveASTOverview reads every *_ast.json file written by ExtractFileForAST
// under astDir and writes an ast_overview.json summarizing them.
func SaveASTOverview(astDir string) (*ASTOverview, error) {
	entries, err := os.ReadDir(astDir)
	if err != nil {
		return nil, fmt.Errorf("read ast directory: %w", err)
	}

	overview := &ASTOverview{Languages: map[string]int{}}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "_ast.json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(astDir, name))
		if err != nil {
			continue
		}
		var viz astVisualization
		if err := json.Unmarshal(data, &viz); err != nil {
			continue
		}

		overview.TotalFiles++
		overview.Languages[viz.FileInfo.Language]++
		overview.TotalNodesExtracted += len(viz.ExtractedNodes)

		hasAST := viz.TreeInfo.HasAST
		entry := ASTOverviewFile{
			File:           viz.FileInfo.Path,
			Language:       viz.FileInfo.Language,
			ExtractedNodes: len(viz.ExtractedNodes),
			HasRealAST:     hasAST,
		}
		if hasAST {
			overview.RealASTFiles++
			overview.TreeSitterAvailable = true
			overview.TotalASTNodes += viz.ASTSummary.TotalNodes
			entry.ASTNodes = viz.ASTSummary.TotalNodes
			entry.TreeDepth = viz.ASTSummary.MaxDepth
		} else {
			overview.FallbackFiles++
			entry.FallbackReason = viz.TreeInfo.FallbackReason
		}
		overview.Files = append(overview.Files, entry)
	}

	data, err := json.MarshalIndent(overview, "", "  ")
	if err != nil {
		return overview, fmt.Errorf("marshal ast overview: %w", err)
	}
	if err := os.WriteFile(filepath.Join(astDir, "ast_overview.json"), data, 0o644); err != nil {
		return overview, fmt.Errorf("write ast overview: %w", err)
	}
	return overview, nil
}
