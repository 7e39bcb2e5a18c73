package chunking

// nodeTypes lists, per language, the grammar node kinds that become chunk
// boundaries. Ported from the node-type tables of the system this was
// distilled from; only languages with a wired tree-sitter grammar (see
// internal/chunking/parsers) reach tier 1/2 of the parser — the rest stay
// here so the table doubles as the registry of "known but ungrammared"
// languages for tier-3 fallback naming.
var nodeTypes = map[string][]string{
	"python":     {"function_definition", "class_definition", "decorated_definition", "import_statement", "import_from_statement"},
	"javascript": {"function_declaration", "function_expression", "class_declaration", "method_definition", "arrow_function", "import_statement"},
	"typescript": {"function_declaration", "class_declaration", "method_definition", "arrow_function", "interface_declaration", "type_alias_declaration", "import_statement", "export_statement"},
	"tsx":        {"function_declaration", "class_declaration", "method_definition", "arrow_function", "interface_declaration", "type_alias_declaration", "import_statement", "export_statement"},
	"java":       {"class_declaration", "interface_declaration", "method_declaration", "constructor_declaration", "import_declaration"},
	"go":         {"function_declaration", "method_declaration", "type_declaration", "import_declaration"},
	"rust":       {"function_item", "struct_item", "enum_item", "trait_item", "impl_item", "mod_item", "use_declaration"},
	"cpp":        {"function_definition", "class_specifier", "struct_specifier", "namespace_definition"},
	"c":          {"function_definition", "struct_specifier", "enum_specifier", "preproc_include"},
	"csharp":     {"class_declaration", "interface_declaration", "method_declaration", "namespace_declaration"},
	"php":        {"function_definition", "class_declaration", "method_declaration", "interface_declaration", "trait_declaration"},
	"bash":       {"function_definition"},
	"sql":        {"statement"},
	"kotlin":     {"class_declaration", "function_declaration", "object_declaration"},
	"ruby":       {"method", "class", "module", "singleton_method"},
	"yaml":       {"block_mapping", "block_sequence"},
	"markdown":   {"section", "heading"},
	"json":       {"object", "array"},
	"toml":       {"table"},
	"swift":      {"function_declaration", "class_declaration", "struct_declaration", "protocol_declaration"},
	"solidity":   {"contract_declaration", "function_definition"},
	"lua":        {"function_declaration", "local_function"},
}

// parentNodeTypes lists which of a language's own chunk node types can also
// serve as a "parent" frame for nested children (e.g. a class whose methods
// should record it as their parent).
var parentNodeTypes = map[string][]string{
	"python":     {"class_definition"},
	"javascript": {"class_declaration"},
	"typescript": {"class_declaration", "interface_declaration"},
	"tsx":        {"class_declaration", "interface_declaration"},
	"java":       {"class_declaration", "interface_declaration"},
	"go":         {"type_declaration"},
	"rust":       {"impl_item", "struct_item", "enum_item", "trait_item", "mod_item"},
	"cpp":        {"class_specifier", "struct_specifier", "namespace_definition"},
	"c":          {"struct_specifier"},
	"csharp":     {"class_declaration", "namespace_declaration"},
	"php":        {"class_declaration", "interface_declaration", "trait_declaration"},
	"kotlin":     {"class_declaration", "object_declaration"},
	"ruby":       {"class", "module"},
	"swift":      {"class_declaration", "struct_declaration"},
	"solidity":   {"contract_declaration"},
}

// NodeTypesFor returns the chunk-boundary node kinds for a language.
func NodeTypesFor(language string) []string {
	return nodeTypes[language]
}

// ParentNodeTypesFor returns the parent-frame node kinds for a language.
func ParentNodeTypesFor(language string) []string {
	return parentNodeTypes[language]
}

// IsParentNodeType reports whether nodeType is a parent frame in language.
func IsParentNodeType(language, nodeType string) bool {
	for _, t := range parentNodeTypes[language] {
		if t == nodeType {
			return true
		}
	}
	return false
}

// IsChunkNodeType reports whether nodeType is a chunk boundary in language.
func IsChunkNodeType(language, nodeType string) bool {
	for _, t := range nodeTypes[language] {
		if t == nodeType {
			return true
		}
	}
	return false
}

// extensionLanguage maps a file extension (including the dot) to a language
// name, per the discovery component's classification step.
var extensionLanguage = map[string]string{
	".py":     "python",
	".js":     "javascript",
	".jsx":    "javascript",
	".mjs":    "javascript",
	".ts":     "typescript",
	".tsx":    "tsx",
	".java":   "java",
	".go":     "go",
	".rs":     "rust",
	".cpp":    "cpp",
	".cc":     "cpp",
	".cxx":    "cpp",
	".hpp":    "cpp",
	".c":      "c",
	".h":      "c",
	".cs":     "csharp",
	".php":    "php",
	".sh":     "bash",
	".bash":   "bash",
	".sql":    "sql",
	".kt":     "kotlin",
	".rb":     "ruby",
	".yaml":   "yaml",
	".yml":    "yaml",
	".md":     "markdown",
	".json":   "json",
	".toml":   "toml",
	".swift":  "swift",
	".sol":    "solidity",
	".lua":    "lua",
	".ipynb":  "jupyter",
}

// LanguageForPath returns the language for a file path based on its
// extension, or "" if unrecognized. Extensionless well-known filenames
// (Dockerfile, Makefile, ...) are handled by the discovery component
// before this lookup is consulted.
func LanguageForPath(ext string) string {
	return extensionLanguage[ext]
}
