package chunking

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var markdownHeaderPattern = regexp.MustCompile(`^##\s+`)
var markdownCodeFence = regexp.MustCompile("^```")

// ExtractMarkdown splits a markdown document into section nodes by level-2
// headers, matching markdown's place in the node-type table ("section")
// even though no tree-sitter-markdown grammar is wired: headers are a
// reliable, regex-detectable boundary, and code fences are kept intact as
// a single paragraph so a fenced example is never split mid-block.
func ExtractMarkdown(file FileRecord, content []byte) []RawNode {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	sections := splitMarkdownSections(lines)

	var nodes []RawNode
	for _, sec := range sections {
		sectionText := strings.Join(sec.lines, "\n")
		if strings.TrimSpace(sectionText) == "" {
			continue
		}
		nodes = append(nodes, RawNode{
			ID:        uuid.NewString(),
			FilePath:  file.Path,
			Language:  "markdown",
			NodeType:  "section",
			NodeName:  sectionName(sec.lines),
			StartLine: sec.startLine,
			EndLine:   sec.startLine + len(sec.lines) - 1,
			Content:   sectionText,
		})
	}
	return nodes
}

type markdownSection struct {
	startLine int
	lines     []string
}

func splitMarkdownSections(lines []string) []markdownSection {
	var sections []markdownSection
	current := markdownSection{startLine: 1}
	inCode := false

	for i, line := range lines {
		if markdownCodeFence.MatchString(line) {
			inCode = !inCode
		}
		if !inCode && markdownHeaderPattern.MatchString(line) && i > 0 {
			if len(current.lines) > 0 {
				sections = append(sections, current)
			}
			current = markdownSection{startLine: i + 1, lines: []string{line}}
			continue
		}
		current.lines = append(current.lines, line)
	}
	if len(current.lines) > 0 {
		sections = append(sections, current)
	}
	return sections
}

func sectionName(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	heading := strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
	if heading == "" {
		return truncate(strings.TrimSpace(lines[0]), markdownHeadingMaxLen)
	}
	return truncate(heading, markdownHeadingMaxLen)
}
