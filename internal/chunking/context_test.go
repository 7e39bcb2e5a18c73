package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEnrichedContentEmptyHeaderReturnsContentUnchanged(t *testing.T) {
	n := RawNode{Content: "just content"}
	assert.Equal(t, "just content", buildEnrichedContent(n))
}

func TestBuildEnrichedContentIncludesParentOnlyWhenNamed(t *testing.T) {
	n := RawNode{Content: "x", ParentID: "p1", ParentName: "", ParentType: "class_definition"}
	got := buildEnrichedContent(n)
	assert.NotContains(t, got, "Parent:")

	n.ParentName = "Widget"
	got = buildEnrichedContent(n)
	assert.Contains(t, got, "Parent: Widget (class_definition)")
}

func TestBuildEnrichedContentOrdersHeaderLines(t *testing.T) {
	n := RawNode{
		Content:   "body",
		FilePath:  "a.py",
		Language:  "python",
		NodeType:  "function_definition",
		NodeName:  "foo",
		StartLine: 1,
		EndLine:   2,
	}
	got := buildEnrichedContent(n)
	want := "File: a.py\nLanguage: python\nType: function_definition\nSymbol: foo\nLines: 1-2\n\nbody"
	assert.Equal(t, want, got)
}
