package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarkdownDecorator verifies ATX and setext headings are scaled by level
// while fenced code is ignored.
func TestMarkdownDecorator(t *testing.T) {
	t.Parallel()

	lines := []string{
		"# Title",
		"text",
		"Setext",
		"======",
		"```",
		"# not a heading",
		"```",
		"## Sub",
	}

	got := MarkdownDecorator(2)(lines, 12)
	require.Len(t, got, 3)

	assert.Equal(t, "md:1:Title#1", got[0].ID)
	assert.Equal(t, 1, got[0].Start)
	assert.Equal(t, 1, got[0].End)
	assert.InDelta(t, 24, got[0].Height, 1e-9)

	assert.Equal(t, "md:1:Setext#1", got[1].ID)
	assert.Equal(t, 3, got[1].Start)
	assert.Equal(t, 4, got[1].End)

	assert.Equal(t, "md:2:Sub#1", got[2].ID)
	assert.Equal(t, 8, got[2].Start)
	assert.InDelta(t, 22, got[2].Height, 1e-9)
}

// TestMarkdownDecorator_RepeatedHeadings verifies repeated headings get distinct identifiers.
func TestMarkdownDecorator_RepeatedHeadings(t *testing.T) {
	t.Parallel()

	got := MarkdownDecorator(1.5)([]string{"# A", "", "# A"}, 10)
	require.Len(t, got, 2)

	assert.Equal(t, "md:1:A#1", got[0].ID)
	assert.Equal(t, "md:1:A#2", got[1].ID)
	assert.Equal(t, 3, got[1].Start)
}

// TestMarkdownDecorator_Disabled verifies empty input and a non-positive scale yield nothing.
func TestMarkdownDecorator_Disabled(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MarkdownDecorator(0)([]string{"# x"}, 10))
	assert.Nil(t, MarkdownDecorator(2)(nil, 10))
}

// TestLevelScale verifies heading levels step toward the default height.
func TestLevelScale(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.6, levelScale(1.6, 1), 1e-9)
	assert.InDelta(t, 1.1, levelScale(1.6, 6), 1e-9)
	assert.InDelta(t, 1.1, levelScale(1.6, 9), 1e-9)
}

// TestIsATX verifies ATX openers need a space or end of line after the marks.
func TestIsATX(t *testing.T) {
	t.Parallel()

	assert.True(t, isATX("# Title"))
	assert.True(t, isATX("  ###"))
	assert.False(t, isATX("#hashtag"))
	assert.False(t, isATX("####### seven"))
	assert.False(t, isATX("plain"))
}
