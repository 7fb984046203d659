package lsp

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

const (
	markdownIDPrefix = "md:"
	maxHeadingLevel  = 6
)

// MarkdownDecorator parses the document as CommonMark and scales heading
// lines by level: level 1 gets scale times the default height and each
// deeper level steps linearly toward the default. Setext underlines belong
// to their heading. Lines inside code blocks are never headings.
func MarkdownDecorator(scale float64) Decorator {
	md := goldmark.New()

	return func(lines []string, defaultHeight float64) []lineheight.Range {
		if scale <= 0 || len(lines) == 0 {
			return nil
		}

		src := []byte(strings.Join(lines, "\n"))
		starts := lineStarts(src)
		doc := md.Parser().Parse(text.NewReader(src))

		var ranges []lineheight.Range

		seen := make(map[string]int)

		_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
			heading, ok := node.(*ast.Heading)
			if !entering || !ok {
				return ast.WalkContinue, nil
			}

			segs := heading.Lines()
			if segs.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}

			first := lineOf(starts, segs.At(0).Start)
			last := lineOf(starts, segs.At(segs.Len()-1).Start)

			if !isATX(lines[first-1]) {
				last++
			}

			key := strconv.Itoa(heading.Level) + ":" + headingText(segs, src)
			seen[key]++

			ranges = append(ranges, lineheight.Range{
				ID:     markdownIDPrefix + key + "#" + strconv.Itoa(seen[key]),
				Start:  first,
				End:    last,
				Height: defaultHeight * levelScale(scale, heading.Level),
			})

			return ast.WalkSkipChildren, nil
		})

		return ranges
	}
}

func levelScale(scale float64, level int) float64 {
	level = max(1, min(level, maxHeadingLevel))

	return 1 + (scale-1)*float64(maxHeadingLevel+1-level)/maxHeadingLevel
}

// lineStarts returns the byte offset of every line start.
func lineStarts(src []byte) []int {
	starts := []int{0}

	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

// lineOf maps a byte offset to its 1-based line.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
}

// isATX reports whether line opens an ATX heading. Other headings are
// setext headings followed by their underline.
func isATX(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	marks := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))

	if marks == 0 || marks > maxHeadingLevel {
		return false
	}

	return marks == len(trimmed) || trimmed[marks] == ' ' || trimmed[marks] == '\t'
}

func headingText(segs *text.Segments, src []byte) string {
	var sb strings.Builder

	for i := range segs.Len() {
		if i > 0 {
			sb.WriteByte(' ')
		}

		seg := segs.At(i)
		sb.WriteString(strings.TrimSpace(string(seg.Value(src))))
	}

	return sb.String()
}
