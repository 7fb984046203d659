package lsp

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// Decorator derives the height overrides a document's text implies. It is
// called after every change with the current lines and the default height.
// Returned identifiers must stay stable while the decorated content is
// unchanged, so that overrides already shifted by the edit are kept in place.
type Decorator func(lines []string, defaultHeight float64) []lineheight.Range

const headingIDPrefix = "heading:"

// HeadingDecorator gives every line starting with mark a height of scale
// times the default. Identifiers are derived from the heading text, with an
// occurrence suffix for repeated headings.
func HeadingDecorator(mark string, scale float64) Decorator {
	return func(lines []string, defaultHeight float64) []lineheight.Range {
		if mark == "" || scale <= 0 {
			return nil
		}

		var ranges []lineheight.Range

		seen := make(map[string]int)

		for i, line := range lines {
			if !strings.HasPrefix(line, mark) {
				continue
			}

			text := strings.TrimSpace(line)
			seen[text]++

			ranges = append(ranges, lineheight.Range{
				ID:     headingIDPrefix + text + "#" + strconv.Itoa(seen[text]),
				Start:  i + 1,
				End:    i + 1,
				Height: defaultHeight * scale,
			})
		}

		return ranges
	}
}
