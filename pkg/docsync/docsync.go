// Package docsync turns document text changes into the structural line edits a
// line-height tracker understands.
package docsync

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// EditKind distinguishes inserted from deleted lines.
type EditKind int

const (
	// EditInsert marks lines added to the document.
	EditInsert EditKind = iota
	// EditDelete marks lines removed from the document.
	EditDelete
)

// String returns the kind name.
func (k EditKind) String() string {
	if k == EditInsert {
		return "insert"
	}

	return "delete"
}

// Edit is an inclusive block of 1-based lines inserted or deleted. Coordinates
// are those of the document at the moment the edit is applied, so a slice of
// edits must be replayed in order.
type Edit struct {
	Kind EditKind
	From int
	To   int
}

// Lines returns the number of lines the edit covers.
func (e Edit) Lines() int {
	return e.To - e.From + 1
}

// Notifier receives structural edits. *lineheight.Tracker satisfies it.
type Notifier interface {
	NotifyLinesInserted(from, to int, seeds []lineheight.Range)
	NotifyLinesDeleted(from, to int)
}

var _ Notifier = (*lineheight.Tracker)(nil)

// Diff computes the line edits turning oldText into newText. Lines are split
// on "\n" the way LineCount counts them. A block of removed lines next to a
// block of added lines is a modification: the first min(removed, added) lines
// are edited in place and produce no edit, and only the surplus is reported,
// after the modified lines.
func Diff(oldText, newText string) []Edit {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(oldText+"\n", newText+"\n")
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(src, dst, false))

	var edits []Edit

	line := 1
	removed, added := 0, 0

	flush := func() {
		line += min(removed, added)

		switch {
		case removed > added:
			edits = append(edits, Edit{Kind: EditDelete, From: line, To: line + removed - added - 1})
		case added > removed:
			edits = append(edits, Edit{Kind: EditInsert, From: line, To: line + added - removed - 1})
			line += added - removed
		}

		removed, added = 0, 0
	}

	for _, d := range diffs {
		// Each rune stands for one whole line.
		n := utf8.RuneCountInString(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()

			line += n
		case diffmatchpatch.DiffDelete:
			removed += n
		case diffmatchpatch.DiffInsert:
			added += n
		}
	}

	flush()

	return edits
}

// Apply forwards edits to n in order.
func Apply(n Notifier, edits []Edit) {
	for _, e := range edits {
		switch e.Kind {
		case EditInsert:
			n.NotifyLinesInserted(e.From, e.To, nil)
		case EditDelete:
			n.NotifyLinesDeleted(e.From, e.To)
		}
	}
}

// LineCount returns the number of lines an editor shows for text: the number
// of newlines plus one.
func LineCount(text string) int {
	return strings.Count(text, "\n") + 1
}

// Document pairs a text with the notifier tracking its lines.
type Document struct {
	text     string
	notifier Notifier
}

// NewDocument starts tracking text.
func NewDocument(text string, n Notifier) *Document {
	return &Document{text: text, notifier: n}
}

// Text returns the current text.
func (d *Document) Text() string {
	return d.text
}

// Lines returns the current line count.
func (d *Document) Lines() int {
	return LineCount(d.text)
}

// Update replaces the text, notifies the line edits, and returns them.
func (d *Document) Update(text string) []Edit {
	edits := Diff(d.text, text)
	Apply(d.notifier, edits)
	d.text = text

	return edits
}
