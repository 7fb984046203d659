package lsp

import (
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/lineheight/pkg/docsync"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// document is an open text document and the tracker following its lines.
type document struct {
	text    *docsync.Document
	tracker *lineheight.Tracker
	owned   map[string]struct{}
}

func newDocument(text string, tracker *lineheight.Tracker) *document {
	return &document{
		text:    docsync.NewDocument(text, tracker),
		tracker: tracker,
		owned:   make(map[string]struct{}),
	}
}

// update replaces the text, forwards the structural edits to the tracker and
// returns them.
func (d *document) update(text string) []docsync.Edit {
	return d.text.Update(text)
}

// decorate reconciles the decorator-owned overrides with the current text.
// Overrides the decorator no longer reports are removed.
func (d *document) decorate(decorator Decorator) {
	if decorator == nil {
		return
	}

	ranges := decorator(splitLines(d.text.Text()), d.tracker.DefaultHeight())
	next := make(map[string]struct{}, len(ranges))

	for _, r := range ranges {
		next[r.ID] = struct{}{}
		d.tracker.UpsertRange(r.ID, r.Start, r.End, r.Height)
	}

	for id := range d.owned {
		if _, ok := next[id]; !ok {
			d.tracker.RemoveRange(id)
		}
	}

	d.owned = next
}

// DocumentStore is a thread-safe store of open documents keyed by URI.
type DocumentStore struct {
	documents map[string]*document
	mu        sync.Mutex
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*document),
	}
}

// Len returns the number of open documents.
func (ds *DocumentStore) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return len(ds.documents)
}

func (ds *DocumentStore) set(uri string, doc *document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = doc
}

// with runs fn on the document for uri while holding the store lock. It
// reports false when no such document is open.
func (ds *DocumentStore) with(uri string, fn func(*document)) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc, ok := ds.documents[uri]
	if !ok {
		return false
	}

	fn(doc)

	return true
}

func (ds *DocumentStore) delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// applyChange splices newText over r. Positions count UTF-16 code units, and
// positions past the end of a line or of the text are clamped.
func applyChange(text string, r protocol.Range, newText string) string {
	start := offsetAt(text, r.Start)
	end := offsetAt(text, r.End)

	if end < start {
		start, end = end, start
	}

	return text[:start] + newText + text[end:]
}

// offsetAt converts an LSP position into a byte offset of text.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0

	for line := protocol.UInteger(0); line < pos.Line; line++ {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	units := int(pos.Character)

	for offset < len(text) && units > 0 {
		ch, size := utf8.DecodeRuneInString(text[offset:])
		if ch == '\n' {
			break
		}

		units -= utf16.RuneLen(ch)
		offset += size
	}

	return offset
}
