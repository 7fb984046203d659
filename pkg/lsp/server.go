// Package lsp provides a Language Server Protocol server that tracks the
// rendering height of every line of the open documents.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/version"
)

const (
	serverName = "lineheight"

	opDidChange = "lsp.didChange"
	opHover     = "lsp.hover"
	opCodeLens  = "lsp.codeLens"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	// Logger is an optional structured logger.
	Logger *slog.Logger

	// Metrics records per-request RED metrics when non-nil.
	Metrics *observability.REDMetrics

	// DefaultHeight seeds every document's tracker. Zero means 1.
	DefaultHeight float64

	// Decorator derives overrides from document text. Nil disables it.
	Decorator Decorator

	// TrackerOptions are applied to every new tracker.
	TrackerOptions []lineheight.Option
}

// Server implements the line-height language server.
type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	opts    Options
	logger  *slog.Logger
}

// NewServer creates a server with the default handlers.
func NewServer(opts Options) *Server {
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{store: NewDocumentStore(), opts: opts, logger: logger}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
		TextDocumentCodeLens:  srv.codeLens,
	}

	return srv
}

// Documents returns the store of open documents.
func (srv *Server) Documents() *DocumentStore {
	return srv.store
}

// Run serves on stdio until the client exits.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindIncremental
	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	tracker := lineheight.New(srv.opts.DefaultHeight, nil, srv.opts.TrackerOptions...)
	doc := newDocument(params.TextDocument.Text, tracker)
	doc.decorate(srv.opts.Decorator)

	srv.store.set(uri, doc)
	srv.logger.Debug("lsp document opened", "uri", uri, "lines", doc.text.Lines())

	return nil
}

func (srv *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	start := time.Now()
	uri := params.TextDocument.URI

	found := srv.store.with(uri, func(doc *document) {
		text := doc.text.Text()

		for _, change := range params.ContentChanges {
			text = applyContentChange(text, change)
		}

		edits := doc.update(text)
		doc.decorate(srv.opts.Decorator)

		srv.logger.Debug("lsp document changed", "uri", uri, "edits", len(edits), "pending", doc.tracker.Pending())
	})

	srv.record(opDidChange, start, found)

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.delete(params.TextDocument.URI)

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	start := time.Now()
	line := int(params.Position.Line) + 1

	var value string

	found := srv.store.with(params.TextDocument.URI, func(doc *document) {
		if line > doc.text.Lines() {
			return
		}

		acc := doc.tracker.AccumulatedHeightIncluding(line)
		height := doc.tracker.HeightForLine(line)

		value = fmt.Sprintf("**Line %d**\n\nheight: `%g`  \noffset: `%g`  \naccumulated: `%g`",
			line, height, acc-height, acc)
	})

	srv.record(opHover, start, found)

	if value == "" {
		return nil, nil //nolint:nilnil // LSP protocol expects nil hover when nothing is known.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}, nil
}

// codeLens labels the first line of every committed override with its height.
func (srv *Server) codeLens(_ *glsp.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	start := time.Now()

	var lenses []protocol.CodeLens

	found := srv.store.with(params.TextDocument.URI, func(doc *document) {
		for _, r := range doc.tracker.Ranges() {
			pos := protocol.Position{Line: protocol.UInteger(r.Start - 1)}

			lenses = append(lenses, protocol.CodeLens{
				Range: protocol.Range{Start: pos, End: pos},
				Command: &protocol.Command{
					Title: fmt.Sprintf("height %g (%d lines)", r.Height, r.Lines()),
				},
				Data: r.ID,
			})
		}
	})

	srv.record(opCodeLens, start, found)

	return lenses, nil
}

func (srv *Server) record(op string, start time.Time, found bool) {
	if srv.opts.Metrics == nil {
		return
	}

	status := observability.StatusOK
	if !found {
		status = observability.StatusError
	}

	srv.opts.Metrics.RecordRequest(context.Background(), op, status, time.Since(start))
}

// applyContentChange applies one didChange content change to text. Changes
// without a range replace the whole text.
func applyContentChange(text string, change any) string {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text
		}

		return applyChange(text, *c.Range, c.Text)
	case map[string]any:
		if newText, ok := c["text"].(string); ok {
			return newText
		}
	}

	return text
}
