// Package mcp exposes line-height trackers as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
	"github.com/Sumatoshi-tech/lineheight/pkg/version"
)

const (
	serverName = "lineheight"
	toolCount  = 7

	// defaultDocument is used when a tool call names no document.
	defaultDocument = "default"

	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// ServerDeps holds the server's injectable dependencies. Zero values fall
// back to production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger.
	Logger *slog.Logger

	// Metrics records per-tool RED metrics when non-nil.
	Metrics *observability.REDMetrics

	// Tracer creates a span per tool call when non-nil.
	Tracer trace.Tracer

	// DefaultHeight seeds every new document's tracker. Zero means 1.
	DefaultHeight float64

	// TrackerOptions are applied to every new tracker.
	TrackerOptions []lineheight.Option
}

// Server wraps the MCP SDK server and the trackers it manages, one per
// document name.
type Server struct {
	inner   *mcpsdk.Server
	logger  *slog.Logger
	metrics *observability.REDMetrics
	tracer  trace.Tracer

	mu        sync.Mutex
	tools     []string
	documents map[string]*lineheight.Tracker
	defHeight float64
	trackOpts []lineheight.Option
}

// NewServer creates a server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defHeight := deps.DefaultHeight
	if defHeight <= 0 {
		defHeight = 1
	}

	srv := &Server{
		inner:     mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version.Version}, opts),
		logger:    logger,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		tools:     make([]string, 0, toolCount),
		documents: make(map[string]*lineheight.Tracker),
		defHeight: defHeight,
		trackOpts: deps.TrackerOptions,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of the registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves on stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is done or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// withDocument runs fn on the named tracker, creating it on first use.
func (s *Server) withDocument(name string, fn func(*lineheight.Tracker)) {
	if name == "" {
		name = defaultDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.documents[name]
	if !ok {
		tr = lineheight.New(s.defHeight, nil, s.trackOpts...)
		s.documents[name] = tr

		s.logger.Debug("mcp document created", "document", name, "default_height", s.defHeight)
	}

	fn(tr)
}

func (s *Server) registerTools() {
	addTool(s, ToolNameUpsert, upsertToolDescription, s.handleUpsert)
	addTool(s, ToolNameRemove, removeToolDescription, s.handleRemove)
	addTool(s, ToolNameInsertLines, insertToolDescription, s.handleInsertLines)
	addTool(s, ToolNameDeleteLines, deleteToolDescription, s.handleDeleteLines)
	addTool(s, ToolNameSetDefault, setDefaultToolDescription, s.handleSetDefault)
	addTool(s, ToolNameQuery, queryToolDescription, s.handleQuery)
	addTool(s, ToolNameRanges, rangesToolDescription, s.handleRanges)
}

type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[Input, ToolOutput](withMetrics(s.metrics, name, withTracing(s.tracer, name, handler))))

	s.mu.Lock()
	s.tools = append(s.tools, name)
	s.mu.Unlock()
}

// withTracing wraps handler in a server span and appends the trace id to
// sampled results.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if sc := span.SpanContext(); sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics wraps handler with RED metrics keyed by "mcp.<tool>".
func withMetrics[Input any](metrics *observability.REDMetrics, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		defer metrics.TrackInflight(ctx, op)()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}
