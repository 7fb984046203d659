package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

// Tool name constants.
const (
	ToolNameUpsert      = "lineheight_upsert"
	ToolNameRemove      = "lineheight_remove"
	ToolNameInsertLines = "lineheight_insert_lines"
	ToolNameDeleteLines = "lineheight_delete_lines"
	ToolNameSetDefault  = "lineheight_set_default"
	ToolNameQuery       = "lineheight_query"
	ToolNameRanges      = "lineheight_ranges"
)

const (
	upsertToolDescription = "Create or replace the height override for an identifier " +
		"over the inclusive 1-based line span [start, end]."
	removeToolDescription = "Remove the height override for an identifier. " +
		"Unknown identifiers are ignored."
	insertToolDescription = "Report that lines [from, to] were inserted. Overrides at or after " +
		"from shift down; optional seeds are added after the shift."
	deleteToolDescription = "Report that lines [from, to] were deleted. Overrides inside the span " +
		"collapse to its start, later ones shift up."
	setDefaultToolDescription = "Change the height of lines no override covers."
	queryToolDescription      = "Return the height and accumulated height of the given lines, " +
		"and optionally the line displayed at a vertical offset."
	rangesToolDescription = "List the committed overrides and the resolved height runs of a document."
)

// MaxQueryLines caps the number of lines one lineheight_query call may ask for.
const MaxQueryLines = 10_000

// Sentinel errors for tool input validation.
var (
	// ErrEmptyID indicates the id parameter is empty.
	ErrEmptyID = errors.New("id parameter is required and must not be empty")
	// ErrInvalidSpan indicates a line span that is not 1 <= from <= to.
	ErrInvalidSpan = errors.New("line span must satisfy 1 <= start <= end")
	// ErrInvalidHeight indicates a non-positive height.
	ErrInvalidHeight = errors.New("height must be positive")
	// ErrEmptyQuery indicates a query with neither lines nor an offset.
	ErrEmptyQuery = errors.New("query needs at least one line or an offset")
	// ErrQueryTooLarge indicates a query asking for too many lines.
	ErrQueryTooLarge = errors.New("query asks for too many lines")
	// ErrNegativeOffset indicates a negative vertical offset.
	ErrNegativeOffset = errors.New("offset must not be negative")
)

// Input types (auto-generate JSON schemas via struct tags).

// UpsertInput is the input schema for the lineheight_upsert tool.
type UpsertInput struct {
	Document string  `json:"document,omitempty" jsonschema:"document name (default: default)"`
	ID       string  `json:"id"                 jsonschema:"override identifier"`
	Start    int     `json:"start"              jsonschema:"first covered line (1-based)"`
	End      int     `json:"end"                jsonschema:"last covered line (inclusive)"`
	Height   float64 `json:"height"             jsonschema:"height of every covered line"`
}

// RemoveInput is the input schema for the lineheight_remove tool.
type RemoveInput struct {
	Document string `json:"document,omitempty" jsonschema:"document name (default: default)"`
	ID       string `json:"id"                 jsonschema:"override identifier"`
}

// InsertLinesInput is the input schema for the lineheight_insert_lines tool.
type InsertLinesInput struct {
	Document string             `json:"document,omitempty" jsonschema:"document name (default: default)"`
	From     int                `json:"from"               jsonschema:"first inserted line (1-based)"`
	To       int                `json:"to"                 jsonschema:"last inserted line (inclusive)"`
	Seeds    []lineheight.Range `json:"seeds,omitempty"    jsonschema:"overrides to add after the shift"`
}

// DeleteLinesInput is the input schema for the lineheight_delete_lines tool.
type DeleteLinesInput struct {
	Document string `json:"document,omitempty" jsonschema:"document name (default: default)"`
	From     int    `json:"from"               jsonschema:"first deleted line (1-based)"`
	To       int    `json:"to"                 jsonschema:"last deleted line (inclusive)"`
}

// SetDefaultInput is the input schema for the lineheight_set_default tool.
type SetDefaultInput struct {
	Document string  `json:"document,omitempty" jsonschema:"document name (default: default)"`
	Height   float64 `json:"height"             jsonschema:"new default line height"`
}

// QueryInput is the input schema for the lineheight_query tool.
type QueryInput struct {
	Document string   `json:"document,omitempty" jsonschema:"document name (default: default)"`
	Lines    []int    `json:"lines,omitempty"    jsonschema:"lines to measure (1-based)"`
	Offset   *float64 `json:"offset,omitempty"   jsonschema:"vertical offset to resolve to a line"`
}

// RangesInput is the input schema for the lineheight_ranges tool.
type RangesInput struct {
	Document string `json:"document,omitempty" jsonschema:"document name (default: default)"`
}

// Output types.

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// MutationResult acknowledges a queued mutation.
type MutationResult struct {
	Document string `json:"document"`
	Pending  int    `json:"pending"`
}

// LineInfo is the measurement of one line.
type LineInfo struct {
	Line        int     `json:"line"`
	Height      float64 `json:"height"`
	Offset      float64 `json:"offset"`
	Accumulated float64 `json:"accumulated"`
}

// QueryResult is the lineheight_query output.
type QueryResult struct {
	Document      string     `json:"document"`
	DefaultHeight float64    `json:"default_height"`
	Lines         []LineInfo `json:"lines,omitempty"`
	LineAtOffset  *int       `json:"line_at_offset,omitempty"`
}

// RangesResult is the lineheight_ranges output.
type RangesResult struct {
	Document      string             `json:"document"`
	DefaultHeight float64            `json:"default_height"`
	Ranges        []lineheight.Range `json:"ranges"`
	Runs          []lineheight.Run   `json:"runs"`
}

// Tool handlers.

func (s *Server) handleUpsert(
	_ context.Context, _ *mcpsdk.CallToolRequest, input UpsertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.ID == "" {
		return errorResult(ErrEmptyID)
	}

	if err := validateSpan(input.Start, input.End); err != nil {
		return errorResult(err)
	}

	if input.Height <= 0 {
		return errorResult(fmt.Errorf("%w: %v", ErrInvalidHeight, input.Height))
	}

	return s.mutate(input.Document, func(tr *lineheight.Tracker) {
		tr.UpsertRange(input.ID, input.Start, input.End, input.Height)
	})
}

func (s *Server) handleRemove(
	_ context.Context, _ *mcpsdk.CallToolRequest, input RemoveInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.ID == "" {
		return errorResult(ErrEmptyID)
	}

	return s.mutate(input.Document, func(tr *lineheight.Tracker) {
		tr.RemoveRange(input.ID)
	})
}

func (s *Server) handleInsertLines(
	_ context.Context, _ *mcpsdk.CallToolRequest, input InsertLinesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateSpan(input.From, input.To); err != nil {
		return errorResult(err)
	}

	return s.mutate(input.Document, func(tr *lineheight.Tracker) {
		tr.NotifyLinesInserted(input.From, input.To, input.Seeds)
	})
}

func (s *Server) handleDeleteLines(
	_ context.Context, _ *mcpsdk.CallToolRequest, input DeleteLinesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateSpan(input.From, input.To); err != nil {
		return errorResult(err)
	}

	return s.mutate(input.Document, func(tr *lineheight.Tracker) {
		tr.NotifyLinesDeleted(input.From, input.To)
	})
}

func (s *Server) handleSetDefault(
	_ context.Context, _ *mcpsdk.CallToolRequest, input SetDefaultInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Height <= 0 {
		return errorResult(fmt.Errorf("%w: %v", ErrInvalidHeight, input.Height))
	}

	return s.mutate(input.Document, func(tr *lineheight.Tracker) {
		tr.SetDefaultHeight(input.Height)
	})
}

func (s *Server) handleQuery(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input QueryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Lines) == 0 && input.Offset == nil {
		return errorResult(ErrEmptyQuery)
	}

	if len(input.Lines) > MaxQueryLines {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrQueryTooLarge, len(input.Lines), MaxQueryLines))
	}

	for _, n := range input.Lines {
		if n < 1 {
			return errorResult(fmt.Errorf("%w: line %d", ErrInvalidSpan, n))
		}
	}

	if input.Offset != nil && *input.Offset < 0 {
		return errorResult(fmt.Errorf("%w: %v", ErrNegativeOffset, *input.Offset))
	}

	result := QueryResult{Document: documentName(input.Document)}

	s.withDocument(input.Document, func(tr *lineheight.Tracker) {
		result.DefaultHeight = tr.DefaultHeight()
		result.Lines = make([]LineInfo, 0, len(input.Lines))

		for _, n := range input.Lines {
			acc := tr.AccumulatedHeightIncluding(n)
			h := tr.HeightForLine(n)

			result.Lines = append(result.Lines, LineInfo{
				Line:        n,
				Height:      h,
				Offset:      acc - h,
				Accumulated: acc,
			})
		}

		if input.Offset != nil {
			line := tr.LineAtOffset(*input.Offset)
			result.LineAtOffset = &line
		}
	})

	s.logger.DebugContext(ctx, "mcp query", "document", result.Document, "lines", len(result.Lines))

	return jsonResult(result)
}

func (s *Server) handleRanges(
	_ context.Context, _ *mcpsdk.CallToolRequest, input RangesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result := RangesResult{Document: documentName(input.Document)}

	s.withDocument(input.Document, func(tr *lineheight.Tracker) {
		result.DefaultHeight = tr.DefaultHeight()
		result.Ranges = tr.Ranges()
		result.Runs = tr.Runs()
	})

	return jsonResult(result)
}

// mutate queues fn's mutation and reports the pending queue depth.
func (s *Server) mutate(document string, fn func(*lineheight.Tracker)) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result := MutationResult{Document: documentName(document)}

	s.withDocument(document, func(tr *lineheight.Tracker) {
		fn(tr)
		result.Pending = tr.Pending()
	})

	return jsonResult(result)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateSpan(from, to int) error {
	if from < 1 || from > to {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidSpan, from, to)
	}

	return nil
}

func documentName(name string) string {
	if name == "" {
		return defaultDocument
	}

	return name
}
