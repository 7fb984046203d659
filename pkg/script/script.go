// Package script replays YAML-described editing sessions against a tracker and
// checks the heights it reports.
package script

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/lineheight/pkg/docsync"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

//go:embed script-schema.json
var schemaJSON []byte

// checkTolerance absorbs float rounding in accumulated sums.
const checkTolerance = 1e-9

// Sentinel errors.
var (
	// ErrInvalidScript is returned when a script does not match the schema.
	ErrInvalidScript = errors.New("invalid script")
	// ErrExpectationFailed is returned when at least one expect step did not hold.
	ErrExpectationFailed = errors.New("expectation failed")
)

// Script is a replayable editing session.
type Script struct {
	DefaultHeight float64            `yaml:"default_height"`
	Text          string             `yaml:"text,omitempty"`
	Ranges        []lineheight.Range `yaml:"ranges,omitempty"`
	Steps         []Step             `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Upsert  *lineheight.Range `yaml:"upsert,omitempty"`
	Remove  string            `yaml:"remove,omitempty"`
	Insert  *Span             `yaml:"insert,omitempty"`
	Delete  *Span             `yaml:"delete,omitempty"`
	Default float64           `yaml:"default,omitempty"`
	Commit  bool              `yaml:"commit,omitempty"`
	Edit    *string           `yaml:"edit,omitempty"`
	Expect  *Expectation      `yaml:"expect,omitempty"`
}

// Span is an inclusive line block for structural steps.
type Span struct {
	From  int                `yaml:"from"`
	To    int                `yaml:"to"`
	Seeds []lineheight.Range `yaml:"seeds,omitempty"`
}

// Expectation asserts the height and/or accumulated height of a line.
type Expectation struct {
	Line        int      `yaml:"line"`
	Height      *float64 `yaml:"height,omitempty"`
	Accumulated *float64 `yaml:"accumulated,omitempty"`
}

// Check is the outcome of one asserted value.
type Check struct {
	Step int
	Line int
	What string
	Want float64
	Got  float64
}

// Passed reports whether the observed value matched.
func (c Check) Passed() bool {
	return math.Abs(c.Want-c.Got) <= checkTolerance
}

// Result summarizes a replay.
type Result struct {
	Tracker *lineheight.Tracker
	Text    string
	Steps   int
	Checks  []Check
}

// Extent returns the number of lines worth showing: the document's line count
// or the last overridden line, whichever is larger.
func (r *Result) Extent() int {
	n := 1
	if r.Text != "" {
		n = docsync.LineCount(r.Text)
	}

	for _, rg := range r.Tracker.Ranges() {
		n = max(n, rg.End)
	}

	return n
}

// Failed returns the checks that did not pass.
func (r *Result) Failed() []Check {
	var failed []Check

	for _, c := range r.Checks {
		if !c.Passed() {
			failed = append(failed, c)
		}
	}

	return failed
}

// Options configures Run.
type Options struct {
	Logger         *slog.Logger
	TrackerOptions []lineheight.Option
}

// Parse validates data against the script schema and decodes it.
func Parse(data []byte) (*Script, error) {
	var generic any

	yamlErr := yaml.Unmarshal(data, &generic)
	if yamlErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, yamlErr)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(msgs, "; "))
	}

	var s Script

	decodeErr := yaml.Unmarshal(data, &s)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, decodeErr)
	}

	return &s, nil
}

// Load reads and parses a script from r.
func Load(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data)
}

// LoadFile reads and parses the script at path.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(data)
}

// Run replays s on a fresh tracker. When any expectation fails the result is
// still returned along with an error wrapping ErrExpectationFailed.
func Run(ctx context.Context, s *Script, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.DefaultHeight <= 0 {
		return nil, fmt.Errorf("%w: default height %v", ErrInvalidScript, s.DefaultHeight)
	}

	tr := lineheight.New(s.DefaultHeight, s.Ranges, opts.TrackerOptions...)
	doc := docsync.NewDocument(s.Text, tr)
	res := &Result{Tracker: tr}

	for i, step := range s.Steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		res.Checks = append(res.Checks, apply(tr, doc, i+1, step)...)
		res.Steps++
	}

	res.Text = doc.Text()
	failed := res.Failed()
	logger.DebugContext(ctx, "script replayed",
		"steps", res.Steps, "checks", len(res.Checks), "failed", len(failed), "ranges", tr.Len())

	if len(failed) > 0 {
		return res, fmt.Errorf("%w: %d of %d checks", ErrExpectationFailed, len(failed), len(res.Checks))
	}

	return res, nil
}

func apply(tr *lineheight.Tracker, doc *docsync.Document, index int, step Step) []Check {
	switch {
	case step.Upsert != nil:
		r := step.Upsert
		tr.UpsertRange(r.ID, r.Start, r.End, r.Height)
	case step.Remove != "":
		tr.RemoveRange(step.Remove)
	case step.Insert != nil:
		tr.NotifyLinesInserted(step.Insert.From, step.Insert.To, step.Insert.Seeds)
	case step.Delete != nil:
		tr.NotifyLinesDeleted(step.Delete.From, step.Delete.To)
	case step.Default != 0:
		tr.SetDefaultHeight(step.Default)
	case step.Commit:
		tr.Commit()
	case step.Edit != nil:
		doc.Update(*step.Edit)
	case step.Expect != nil:
		return expect(tr, index, step.Expect)
	}

	return nil
}

func expect(tr *lineheight.Tracker, index int, e *Expectation) []Check {
	var checks []Check

	if e.Height != nil {
		checks = append(checks, Check{
			Step: index, Line: e.Line, What: "height",
			Want: *e.Height, Got: tr.HeightForLine(e.Line),
		})
	}

	if e.Accumulated != nil {
		checks = append(checks, Check{
			Step: index, Line: e.Line, What: "accumulated",
			Want: *e.Accumulated, Got: tr.AccumulatedHeightIncluding(e.Line),
		})
	}

	return checks
}
