// Package plot renders a tracker's line heights as an interactive HTML chart.
package plot

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
)

const (
	defaultWidth      = "100%"
	defaultHeight     = "500px"
	dataZoomEnd       = 100
	heightLineWidth   = 2
	offsetLineWidth   = 1
	offsetAxisIndex   = 1
	seriesHeight      = "Height"
	seriesAccumulated = "Accumulated"
)

// Sentinel errors.
var (
	// ErrEmptyRange is returned when the requested line window is empty.
	ErrEmptyRange = errors.New("empty line range")
	// ErrUnknownTheme is returned for unsupported theme names.
	ErrUnknownTheme = errors.New("unknown theme")
)

// Options controls what is plotted.
type Options struct {
	Title  string
	From   int
	To     int
	Theme  Theme
	Height string
}

// Chart builds a line chart of per-line height and accumulated height for
// lines From..To.
func Chart(t *lineheight.Tracker, o Options) (*charts.Line, error) {
	from := max(o.From, 1)
	if o.To < from {
		return nil, fmt.Errorf("%w: %d..%d", ErrEmptyRange, from, o.To)
	}

	p, ok := palettes[o.Theme]
	if !ok {
		p = palettes[ThemeLight]
	}

	chartHeight := o.Height
	if chartHeight == "" {
		chartHeight = defaultHeight
	}

	count := o.To - from + 1
	labels := make([]string, count)
	heights := make([]opts.LineData, count)
	offsets := make([]opts.LineData, count)

	for i := range count {
		line := from + i
		labels[i] = strconv.Itoa(line)
		heights[i] = opts.LineData{Value: t.HeightForLine(line)}
		offsets[i] = opts.LineData{Value: t.AccumulatedHeightIncluding(line)}
	}

	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       o.Title,
			Width:           defaultWidth,
			Height:          chartHeight,
			BackgroundColor: p.Background,
		}),
		charts.WithTitleOpts(p.title(o.Title, fmt.Sprintf("lines %d-%d, %d overrides", from, o.To, t.Len()))),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "8%",
			TextStyle: &opts.TextStyle{Color: p.TextMuted},
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(p.xAxis("Line")),
		charts.WithYAxisOpts(p.yAxis(seriesHeight)),
	)
	chart.ExtendYAxis(p.yAxis(seriesAccumulated))
	chart.SetXAxis(labels)

	chart.AddSeries(seriesHeight, heights,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: p.Height}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: heightLineWidth}),
	)
	chart.AddSeries(seriesAccumulated, offsets,
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: offsetAxisIndex}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: p.Offset}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: offsetLineWidth, Type: "dashed"}),
	)

	return chart, nil
}

// Render writes the chart page for t to w.
func Render(w io.Writer, t *lineheight.Tracker, o Options) error {
	chart, err := Chart(t, o)
	if err != nil {
		return err
	}

	renderErr := chart.Render(w)
	if renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}
