package plot

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/opts"
)

// Theme selects the chart palette.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type palette struct {
	Background string
	Grid       string
	Axis       string
	Text       string
	TextMuted  string
	Height     string
	Offset     string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		Background: "#fafaf9", // stone-50.
		Grid:       "#e7e5e4", // stone-200.
		Axis:       "#a8a29e", // stone-400.
		Text:       "#44403c", // stone-700.
		TextMuted:  "#78716c", // stone-500.
		Height:     "#2563eb",
		Offset:     "#d97706",
	},
	ThemeDark: {
		Background: "#1c1917", // stone-900.
		Grid:       "#44403c", // stone-700.
		Axis:       "#57534e", // stone-600.
		Text:       "#d6d3d1", // stone-300.
		TextMuted:  "#a8a29e", // stone-400.
		Height:     "#60a5fa",
		Offset:     "#fbbf24",
	},
}

// ParseTheme maps a configuration value to a Theme.
func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if _, ok := palettes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}

	return t, nil
}

func (p palette) title(title, subtitle string) opts.Title {
	return opts.Title{
		Title:         title,
		Subtitle:      subtitle,
		Left:          "center",
		TitleStyle:    &opts.TextStyle{Color: p.Text},
		SubtitleStyle: &opts.TextStyle{Color: p.TextMuted},
	}
}

func (p palette) xAxis(name string) opts.XAxis {
	return opts.XAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: p.TextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: p.Axis}},
	}
}

func (p palette) yAxis(name string) opts.YAxis {
	return opts.YAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: p.TextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: p.Axis}},
		SplitLine: &opts.SplitLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: p.Grid},
		},
	}
}
