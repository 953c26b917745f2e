package charts

import (
	"fmt"
	"math"

	charts "github.com/vicanso/go-charts/v2"
)

func themeName(theme string) string {
	if theme == "dark" {
		return charts.ThemeDark
	}
	return charts.ThemeLight
}

// xAxisSplit keeps long date axes readable by limiting label count.
func xAxisSplit(labels int) int {
	if labels <= 10 {
		return labels
	}
	return 10
}

// RenderLine renders a line spec to PNG. NaN points (e.g. the head of an
// SMA overlay) are encoded as null so the renderer skips them.
func RenderLine(spec *LineSpec) ([]byte, error) {
	series := make([][]float64, len(spec.Series))
	for i, row := range spec.Series {
		series[i] = make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				series[i][j] = charts.GetNullValue()
			} else {
				series[i][j] = v
			}
		}
	}

	painter, err := charts.LineRender(series,
		charts.TitleTextOptionFunc(spec.Meta.Title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        spec.XLabels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: xAxisSplit(len(spec.XLabels)),
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: spec.SeriesNames}),
		charts.ThemeOptionFunc(themeName(spec.Meta.Theme)),
		charts.WidthOptionFunc(spec.Meta.Width),
		charts.HeightOptionFunc(spec.Meta.Height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render line chart: %w", err)
	}
	return painter.Bytes()
}

// RenderPie renders a pie spec to PNG.
func RenderPie(spec *PieSpec) ([]byte, error) {
	painter, err := charts.PieRender(spec.Values,
		charts.TitleTextOptionFunc(spec.Meta.Title),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: spec.Labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(themeName(spec.Meta.Theme)),
		charts.WidthOptionFunc(spec.Meta.Width),
		charts.HeightOptionFunc(spec.Meta.Height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render pie chart: %w", err)
	}
	return painter.Bytes()
}

// RenderBar renders a bar spec to PNG. NaN cells render as zero bars.
func RenderBar(spec *BarSpec) ([]byte, error) {
	painter, err := charts.BarRender(sanitize(spec.Series),
		charts.TitleTextOptionFunc(spec.Meta.Title),
		charts.XAxisDataOptionFunc(spec.XLabels),
		charts.LegendOptionFunc(charts.LegendOption{Data: spec.SeriesNames}),
		charts.ThemeOptionFunc(themeName(spec.Meta.Theme)),
		charts.WidthOptionFunc(spec.Meta.Width),
		charts.HeightOptionFunc(spec.Meta.Height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render bar chart: %w", err)
	}
	return painter.Bytes()
}
