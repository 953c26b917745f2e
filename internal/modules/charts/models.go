// Package charts builds chart specifications from analytics output and
// renders them to PNG.
package charts

import (
	"encoding/json"
	"math"
)

// Meta carries display settings shared by all chart kinds.
type Meta struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Theme  string `json:"theme"`
}

// LineSpec describes one or more series over shared x labels.
type LineSpec struct {
	Meta        Meta        `json:"meta"`
	XLabels     []string    `json:"x_labels"`
	SeriesNames []string    `json:"series_names"`
	Series      [][]float64 `json:"series"`
}

// PieSpec describes a single ring of labeled values.
type PieSpec struct {
	Meta   Meta      `json:"meta"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// BarSpec describes grouped bars over shared x labels.
type BarSpec struct {
	Meta        Meta        `json:"meta"`
	XLabels     []string    `json:"x_labels"`
	SeriesNames []string    `json:"series_names"`
	Series      [][]float64 `json:"series"`
}

// NaN cells (SMA warm-up, correlation pairs without shared history) are
// encoded as null; encoding/json rejects raw NaN.
func nullableSeries(series [][]float64) [][]*float64 {
	rows := make([][]*float64, len(series))
	for i, row := range series {
		rows[i] = make([]*float64, len(row))
		for j, cell := range row {
			if !math.IsNaN(cell) {
				v := cell
				rows[i][j] = &v
			}
		}
	}
	return rows
}

func (s LineSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Meta        Meta         `json:"meta"`
		XLabels     []string     `json:"x_labels"`
		SeriesNames []string     `json:"series_names"`
		Series      [][]*float64 `json:"series"`
	}{s.Meta, s.XLabels, s.SeriesNames, nullableSeries(s.Series)})
}

func (s BarSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Meta        Meta         `json:"meta"`
		XLabels     []string     `json:"x_labels"`
		SeriesNames []string     `json:"series_names"`
		Series      [][]*float64 `json:"series"`
	}{s.Meta, s.XLabels, s.SeriesNames, nullableSeries(s.Series)})
}
