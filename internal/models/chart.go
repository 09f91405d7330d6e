package models

import "time"

// ChartKind identifies the chart a request describes.
type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartPie     ChartKind = "pie"
	ChartScatter ChartKind = "scatter"
	ChartTreemap ChartKind = "treemap"
)

// MissingCategory is the group key used for rows whose category is missing.
const MissingCategory = "(blank)"

// ChartRequest describes one chart independent of the rendering technology.
// Exactly one payload field is set, matching Kind.
type ChartRequest struct {
	Kind    ChartKind    `json:"kind"`
	Title   string       `json:"title"`
	Line    *LineSpec    `json:"line,omitempty"`
	Bar     *GroupSpec   `json:"bar,omitempty"`
	Pie     *GroupSpec   `json:"pie,omitempty"`
	Scatter *ScatterSpec `json:"scatter,omitempty"`
	Treemap *TreemapSpec `json:"treemap,omitempty"`
}

// LineSpec is a time series of Y over X.
type LineSpec struct {
	X      string      `json:"x"`
	Y      string      `json:"y"`
	Points []TimePoint `json:"points"`
}

type TimePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// GroupSpec holds a sum-by-key reduction of Value over Category.
type GroupSpec struct {
	Category string     `json:"category"`
	Value    string     `json:"value"`
	Groups   []GroupSum `json:"groups"`
}

type GroupSum struct {
	Key string  `json:"key"`
	Sum float64 `json:"sum"`
}

// ScatterSpec plots Y against X with the marker size read from Size.
type ScatterSpec struct {
	X      string         `json:"x"`
	Y      string         `json:"y"`
	Size   string         `json:"size"`
	Points []ScatterPoint `json:"points"`
}

type ScatterPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// TreemapSpec holds a two level sum-by-key reduction.
type TreemapSpec struct {
	Path   []string      `json:"path"`
	Value  string        `json:"value"`
	Leaves []TreemapLeaf `json:"leaves"`
}

type TreemapLeaf struct {
	Path []string `json:"path"`
	Sum  float64  `json:"sum"`
}

// Selection carries the user's column choices. Empty fields fall back to the
// first available option of the matching group.
type Selection struct {
	DateColumn      string `json:"date_column,omitempty"`
	TimeValueColumn string `json:"time_value_column,omitempty"`
	CategoryColumn  string `json:"category_column,omitempty"`
	GroupValue      string `json:"group_value_column,omitempty"`
	ScatterX        string `json:"scatter_x,omitempty"`
	ScatterY        string `json:"scatter_y,omitempty"`
	TreemapLevel1   string `json:"treemap_level1,omitempty"`
	TreemapLevel2   string `json:"treemap_level2,omitempty"`
	TreemapValue    string `json:"treemap_value,omitempty"`
}

// Merge returns s with every empty field filled from other.
func (s Selection) Merge(other Selection) Selection {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Selection{
		DateColumn:      pick(s.DateColumn, other.DateColumn),
		TimeValueColumn: pick(s.TimeValueColumn, other.TimeValueColumn),
		CategoryColumn:  pick(s.CategoryColumn, other.CategoryColumn),
		GroupValue:      pick(s.GroupValue, other.GroupValue),
		ScatterX:        pick(s.ScatterX, other.ScatterX),
		ScatterY:        pick(s.ScatterY, other.ScatterY),
		TreemapLevel1:   pick(s.TreemapLevel1, other.TreemapLevel1),
		TreemapLevel2:   pick(s.TreemapLevel2, other.TreemapLevel2),
		TreemapValue:    pick(s.TreemapValue, other.TreemapValue),
	}
}
