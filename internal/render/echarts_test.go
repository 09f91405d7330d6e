package render

import (
	"dashxcel/internal/models"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequests() []models.ChartRequest {
	groups := []models.GroupSum{{Key: "A", Sum: 17}, {Key: "B", Sum: 5}}
	return []models.ChartRequest{
		{
			Kind:  models.ChartLine,
			Title: "Sales Over Time",
			Line: &models.LineSpec{X: "Date", Y: "Sales", Points: []models.TimePoint{
				{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 10},
				{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 3},
			}},
		},
		{Kind: models.ChartBar, Title: "Sales by Region", Bar: &models.GroupSpec{Category: "Region", Value: "Sales", Groups: groups}},
		{Kind: models.ChartPie, Title: "Sales Distribution by Region", Pie: &models.GroupSpec{Category: "Region", Value: "Sales", Groups: groups}},
		{
			Kind:  models.ChartScatter,
			Title: "Units vs Sales",
			Scatter: &models.ScatterSpec{X: "Sales", Y: "Units", Size: "Sales", Points: []models.ScatterPoint{
				{X: 10, Y: 1, Size: 10}, {X: 2.5, Y: 4, Size: 2.5}, {X: 1, Y: 2, Size: 0},
			}},
		},
		{
			Kind:  models.ChartTreemap,
			Title: "Treemap of Sales by Region and Product",
			Treemap: &models.TreemapSpec{Path: []string{"Region", "Product"}, Value: "Sales", Leaves: []models.TreemapLeaf{
				{Path: []string{"A", "x"}, Sum: 10},
				{Path: []string{"A", "y"}, Sum: 7},
				{Path: []string{"B", "x"}, Sum: 5},
			}},
		},
	}
}

func series(t *testing.T, opt map[string]interface{}) map[string]interface{} {
	t.Helper()
	s, ok := opt["series"].([]interface{})
	require.True(t, ok)
	require.Len(t, s, 1)
	m, ok := s[0].(map[string]interface{})
	require.True(t, ok)
	return m
}

func TestEChartsGenerator_SeriesTypes(t *testing.T) {
	eg := NewEChartsGenerator(nil)
	want := []string{"line", "bar", "pie", "scatter", "treemap"}

	for i, req := range sampleRequests() {
		t.Run(string(req.Kind), func(t *testing.T) {
			opt, err := eg.Option(req)
			require.NoError(t, err)
			assert.Equal(t, want[i], series(t, opt)["type"])

			title := opt["title"].(map[string]interface{})
			assert.Equal(t, req.Title, title["text"])
		})
	}
}

func TestEChartsGenerator_Bar(t *testing.T) {
	opt, err := NewEChartsGenerator(nil).Option(sampleRequests()[1])
	require.NoError(t, err)

	xAxis := opt["xAxis"].(map[string]interface{})
	assert.Equal(t, []string{"A", "B"}, xAxis["data"])
	assert.Equal(t, []float64{17, 5}, series(t, opt)["data"])
}

func TestEChartsGenerator_ScatterSymbolSize(t *testing.T) {
	opt, err := NewEChartsGenerator(nil).Option(sampleRequests()[3])
	require.NoError(t, err)

	data := series(t, opt)["data"].([]interface{})
	require.Len(t, data, 3)
	sizes := make([]float64, len(data))
	for i, d := range data {
		sizes[i] = d.(map[string]interface{})["symbolSize"].(float64)
	}
	assert.Equal(t, DefaultStyle().MaxSymbolSize, sizes[0])
	assert.Less(t, sizes[1], sizes[0])
	assert.Equal(t, float64(minSymbolSize), sizes[2])
}

func TestEChartsGenerator_TreemapNesting(t *testing.T) {
	opt, err := NewEChartsGenerator(nil).Option(sampleRequests()[4])
	require.NoError(t, err)

	data := series(t, opt)["data"].([]interface{})
	require.Len(t, data, 2)

	a := data[0].(map[string]interface{})
	assert.Equal(t, "A", a["name"])
	assert.Equal(t, 17.0, a["value"])
	assert.Len(t, a["children"], 2)

	b := data[1].(map[string]interface{})
	assert.Equal(t, "B", b["name"])
	assert.Equal(t, 5.0, b["value"])
}

func TestEChartsGenerator_Generate(t *testing.T) {
	out, err := NewEChartsGenerator(nil).Generate(sampleRequests()[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	for _, prop := range []string{"backgroundColor", "series", "xAxis", "yAxis", "title"} {
		assert.Contains(t, decoded, prop)
	}
}

func TestEChartsGenerator_Unsupported(t *testing.T) {
	eg := NewEChartsGenerator(nil)

	_, err := eg.Option(models.ChartRequest{Kind: models.ChartBar})
	assert.ErrorIs(t, err, ErrUnsupportedChart)

	reqs := append(sampleRequests(), models.ChartRequest{Kind: "radar"})
	opts, err := eg.Options(reqs)
	assert.ErrorIs(t, err, ErrUnsupportedChart)
	assert.Len(t, opts, 5)
}
