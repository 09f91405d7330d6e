package render

import (
	"dashxcel/internal/models"
	"encoding/json"
	"fmt"
	"math"
)

// EChartsGenerator turns chart requests into ECharts option objects.
type EChartsGenerator struct {
	style *Style
}

// NewEChartsGenerator creates a generator; a nil style selects DefaultStyle.
func NewEChartsGenerator(style *Style) *EChartsGenerator {
	if style == nil {
		style = DefaultStyle()
	}
	return &EChartsGenerator{style: style}
}

// Option builds the ECharts option for one chart request.
func (eg *EChartsGenerator) Option(req models.ChartRequest) (map[string]interface{}, error) {
	var series map[string]interface{}
	config := eg.baseConfig(req.Title)

	switch {
	case req.Kind == models.ChartLine && req.Line != nil:
		config["xAxis"] = eg.axis("time", req.Line.X)
		config["yAxis"] = eg.axis("value", req.Line.Y)
		config["tooltip"] = eg.tooltip("axis")
		series = eg.lineSeries(req.Line)
	case req.Kind == models.ChartBar && req.Bar != nil:
		labels, values := groupData(req.Bar.Groups)
		x := eg.axis("category", req.Bar.Category)
		x["data"] = labels
		config["xAxis"] = x
		config["yAxis"] = eg.axis("value", req.Bar.Value)
		series = map[string]interface{}{
			"type": "bar",
			"name": req.Bar.Value,
			"data": values,
			"itemStyle": map[string]interface{}{
				"color":        eg.style.ColorPrimary,
				"borderRadius": []int{4, 4, 0, 0},
			},
		}
	case req.Kind == models.ChartPie && req.Pie != nil:
		data := make([]interface{}, 0, len(req.Pie.Groups))
		for _, g := range req.Pie.Groups {
			data = append(data, map[string]interface{}{"name": g.Key, "value": g.Sum})
		}
		config["legend"] = map[string]interface{}{
			"orient":    "vertical",
			"left":      "left",
			"textStyle": eg.textStyle(eg.style.ColorText),
		}
		series = map[string]interface{}{
			"type":   "pie",
			"name":   req.Pie.Value,
			"radius": "55%",
			"center": []string{"50%", "50%"},
			"data":   data,
		}
	case req.Kind == models.ChartScatter && req.Scatter != nil:
		config["xAxis"] = eg.axis("value", req.Scatter.X)
		config["yAxis"] = eg.axis("value", req.Scatter.Y)
		series = eg.scatterSeries(req.Scatter)
	case req.Kind == models.ChartTreemap && req.Treemap != nil:
		series = map[string]interface{}{
			"type":       "treemap",
			"name":       req.Treemap.Value,
			"data":       treemapData(req.Treemap.Leaves),
			"leafDepth":  len(req.Treemap.Path),
			"label":      map[string]interface{}{"show": true, "formatter": "{b}"},
			"upperLabel": map[string]interface{}{"show": true, "height": 24},
			"itemStyle": map[string]interface{}{
				"borderColor": eg.style.ColorBorder,
				"borderWidth": 2,
				"gapWidth":    2,
			},
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChart, req.Kind)
	}

	config["series"] = []interface{}{series}
	return config, nil
}

// Options builds options for every request in order. Requests that cannot be
// rendered are reported in the error and left out.
func (eg *EChartsGenerator) Options(reqs []models.ChartRequest) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(reqs))
	var firstErr error
	for _, req := range reqs {
		opt, err := eg.Option(req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, opt)
	}
	return out, firstErr
}

// Generate returns the option for req as JSON.
func (eg *EChartsGenerator) Generate(req models.ChartRequest) (string, error) {
	config, err := eg.Option(req)
	if err != nil {
		return "", err
	}
	jsonBytes, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ECharts config: %w", err)
	}
	return string(jsonBytes), nil
}

func (eg *EChartsGenerator) baseConfig(title string) map[string]interface{} {
	return map[string]interface{}{
		"backgroundColor": eg.style.ColorBackground,
		"color":           eg.style.Palette,
		"animation":       true,
		"title": map[string]interface{}{
			"text":      title,
			"left":      "center",
			"textStyle": eg.textStyle(eg.style.ColorText),
		},
		"grid": map[string]interface{}{
			"left":         "10%",
			"right":        "5%",
			"bottom":       "10%",
			"top":          "15%",
			"containLabel": true,
		},
		"tooltip": eg.tooltip("item"),
	}
}

func (eg *EChartsGenerator) tooltip(trigger string) map[string]interface{} {
	return map[string]interface{}{
		"trigger":     trigger,
		"borderColor": eg.style.ColorPrimary,
		"borderWidth": 1,
	}
}

func (eg *EChartsGenerator) textStyle(color string) map[string]interface{} {
	return map[string]interface{}{
		"color":      color,
		"fontFamily": eg.style.FontFamily,
		"fontSize":   eg.style.FontSizeLabel,
	}
}

func (eg *EChartsGenerator) axis(kind, name string) map[string]interface{} {
	return map[string]interface{}{
		"type":          kind,
		"name":          name,
		"nameLocation":  "middle",
		"nameGap":       30,
		"nameTextStyle": eg.textStyle(eg.style.ColorMuted),
		"axisLabel":     eg.textStyle(eg.style.ColorMuted),
		"axisLine": map[string]interface{}{
			"lineStyle": map[string]interface{}{"color": eg.style.ColorBorder},
		},
	}
}

func (eg *EChartsGenerator) lineSeries(spec *models.LineSpec) map[string]interface{} {
	data := make([]interface{}, 0, len(spec.Points))
	for _, p := range spec.Points {
		data = append(data, []interface{}{p.Time.UnixMilli(), p.Value})
	}
	return map[string]interface{}{
		"type":       "line",
		"name":       spec.Y,
		"data":       data,
		"showSymbol": len(data) < 50,
		"lineStyle":  map[string]interface{}{"color": eg.style.ColorPrimary, "width": 2},
	}
}

// scatterSeries sizes each marker by area relative to the largest size
// value, so the largest point is MaxSymbolSize pixels across.
func (eg *EChartsGenerator) scatterSeries(spec *models.ScatterSpec) map[string]interface{} {
	maxSize := 0.0
	for _, p := range spec.Points {
		maxSize = math.Max(maxSize, p.Size)
	}

	data := make([]interface{}, 0, len(spec.Points))
	for _, p := range spec.Points {
		data = append(data, map[string]interface{}{
			"value":      []float64{p.X, p.Y, p.Size},
			"symbolSize": symbolSize(p.Size, maxSize, eg.style.MaxSymbolSize),
		})
	}
	return map[string]interface{}{
		"type":      "scatter",
		"name":      spec.Size,
		"data":      data,
		"itemStyle": map[string]interface{}{"color": eg.style.ColorPrimary, "opacity": 0.7},
	}
}

const minSymbolSize = 4

func symbolSize(size, maxSize, maxSymbol float64) float64 {
	if maxSize <= 0 || size <= 0 {
		return minSymbolSize
	}
	return math.Max(minSymbolSize, maxSymbol*math.Sqrt(size/maxSize))
}

func groupData(groups []models.GroupSum) ([]string, []float64) {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		values[i] = g.Sum
	}
	return labels, values
}

// treemapData nests leaves by path, keeping the order leaves arrive in.
func treemapData(leaves []models.TreemapLeaf) []interface{} {
	type node struct {
		name     string
		value    float64
		children []*node
		index    map[string]*node
	}
	root := &node{index: map[string]*node{}}
	for _, leaf := range leaves {
		cur := root
		for _, name := range leaf.Path {
			child, ok := cur.index[name]
			if !ok {
				child = &node{name: name, index: map[string]*node{}}
				cur.index[name] = child
				cur.children = append(cur.children, child)
			}
			child.value += leaf.Sum
			cur = child
		}
	}

	var build func(nodes []*node) []interface{}
	build = func(nodes []*node) []interface{} {
		out := make([]interface{}, 0, len(nodes))
		for _, n := range nodes {
			item := map[string]interface{}{"name": n.name, "value": n.value}
			if len(n.children) > 0 {
				item["children"] = build(n.children)
			}
			out = append(out, item)
		}
		return out
	}
	return build(root.children)
}
