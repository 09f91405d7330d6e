package render

import (
	"dashxcel/internal/models"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNGRenderer draws chart requests as static images.
type PNGRenderer struct {
	style  *Style
	Width  int
	Height int
}

// NewPNGRenderer creates a renderer; a nil style selects DefaultStyle.
func NewPNGRenderer(style *Style) *PNGRenderer {
	if style == nil {
		style = DefaultStyle()
	}
	return &PNGRenderer{style: style, Width: 1024, Height: 512}
}

// Render writes req as a PNG image. Treemaps have no static rendering.
func (pr *PNGRenderer) Render(w io.Writer, req models.ChartRequest) error {
	var r interface {
		Render(chart.RendererProvider, io.Writer) error
	}
	var err error

	switch {
	case req.Kind == models.ChartLine && req.Line != nil:
		r, err = pr.lineChart(req.Title, req.Line)
	case req.Kind == models.ChartBar && req.Bar != nil:
		r, err = pr.barChart(req.Title, req.Bar)
	case req.Kind == models.ChartPie && req.Pie != nil:
		r, err = pr.pieChart(req.Title, req.Pie)
	case req.Kind == models.ChartScatter && req.Scatter != nil:
		r, err = pr.scatterChart(req.Title, req.Scatter)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedChart, req.Kind)
	}
	if err != nil {
		return err
	}

	if err := r.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render %s chart: %w", req.Kind, err)
	}
	return nil
}

func (pr *PNGRenderer) color(i int) drawing.Color {
	if len(pr.style.Palette) == 0 {
		return drawing.ColorFromHex(trimHash(pr.style.ColorPrimary))
	}
	return drawing.ColorFromHex(trimHash(pr.style.Palette[i%len(pr.style.Palette)]))
}

func trimHash(hex string) string {
	if len(hex) > 0 && hex[0] == '#' {
		return hex[1:]
	}
	return hex
}

func (pr *PNGRenderer) background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

func (pr *PNGRenderer) lineChart(title string, spec *models.LineSpec) (*chart.Chart, error) {
	if len(spec.Points) == 0 {
		return nil, ErrEmptyChart
	}
	times := make([]time.Time, len(spec.Points))
	ys := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		times[i], ys[i] = p.Time, p.Value
	}
	xRange := spanRange(chart.TimeToFloat64(times[0]), chart.TimeToFloat64(times[len(times)-1]), float64(12*time.Hour))

	return &chart.Chart{
		Title:      title,
		Width:      pr.Width,
		Height:     pr.Height,
		Background: pr.background(),
		XAxis:      chart.XAxis{Name: spec.X, ValueFormatter: chart.TimeDateValueFormatter, Range: xRange},
		YAxis:      chart.YAxis{Name: spec.Y, Range: valueRange(ys)},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    spec.Y,
				XValues: times,
				YValues: ys,
				Style:   chart.Style{StrokeColor: pr.color(0), StrokeWidth: 2},
			},
		},
	}, nil
}

func (pr *PNGRenderer) barChart(title string, spec *models.GroupSpec) (*chart.BarChart, error) {
	if len(spec.Groups) == 0 {
		return nil, ErrEmptyChart
	}
	bars := make([]chart.Value, len(spec.Groups))
	lo, hi := 0.0, 0.0
	for i, g := range spec.Groups {
		lo, hi = min(lo, g.Sum), max(hi, g.Sum)
		bars[i] = chart.Value{
			Label: g.Key,
			Value: g.Sum,
			Style: chart.Style{FillColor: pr.color(0), StrokeColor: pr.color(0)},
		}
	}
	return &chart.BarChart{
		Title:      title,
		Width:      pr.Width,
		Height:     pr.Height,
		Background: pr.background(),
		BarWidth:   max(8, pr.Width/(2*len(bars)+1)),
		YAxis:      chart.YAxis{Range: barRange(lo, hi)},
		Bars:       bars,
	}, nil
}

// pieChart drops non-positive slices, which a pie cannot draw.
func (pr *PNGRenderer) pieChart(title string, spec *models.GroupSpec) (*chart.PieChart, error) {
	values := make([]chart.Value, 0, len(spec.Groups))
	for _, g := range spec.Groups {
		if g.Sum <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: g.Key,
			Value: g.Sum,
			Style: chart.Style{FillColor: pr.color(len(values))},
		})
	}
	if len(values) == 0 {
		return nil, ErrEmptyChart
	}
	return &chart.PieChart{
		Title:      title,
		Width:      pr.Height,
		Height:     pr.Height,
		Background: pr.background(),
		Values:     values,
	}, nil
}

// scatterChart plots markers only. Marker size is not encoded in the image.
func (pr *PNGRenderer) scatterChart(title string, spec *models.ScatterSpec) (*chart.Chart, error) {
	if len(spec.Points) == 0 {
		return nil, ErrEmptyChart
	}
	xs := make([]float64, len(spec.Points))
	ys := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	return &chart.Chart{
		Title:      title,
		Width:      pr.Width,
		Height:     pr.Height,
		Background: pr.background(),
		XAxis:      chart.XAxis{Name: spec.X, Range: valueRange(xs)},
		YAxis:      chart.YAxis{Name: spec.Y, Range: valueRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    spec.Y,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    pr.color(0),
				},
			},
		},
	}, nil
}

// spanRange returns nil when lo and hi already span a range; otherwise it
// widens the degenerate range by pad on both sides, since go-chart rejects
// zero width ranges.
func spanRange(lo, hi, pad float64) chart.Range {
	if hi > lo {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func valueRange(values []float64) chart.Range {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	return spanRange(lo, hi, 1)
}

// barRange always includes zero so bars grow from the axis.
func barRange(lo, hi float64) chart.Range {
	if r := spanRange(lo, hi, 1); r != nil {
		return r
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
