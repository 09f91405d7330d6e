package render

// Style holds the colors and fonts shared by the renderers.
type Style struct {
	ColorPrimary    string
	ColorBackground string
	ColorText       string
	ColorMuted      string
	ColorBorder     string
	Palette         []string
	FontFamily      string
	FontSizeLabel   int
	// MaxSymbolSize is the marker diameter, in pixels, of the largest scatter point.
	MaxSymbolSize float64
}

// DefaultStyle returns the dashboard theme.
func DefaultStyle() *Style {
	return &Style{
		ColorPrimary:    "#1f77b4",
		ColorBackground: "#ffffff",
		ColorText:       "#2a3f5f",
		ColorMuted:      "#6b7280",
		ColorBorder:     "#e5e7eb",
		Palette: []string{
			"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
			"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
		},
		FontFamily:    "Inter, sans-serif",
		FontSizeLabel: 12,
		MaxSymbolSize: 40,
	}
}
