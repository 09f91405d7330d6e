package render

import "errors"

var (
	// ErrUnsupportedChart is returned when a renderer cannot draw a chart kind.
	ErrUnsupportedChart = errors.New("unsupported chart kind")

	// ErrEmptyChart is returned for charts without any data points.
	ErrEmptyChart = errors.New("chart has no data")
)
