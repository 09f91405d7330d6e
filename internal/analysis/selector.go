package analysis

import (
	"dashxcel/internal/models"
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
)

// ResolveSelection fills unset or unknown choices with the default option of
// the matching column group. Choices that no group can satisfy stay empty.
func ResolveSelection(cls models.Classification, sel models.Selection) models.Selection {
	return models.Selection{
		DateColumn:      pick(sel.DateColumn, cls.Temporal, 0),
		TimeValueColumn: pick(sel.TimeValueColumn, cls.Numeric, 0),
		CategoryColumn:  pick(sel.CategoryColumn, cls.Categorical, 0),
		GroupValue:      pick(sel.GroupValue, cls.Numeric, 0),
		ScatterX:        pick(sel.ScatterX, cls.Numeric, 0),
		ScatterY:        pick(sel.ScatterY, cls.Numeric, 1),
		TreemapLevel1:   pick(sel.TreemapLevel1, cls.Categorical, 0),
		TreemapLevel2:   pick(sel.TreemapLevel2, cls.Categorical, 1),
		TreemapValue:    pick(sel.TreemapValue, cls.Numeric, 0),
	}
}

func pick(choice string, options []string, def int) string {
	if choice != "" && slices.Contains(options, choice) {
		return choice
	}
	if def < len(options) {
		return options[def]
	}
	return ""
}

// SelectCharts returns the chart requests applicable to ds. Rules run lazily
// as the sequence is consumed; a rule whose columns are unavailable yields
// nothing. The sequence can be ranged over once: later iterations are empty.
func SelectCharts(cls models.Classification, ds *models.Dataset, sel models.Selection) iter.Seq[models.ChartRequest] {
	sel = ResolveSelection(cls, sel)
	rules := []func(models.Classification, *models.Dataset, models.Selection) []models.ChartRequest{
		timeSeriesCharts,
		groupCharts,
		scatterCharts,
		treemapCharts,
	}

	var consumed atomic.Bool
	return func(yield func(models.ChartRequest) bool) {
		if consumed.Swap(true) || ds == nil {
			return
		}
		for _, rule := range rules {
			for _, req := range rule(cls, ds, sel) {
				if !yield(req) {
					return
				}
			}
		}
	}
}

func timeSeriesCharts(cls models.Classification, ds *models.Dataset, sel models.Selection) []models.ChartRequest {
	if len(cls.Temporal) == 0 || len(cls.Numeric) == 0 {
		return nil
	}
	dates, values := ds.Column(sel.DateColumn), ds.Column(sel.TimeValueColumn)
	if dates == nil || values == nil {
		return nil
	}
	return []models.ChartRequest{{
		Kind:  models.ChartLine,
		Title: fmt.Sprintf("%s Over Time", values.Name),
		Line: &models.LineSpec{
			X:      dates.Name,
			Y:      values.Name,
			Points: SortedTimePoints(dates, values),
		},
	}}
}

func groupCharts(cls models.Classification, ds *models.Dataset, sel models.Selection) []models.ChartRequest {
	if len(cls.Categorical) == 0 || len(cls.Numeric) == 0 {
		return nil
	}
	cat, num := ds.Column(sel.CategoryColumn), ds.Column(sel.GroupValue)
	if cat == nil || num == nil {
		return nil
	}
	groups := GroupSum(cat, num)
	return []models.ChartRequest{
		{
			Kind:  models.ChartBar,
			Title: fmt.Sprintf("%s by %s", num.Name, cat.Name),
			Bar:   &models.GroupSpec{Category: cat.Name, Value: num.Name, Groups: groups},
		},
		{
			Kind:  models.ChartPie,
			Title: fmt.Sprintf("%s Distribution by %s", num.Name, cat.Name),
			Pie:   &models.GroupSpec{Category: cat.Name, Value: num.Name, Groups: slices.Clone(groups)},
		},
	}
}

// scatterCharts always encodes marker size with the first numeric column,
// whichever columns were chosen for the axes.
func scatterCharts(cls models.Classification, ds *models.Dataset, sel models.Selection) []models.ChartRequest {
	if len(cls.Numeric) < 2 {
		return nil
	}
	x, y, size := ds.Column(sel.ScatterX), ds.Column(sel.ScatterY), ds.Column(cls.Numeric[0])
	if x == nil || y == nil || size == nil {
		return nil
	}
	return []models.ChartRequest{{
		Kind:  models.ChartScatter,
		Title: fmt.Sprintf("%s vs %s", y.Name, x.Name),
		Scatter: &models.ScatterSpec{
			X:      x.Name,
			Y:      y.Name,
			Size:   size.Name,
			Points: ScatterPoints(x, y, size),
		},
	}}
}

func treemapCharts(cls models.Classification, ds *models.Dataset, sel models.Selection) []models.ChartRequest {
	if len(cls.Categorical) < 2 || len(cls.Numeric) == 0 {
		return nil
	}
	l1, l2, v := ds.Column(sel.TreemapLevel1), ds.Column(sel.TreemapLevel2), ds.Column(sel.TreemapValue)
	if l1 == nil || l2 == nil || v == nil {
		return nil
	}
	return []models.ChartRequest{{
		Kind:  models.ChartTreemap,
		Title: fmt.Sprintf("Treemap of %s by %s and %s", v.Name, l1.Name, l2.Name),
		Treemap: &models.TreemapSpec{
			Path:   []string{l1.Name, l2.Name},
			Value:  v.Name,
			Leaves: GroupSum2(l1, l2, v),
		},
	}}
}
