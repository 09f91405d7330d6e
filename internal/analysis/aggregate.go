package analysis

import (
	"dashxcel/internal/models"
	"sort"
)

// categoryKey renders a category cell as a group key.
func categoryKey(col *models.Column, i int) string {
	if col.IsMissing(i) {
		return models.MissingCategory
	}
	return col.Text(i)
}

// lessKey orders group keys ascending with the missing key last.
func lessKey(a, b string) bool {
	if a == models.MissingCategory || b == models.MissingCategory {
		return b == models.MissingCategory && a != models.MissingCategory
	}
	return a < b
}

// GroupSum sums value per distinct key of category. Missing categories are
// grouped under models.MissingCategory and missing values add nothing, so no
// row is dropped. Groups come back ordered by key.
func GroupSum(category, value *models.Column) []models.GroupSum {
	sums := make(map[string]float64)
	for i := 0; i < category.Len(); i++ {
		key := categoryKey(category, i)
		v, _ := value.Float(i)
		sums[key] += v
	}

	groups := make([]models.GroupSum, 0, len(sums))
	for k, s := range sums {
		groups = append(groups, models.GroupSum{Key: k, Sum: s})
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessKey(groups[i].Key, groups[j].Key)
	})
	return groups
}

// GroupSum2 is the two level form of GroupSum used for treemaps.
func GroupSum2(level1, level2, value *models.Column) []models.TreemapLeaf {
	type pair struct{ a, b string }
	sums := make(map[pair]float64)
	for i := 0; i < level1.Len(); i++ {
		p := pair{categoryKey(level1, i), categoryKey(level2, i)}
		v, _ := value.Float(i)
		sums[p] += v
	}

	leaves := make([]models.TreemapLeaf, 0, len(sums))
	for p, s := range sums {
		leaves = append(leaves, models.TreemapLeaf{Path: []string{p.a, p.b}, Sum: s})
	}
	sort.Slice(leaves, func(i, j int) bool {
		a, b := leaves[i].Path, leaves[j].Path
		if a[0] != b[0] {
			return lessKey(a[0], b[0])
		}
		return lessKey(a[1], b[1])
	})
	return leaves
}

// SortedTimePoints pairs dates with values and sorts them ascending by date.
// The sort is stable so equal dates keep their row order. Rows missing
// either side are not plotted.
func SortedTimePoints(dates, values *models.Column) []models.TimePoint {
	points := make([]models.TimePoint, 0, dates.Len())
	for i := 0; i < dates.Len(); i++ {
		if dates.IsMissing(i) {
			continue
		}
		t, ok := timeOf(dates.Cells[i])
		if !ok {
			continue
		}
		v, ok := values.Float(i)
		if !ok {
			continue
		}
		points = append(points, models.TimePoint{Time: t, Value: v})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

// ScatterPoints pairs x and y per row with the marker size taken from size.
// Rows missing x or y are skipped; a missing size counts as zero.
func ScatterPoints(x, y, size *models.Column) []models.ScatterPoint {
	points := make([]models.ScatterPoint, 0, x.Len())
	for i := 0; i < x.Len(); i++ {
		xv, okX := x.Float(i)
		yv, okY := y.Float(i)
		if !okX || !okY {
			continue
		}
		s, _ := size.Float(i)
		points = append(points, models.ScatterPoint{X: xv, Y: yv, Size: s})
	}
	return points
}
