package analysis

import (
	"dashxcel/internal/models"
	"fmt"
	"strings"
	"time"
)

// EmptyColumnPolicy decides where a text column with no values at all lands.
type EmptyColumnPolicy string

const (
	// EmptyAsCategorical leaves all-missing columns categorical.
	EmptyAsCategorical EmptyColumnPolicy = "categorical"
	// EmptyAsTemporal treats all-missing columns as vacuously parseable dates.
	EmptyAsTemporal EmptyColumnPolicy = "temporal"
)

// ParseEmptyColumnPolicy validates a policy name from configuration.
func ParseEmptyColumnPolicy(s string) (EmptyColumnPolicy, error) {
	switch p := EmptyColumnPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return EmptyAsCategorical, nil
	case EmptyAsCategorical, EmptyAsTemporal:
		return p, nil
	default:
		return "", fmt.Errorf("unknown empty column policy %q (want categorical or temporal)", s)
	}
}

// Options tunes classification.
type Options struct {
	EmptyColumns EmptyColumnPolicy
}

// DefaultOptions returns the default classification options.
func DefaultOptions() Options {
	return Options{EmptyColumns: EmptyAsCategorical}
}

// Classifier partitions dataset columns into numeric, temporal and
// categorical groups.
type Classifier struct {
	opts Options
}

func NewClassifier(opts Options) *Classifier {
	if opts.EmptyColumns == "" {
		opts.EmptyColumns = EmptyAsCategorical
	}
	return &Classifier{opts: opts}
}

// Classify assigns every column of ds to a group. Declared number columns are
// numeric and declared time columns temporal; text columns become temporal
// only when every value parses as a date. Boolean columns are unclassified.
func (c *Classifier) Classify(ds *models.Dataset) models.Classification {
	result := models.Classification{
		Numeric:      []string{},
		Temporal:     []string{},
		Categorical:  []string{},
		Unclassified: []string{},
		Empty:        []string{},
	}
	if ds == nil {
		return result
	}

	var textCols []*models.Column
	for _, col := range ds.Columns {
		switch col.Kind {
		case models.KindNumber:
			result.Numeric = append(result.Numeric, col.Name)
		case models.KindTime:
			result.Temporal = append(result.Temporal, col.Name)
		case models.KindText:
			textCols = append(textCols, col)
		default:
			result.Unclassified = append(result.Unclassified, col.Name)
		}
		if col.NonMissing() == 0 {
			result.Empty = append(result.Empty, col.Name)
		}
	}

	vacuous := c.opts.EmptyColumns == EmptyAsTemporal
	for _, col := range textCols {
		if ParsesAsTime(col.Cells, vacuous) {
			result.Temporal = append(result.Temporal, col.Name)
		}
	}
	result.Temporal = uniqueInOrder(result.Temporal, ds.Names())

	numeric := toSet(result.Numeric)
	temporal := toSet(result.Temporal)
	unclassified := toSet(result.Unclassified)
	for _, name := range ds.Names() {
		if numeric[name] || temporal[name] || unclassified[name] {
			continue
		}
		result.Categorical = append(result.Categorical, name)
	}

	return result
}

// Process classifies ds and returns a copy in which text columns that were
// coerced to temporal hold time.Time cells.
func (c *Classifier) Process(ds *models.Dataset) (*models.Dataset, models.Classification) {
	cls := c.Classify(ds)
	if ds == nil {
		return ds, cls
	}
	out := ds
	for _, name := range cls.Temporal {
		col := ds.Column(name)
		if col == nil || col.Kind == models.KindTime {
			continue
		}
		out = out.Replace(name, coerceTime(col))
	}
	return out, cls
}

func coerceTime(col *models.Column) *models.Column {
	cells := make([]any, len(col.Cells))
	for i, v := range col.Cells {
		s, ok := v.(string)
		if !ok {
			cells[i] = v
			continue
		}
		if t, ok := TryParseTime(s); ok {
			cells[i] = t
		}
	}
	return &models.Column{Name: col.Name, Kind: models.KindTime, Cells: cells}
}

// uniqueInOrder drops duplicates and orders names by their dataset position.
func uniqueInOrder(names []string, order []string) []string {
	set := toSet(names)
	out := make([]string, 0, len(set))
	for _, n := range order {
		if set[n] {
			out = append(out, n)
			delete(set, n)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// timeOf reads a cell as a time, parsing strings when needed.
func timeOf(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return TryParseTime(x)
	}
	return time.Time{}, false
}
