package analysis

import (
	"dashxcel/internal/models"
	"fmt"
	"iter"
	"sort"
)

// Result is the outcome of analysing one dataset.
type Result struct {
	// Dataset is the processed dataset, with coerced date columns.
	Dataset        *models.Dataset
	Classification models.Classification
}

// Service bundles classification, chart selection and summary statistics.
type Service struct {
	classifier *Classifier
}

func NewService(opts Options) *Service {
	return &Service{classifier: NewClassifier(opts)}
}

// Analyze classifies ds and coerces date-like text columns.
func (s *Service) Analyze(ds *models.Dataset) Result {
	processed, cls := s.classifier.Process(ds)
	return Result{Dataset: processed, Classification: cls}
}

// Charts returns the chart request sequence for an analysed dataset.
func (s *Service) Charts(res Result, sel models.Selection) iter.Seq[models.ChartRequest] {
	return SelectCharts(res.Classification, res.Dataset, sel)
}

// KPIs computes sum, mean, min, max and median for every numeric column.
func (s *Service) KPIs(res Result) []models.KPI {
	kpis := []models.KPI{}
	for _, name := range res.Classification.Numeric {
		col := res.Dataset.Column(name)
		if col == nil {
			continue
		}
		stats, err := CalculateStats(col)
		if err != nil {
			continue
		}
		kpis = append(kpis, models.KPI{
			Name:   name,
			Value:  stats.Sum,
			Avg:    stats.Mean,
			Min:    stats.Min,
			Max:    stats.Max,
			Median: stats.Median,
			Count:  stats.Count,
			Type:   "sum",
		})
	}
	return kpis
}

// Stats holds basic statistics for a numeric column.
type Stats struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// CalculateStats computes basic stats for a numeric column
func CalculateStats(col *models.Column) (Stats, error) {
	values := []float64{}
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return Stats{}, fmt.Errorf("column %q has no numeric values", col.Name)
	}

	sort.Float64s(values)
	st := Stats{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
	}

	for _, v := range values {
		st.Sum += v
	}
	st.Mean = st.Sum / float64(len(values))

	if len(values)%2 == 0 {
		st.Median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	} else {
		st.Median = values[len(values)/2]
	}

	return st, nil
}
