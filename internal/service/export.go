package service

import (
	"bytes"
	"dashxcel/internal/models"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// Download file names.
const (
	CSVFileName     = "Processed_Data.csv"
	ParquetFileName = "Processed_Data.parquet"
)

// ExportService writes processed datasets for download.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// WriteCSV writes ds as UTF-8 csv with a header row, in column order.
func (s *ExportService) WriteCSV(w io.Writer, ds *models.Dataset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ds.Names()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	dateOnly := make([]bool, ds.NumColumns())
	for i, col := range ds.Columns {
		dateOnly[i] = col.Kind == models.KindTime && allMidnight(col)
	}

	row := make([]string, ds.NumColumns())
	for r := 0; r < ds.NumRows(); r++ {
		for i, col := range ds.Columns {
			row[i] = formatCell(col, r, dateOnly[i])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteParquet writes ds as snappy compressed parquet. The file is built in
// memory so a failure never leaves a truncated body behind.
func (s *ExportService) WriteParquet(w io.Writer, ds *models.Dataset) error {
	var buf bytes.Buffer
	if err := encodeParquet(&buf, ds); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func allMidnight(col *models.Column) bool {
	for i := range col.Cells {
		t, ok := col.Time(i)
		if !ok {
			continue
		}
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return false
		}
	}
	return true
}

func formatCell(col *models.Column, r int, dateOnly bool) string {
	if col.IsMissing(r) {
		return ""
	}
	switch v := col.Cells[r].(type) {
	case float64:
		return formatFloat(v)
	case time.Time:
		if dateOnly {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	}
	return col.Text(r)
}

func formatFloat(v float64) string {
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
