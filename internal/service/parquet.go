package service

import (
	"bytes"
	"context"
	"dashxcel/internal/models"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

func decodeParquet(ctx context.Context, data []byte) (*models.Dataset, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	names := make([]string, table.NumCols())
	for i := range names {
		names[i] = table.Schema().Field(i).Name
	}
	headers := uniqueHeaders(names)

	columns := make([]*models.Column, table.NumCols())
	for i := range columns {
		col := table.Column(i)
		kind := kindForArrow(col.DataType())
		cells := make([]any, 0, table.NumRows())
		for _, chunk := range col.Data().Chunks() {
			for pos := 0; pos < chunk.Len(); pos++ {
				cells = append(cells, arrowValue(chunk, pos, kind))
			}
		}
		columns[i] = &models.Column{Name: headers[i], Kind: kind, Cells: cells}
	}
	return models.NewDataset("", columns...), nil
}

func kindForArrow(dt arrow.DataType) models.Kind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.DECIMAL128:
		return models.KindNumber
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return models.KindTime
	case arrow.BOOL:
		return models.KindBool
	}
	return models.KindText
}

// arrowValue converts one arrow cell to the dataset cell for kind.
func arrowValue(arr arrow.Array, pos int, kind models.Kind) any {
	if arr.IsNull(pos) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return float64(a.Value(pos))
	case *array.Int16:
		return float64(a.Value(pos))
	case *array.Int32:
		return float64(a.Value(pos))
	case *array.Int64:
		return float64(a.Value(pos))
	case *array.Uint8:
		return float64(a.Value(pos))
	case *array.Uint16:
		return float64(a.Value(pos))
	case *array.Uint32:
		return float64(a.Value(pos))
	case *array.Uint64:
		return float64(a.Value(pos))
	case *array.Float16:
		return float64(a.Value(pos).Float32())
	case *array.Float32:
		return float64(a.Value(pos))
	case *array.Float64:
		return a.Value(pos)
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return a.Value(pos).ToFloat64(scale)
	case *array.Boolean:
		return a.Value(pos)
	case *array.Date32:
		return a.Value(pos).ToTime().UTC()
	case *array.Date64:
		return a.Value(pos).ToTime().UTC()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(pos).ToTime(unit).UTC()
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	}
	if kind != models.KindText {
		return nil
	}
	return arr.ValueStr(pos)
}

func arrowType(kind models.Kind) arrow.DataType {
	switch kind {
	case models.KindNumber:
		return arrow.PrimitiveTypes.Float64
	case models.KindTime:
		return arrow.FixedWidthTypes.Timestamp_us
	case models.KindBool:
		return arrow.FixedWidthTypes.Boolean
	}
	return arrow.BinaryTypes.String
}

// encodeParquet writes ds as a single row group parquet file.
func encodeParquet(w io.Writer, ds *models.Dataset) error {
	fields := make([]arrow.Field, ds.NumColumns())
	for i, col := range ds.Columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrowType(col.Kind), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for i, col := range ds.Columns {
		for r := 0; r < col.Len(); r++ {
			appendCell(b.Field(i), col, r)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	return writer.Close()
}

func appendCell(b array.Builder, col *models.Column, r int) {
	if col.IsMissing(r) {
		b.AppendNull()
		return
	}
	switch fb := b.(type) {
	case *array.Float64Builder:
		if v, ok := col.Float(r); ok {
			fb.Append(v)
			return
		}
	case *array.TimestampBuilder:
		if t, ok := col.Time(r); ok {
			fb.Append(arrow.Timestamp(t.UTC().Round(time.Microsecond).UnixMicro()))
			return
		}
	case *array.BooleanBuilder:
		if v, ok := col.Cells[r].(bool); ok {
			fb.Append(v)
			return
		}
	case *array.StringBuilder:
		fb.Append(col.Text(r))
		return
	}
	b.AppendNull()
}
