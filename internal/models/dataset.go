package models

import (
	"fmt"
	"time"
)

// Kind is the declared type of a column as delivered by the source file.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText lets Kind appear as a string in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is a named sequence of cells. A nil cell is missing; otherwise the
// cell holds a string, float64, time.Time or bool according to Kind.
type Column struct {
	Name  string
	Kind  Kind
	Cells []any
}

// NewColumn creates a column with the given cells.
func NewColumn(name string, kind Kind, cells ...any) *Column {
	return &Column{Name: name, Kind: kind, Cells: cells}
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Cells)
}

// IsMissing reports whether row i has no value.
func (c *Column) IsMissing(i int) bool {
	return i >= len(c.Cells) || c.Cells[i] == nil
}

// NonMissing counts cells holding a value.
func (c *Column) NonMissing() int {
	n := 0
	for _, v := range c.Cells {
		if v != nil {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i.
func (c *Column) Float(i int) (float64, bool) {
	if c.IsMissing(i) {
		return 0, false
	}
	switch v := c.Cells[i].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Time returns the time value at row i.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.IsMissing(i) {
		return time.Time{}, false
	}
	t, ok := c.Cells[i].(time.Time)
	return t, ok
}

// Text returns the cell at row i rendered as a string. Missing cells return "".
func (c *Column) Text(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch v := c.Cells[i].(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dataset is an ordered set of equally long columns. Datasets are treated as
// immutable: helpers that change a column return a new Dataset.
type Dataset struct {
	Name    string
	Columns []*Column
}

// NewDataset builds a dataset, padding short columns with missing cells so
// that every column has the same length.
func NewDataset(name string, cols ...*Column) *Dataset {
	rows := 0
	for _, c := range cols {
		if c.Len() > rows {
			rows = c.Len()
		}
	}
	for _, c := range cols {
		for c.Len() < rows {
			c.Cells = append(c.Cells, nil)
		}
	}
	return &Dataset{Name: name, Columns: cols}
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// NumColumns returns the column count.
func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) *Column {
	if d == nil {
		return nil
	}
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Replace returns a copy of the dataset with the named column swapped for col.
func (d *Dataset) Replace(name string, col *Column) *Dataset {
	cols := make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		if c.Name == name {
			cols[i] = col
		} else {
			cols[i] = c
		}
	}
	return &Dataset{Name: d.Name, Columns: cols}
}

// Head returns up to n rows as maps keyed by column name.
func (d *Dataset) Head(n int) []map[string]any {
	if n > d.NumRows() {
		n = d.NumRows()
	}
	if n < 0 {
		n = 0
	}
	rows := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := make(map[string]any, len(d.Columns))
		for _, c := range d.Columns {
			row[c.Name] = c.Cells[i]
		}
		rows[i] = row
	}
	return rows
}
