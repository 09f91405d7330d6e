package service

import (
	"bytes"
	"dashxcel/internal/models"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Built-in number format ids that render a date or time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var numFmtLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormat reports whether a custom number format code renders dates.
func isDateFormat(code string) bool {
	code = strings.ToLower(numFmtLiterals.ReplaceAllString(code, ""))
	return strings.ContainsAny(code, "ydhs")
}

type xlsxSheet struct {
	f        *excelize.File
	name     string
	date1904 bool
	styles   map[int]bool
}

func decodeXLSX(data []byte, sheet string) (*models.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyFile
	}

	s := &xlsxSheet{f: f, name: sheet, styles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}

	width := 0
	for _, row := range raw {
		width = max(width, len(row))
	}
	headerRow := make([]string, width)
	copy(headerRow, raw[0])
	headers := uniqueHeaders(headerRow)

	columns := make([]*models.Column, width)
	for j := range width {
		col, err := s.column(headers[j], j, raw[1:], formatted[min(1, len(formatted)):])
		if err != nil {
			return nil, err
		}
		columns[j] = col
	}
	return models.NewDataset("", columns...), nil
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// column reads column j. Cells keep their workbook type when the whole column
// agrees on one; otherwise every cell falls back to its displayed text.
func (s *xlsxSheet) column(name string, j int, raw, formatted [][]string) (*models.Column, error) {
	cells := make([]any, len(raw))
	kinds := map[models.Kind]bool{}
	for r := range raw {
		v := cellAt(raw, r, j)
		if v == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(j+1, r+2)
		if err != nil {
			return nil, err
		}
		cell, kind, err := s.typedCell(ref, v)
		if err != nil {
			return nil, err
		}
		cells[r] = cell
		kinds[kind] = true
	}

	if len(kinds) > 1 {
		for r := range cells {
			if cells[r] != nil {
				cells[r] = cellAt(formatted, r, j)
			}
		}
		return &models.Column{Name: name, Kind: models.KindText, Cells: cells}, nil
	}
	kind := models.KindText
	for k := range kinds {
		kind = k
	}
	return &models.Column{Name: name, Kind: kind, Cells: cells}, nil
}

func (s *xlsxSheet) typedCell(ref, v string) (any, models.Kind, error) {
	typ, err := s.f.GetCellType(s.name, ref)
	if err != nil {
		return nil, models.KindText, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return v == "1" || strings.EqualFold(v, "true"), models.KindBool, nil
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), models.KindTime, nil
		}
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			break
		}
		isDate, err := s.dateStyled(ref)
		if err != nil {
			return nil, models.KindText, err
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(f, s.date1904); err == nil {
				return t, models.KindTime, nil
			}
		}
		return f, models.KindNumber, nil
	}
	return v, models.KindText, nil
}

func (s *xlsxSheet) dateStyled(ref string) (bool, error) {
	id, err := s.f.GetCellStyle(s.name, ref)
	if err != nil {
		return false, err
	}
	if isDate, ok := s.styles[id]; ok {
		return isDate, nil
	}
	style, err := s.f.GetStyle(id)
	if err != nil {
		return false, err
	}
	isDate := builtinDateFormats[style.NumFmt]
	if style.CustomNumFmt != nil {
		isDate = isDateFormat(*style.CustomNumFmt)
	}
	s.styles[id] = isDate
	return isDate, nil
}
