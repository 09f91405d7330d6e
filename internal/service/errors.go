package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not xlsx, csv or parquet.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when an upload has no header row.
	ErrEmptyFile = errors.New("file is empty")

	// ErrSheetNotFound is returned when the configured sheet is absent.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrTableNotFound is returned for tables missing from the connected database.
	ErrTableNotFound = errors.New("table not found")

	// ErrNotConnected is returned when no database connection is open.
	ErrNotConnected = errors.New("no database connection")
)

// ParseError reports an upload that could not be turned into a dataset.
type ParseError struct {
	Format string // "xlsx", "csv", "parquet"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to read %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format string, err error) *ParseError {
	return &ParseError{Format: format, Err: err}
}
