package service

import (
	"bytes"
	"context"
	"dashxcel/internal/models"
	"fmt"
	"path/filepath"
	"strings"
)

// File formats accepted for upload.
const (
	FormatXLSX    = "xlsx"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

var (
	zipMagic     = []byte("PK\x03\x04")
	parquetMagic = []byte("PAR1")
)

// IngestOptions configures how uploads are decoded.
type IngestOptions struct {
	// Sheet selects the worksheet of xlsx uploads. Empty means the first sheet.
	Sheet string
}

// IngestService turns uploaded files into datasets.
type IngestService struct {
	opts IngestOptions
}

func NewIngestService(opts IngestOptions) *IngestService {
	return &IngestService{opts: opts}
}

// DetectFormat picks a decoder from the file extension, falling back to the
// leading bytes for unknown extensions. Unrecognised binary content is
// rejected; anything else is read as csv.
func DetectFormat(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks", ErrUnsupportedFormat)
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, parquetMagic):
		return FormatParquet, nil
	case bytes.IndexByte(data, 0) >= 0:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return FormatCSV, nil
}

// Decode parses an uploaded file. Any failure is returned as a *ParseError.
func (s *IngestService) Decode(ctx context.Context, name string, data []byte) (*models.Dataset, error) {
	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, newParseError(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newParseError(format, ErrEmptyFile)
	}

	var ds *models.Dataset
	switch format {
	case FormatXLSX:
		ds, err = decodeXLSX(data, s.opts.Sheet)
	case FormatParquet:
		ds, err = decodeParquet(ctx, data)
	default:
		ds, err = decodeCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, newParseError(format, err)
	}
	ds.Name = filepath.Base(name)
	return ds, nil
}
