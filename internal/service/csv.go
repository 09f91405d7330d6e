package service

import (
	"bufio"
	"bytes"
	"dashxcel/internal/models"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var csvDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter returns the candidate delimiter seen most often in the
// header line, defaulting to a comma.
func sniffDelimiter(header []byte) rune {
	best, bestCount := ',', 0
	for _, d := range csvDelimiters {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func decodeCSV(r io.Reader) (*models.Dataset, error) {
	// A UTF-8 or UTF-16 byte order mark is consumed; input without one passes
	// through unchanged.
	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder())))

	peek, _ := br.Peek(64 * 1024)
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(line)
	reader.TrimLeadingSpace = true

	rawHeaders, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	headers := uniqueHeaders(rawHeaders)

	cols := make([][]string, len(headers))
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range headers {
			cols[i] = append(cols[i], record[i])
		}
	}

	columns := make([]*models.Column, len(headers))
	for i, h := range headers {
		columns[i] = textColumn(h, cols[i])
	}
	return models.NewDataset("", columns...), nil
}
