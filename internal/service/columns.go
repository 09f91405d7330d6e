package service

import (
	"dashxcel/internal/models"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// uniqueHeaders trims header names, names blank ones "Unnamed: <i>" and
// suffixes repeats with ".1", ".2" and so on.
func uniqueHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		taken[name] = true
		headers[i] = name
	}
	return headers
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// textColumn builds a column from string cells, declaring it number or bool
// when every present value parses that way. Columns with no values stay text.
func textColumn(name string, raw []string) *models.Column {
	cells := make([]any, len(raw))
	present := 0
	allNum, allBool := true, true
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cells[i] = s
		present++
		if _, ok := parseNumber(s); !ok {
			allNum = false
		}
		if _, ok := parseBool(s); !ok {
			allBool = false
		}
	}

	switch {
	case present == 0:
		return &models.Column{Name: name, Kind: models.KindText, Cells: cells}
	case allNum:
		for i, v := range cells {
			if s, ok := v.(string); ok {
				cells[i], _ = parseNumber(s)
			}
		}
		return &models.Column{Name: name, Kind: models.KindNumber, Cells: cells}
	case allBool:
		for i, v := range cells {
			if s, ok := v.(string); ok {
				cells[i], _ = parseBool(s)
			}
		}
		return &models.Column{Name: name, Kind: models.KindBool, Cells: cells}
	}
	return &models.Column{Name: name, Kind: models.KindText, Cells: cells}
}
