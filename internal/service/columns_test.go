package service

import (
	"dashxcel/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"unchanged", []string{"A", "B"}, []string{"A", "B"}},
		{"trimmed", []string{" A ", "B\t"}, []string{"A", "B"}},
		{"blank", []string{"A", "", " "}, []string{"A", "Unnamed: 1", "Unnamed: 2"}},
		{"duplicates", []string{"A", "A", "A"}, []string{"A", "A.1", "A.2"}},
		{"suffix already taken", []string{"A", "A.1", "A"}, []string{"A", "A.1", "A.2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uniqueHeaders(tt.in))
		})
	}
}

func TestTextColumn_DeclaredKind(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		kind  models.Kind
		cells []any
	}{
		{"numbers", []string{"1", " 2.5", ""}, models.KindNumber, []any{1.0, 2.5, nil}},
		{"booleans", []string{"true", "False"}, models.KindBool, []any{true, false}},
		{"text", []string{"1", "x"}, models.KindText, []any{"1", "x"}},
		{"nan is text", []string{"NaN", "1"}, models.KindText, []any{"NaN", "1"}},
		{"all empty", []string{"", ""}, models.KindText, []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := textColumn("c", tt.raw)
			assert.Equal(t, tt.kind, col.Kind)
			assert.Equal(t, tt.cells, col.Cells)
		})
	}
}
