package service

import (
	"context"
	"dashxcel/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindForDBType(t *testing.T) {
	tests := map[string]models.Kind{
		"INT4":        models.KindNumber,
		"numeric":     models.KindNumber,
		"FLOAT8":      models.KindNumber,
		"TIMESTAMPTZ": models.KindTime,
		"DATE":        models.KindTime,
		"BOOL":        models.KindBool,
		"VARCHAR":     models.KindText,
		"UUID":        models.KindText,
	}
	for name, want := range tests {
		assert.Equal(t, want, kindForDBType(name), name)
	}
}

func TestConvertDBValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	tests := []struct {
		name string
		in   any
		kind models.Kind
		want any
	}{
		{"null", nil, models.KindNumber, nil},
		{"int", int64(7), models.KindNumber, 7.0},
		{"numeric bytes", []byte("12.50"), models.KindNumber, 12.5},
		{"money", []byte("$1,234.50"), models.KindNumber, 1234.5},
		{"bad number", []byte("abc"), models.KindNumber, nil},
		{"timestamp", ts, models.KindTime, ts.UTC()},
		{"bool", true, models.KindBool, true},
		{"text bytes", []byte("hello"), models.KindText, "hello"},
		{"uuid-ish", int64(3), models.KindText, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertDBValue(tt.in, tt.kind))
		})
	}
}

func TestConnString(t *testing.T) {
	got := connString(models.DataSourceConfig{Host: "db", User: "me", Password: "it's", DBName: "sales"})
	assert.Equal(t, `host='db' port=5432 user='me' password='it\'s' dbname='sales' sslmode='disable'`, got)
}

func TestPostgresDataSource_NotConnected(t *testing.T) {
	ds := NewPostgresDataSource()

	_, err := ds.ListTables(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = ds.LoadTable(context.Background(), "sales", 10)
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, ds.Close())
}
