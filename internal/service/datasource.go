package service

import (
	"context"
	"dashxcel/internal/models"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// DataSource is a database that tables can be loaded from.
type DataSource interface {
	Connect(ctx context.Context, config models.DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, table string, limit int) (*models.Dataset, error)
}

// PostgresDataSource implements DataSource for PostgreSQL
type PostgresDataSource struct {
	db *sql.DB
}

func NewPostgresDataSource() *PostgresDataSource {
	return &PostgresDataSource{}
}

// connString builds a lib/pq key/value connection string, quoting values.
func connString(config models.DataSourceConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := config.Port
	if port == 0 {
		port = 5432
	}
	quote := func(s string) string {
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(config.Host), port, quote(config.User), quote(config.Password), quote(config.DBName), quote(sslMode))
}

func (p *PostgresDataSource) Connect(ctx context.Context, config models.DataSourceConfig) error {
	db, err := sql.Open("postgres", connString(config))
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	p.db = db
	return nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	if p.db == nil {
		return nil, ErrNotConnected
	}
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// LoadTable reads up to limit rows of a public table into a dataset. The
// table must be one returned by ListTables.
func (p *PostgresDataSource) LoadTable(ctx context.Context, table string, limit int) (*models.Dataset, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, table)
	}

	query := fmt.Sprintf("SELECT * FROM public.%s LIMIT %d", pq.QuoteIdentifier(table), max(limit, 0))
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(types))
	kinds := make([]models.Kind, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
		kinds[i] = kindForDBType(ct.DatabaseTypeName())
	}
	names = uniqueHeaders(names)

	cells := make([][]any, len(types))
	for rows.Next() {
		values := make([]any, len(types))
		valuePtrs := make([]any, len(types))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			cells[i] = append(cells[i], convertDBValue(v, kinds[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make([]*models.Column, len(types))
	for i := range columns {
		columns[i] = &models.Column{Name: names[i], Kind: kinds[i], Cells: cells[i]}
	}
	return models.NewDataset(table, columns...), nil
}

func kindForDBType(name string) models.Kind {
	switch strings.ToUpper(name) {
	case "INT2", "INT4", "INT8", "FLOAT4", "FLOAT8", "NUMERIC", "MONEY", "OID":
		return models.KindNumber
	case "DATE", "TIMESTAMP", "TIMESTAMPTZ":
		return models.KindTime
	case "BOOL":
		return models.KindBool
	}
	return models.KindText
}

// convertDBValue maps a scanned driver value onto a dataset cell of kind.
// Values that do not fit the kind are dropped as missing.
func convertDBValue(v any, kind models.Kind) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch kind {
	case models.KindNumber:
		switch x := v.(type) {
		case int64:
			return float64(x)
		case float64:
			return x
		case string:
			x = strings.NewReplacer("$", "", ",", "").Replace(x)
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f
			}
		}
		return nil
	case models.KindTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC()
		}
		return nil
	case models.KindBool:
		if b, ok := v.(bool); ok {
			return b
		}
		return nil
	}

	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
