// Package postgres reads sheets from PostgreSQL, one table per sheet.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of *pgxpool.Pool the loader uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Loader reads sheet <Schema>.<Sheet> with SELECT *.
type Loader struct {
	db     Querier
	schema string
}

var _ core.SheetLoader = (*Loader)(nil)

// NewLoader wraps an existing pool or connection.
func NewLoader(db Querier, schema string) *Loader {
	if schema == "" {
		schema = "public"
	}
	return &Loader{db: db, schema: schema}
}

// Connect opens a pool, verifies it with a ping, and returns the loader
// along with the pool so the caller can close it.
func Connect(ctx context.Context, databaseURL, schema string, maxConns int) (*Loader, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return NewLoader(pool, schema), pool, nil
}

// Query returns the statement used for a sheet.
func (l *Loader) Query(name core.SheetName) string {
	return "SELECT * FROM " + pgx.Identifier{l.schema, string(name)}.Sanitize()
}

// LoadSheet implements core.SheetLoader. A missing table is
// core.ErrSheetNotFound.
func (l *Loader) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	rows, err := l.db.Query(ctx, l.Query(name))
	if err != nil {
		return core.Table{}, wrapErr(name, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	t := core.Table{Columns: make([]string, len(fields))}
	for i, fd := range fields {
		t.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return core.Table{}, fmt.Errorf("read %s: %w", name, err)
		}
		row := make(core.Row, len(values))
		for i, v := range values {
			if i >= len(t.Columns) {
				break
			}
			if s, ok := FormatValue(v); ok {
				row[t.Columns[i]] = s
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, wrapErr(name, err)
	}
	return t, nil
}

func wrapErr(name core.SheetName, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("table %s: %w", name, core.ErrSheetNotFound)
	}
	return fmt.Errorf("query %s: %w", name, err)
}

// FormatValue renders a decoded column value as cell text. NULL is absent.
func FormatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		return x.Format(time.DateOnly), true
	case pgtype.Numeric:
		if !x.Valid {
			return "", false
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return "", false
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}
