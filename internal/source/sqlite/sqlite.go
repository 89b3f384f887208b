// Package sqlite reads sheets from an SQLite database, one table per sheet.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JonMunkholm/eventmap/internal/core"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "sqlite"

// Loader reads every sheet with SELECT * from a table of the same name.
type Loader struct {
	db *sql.DB
}

var _ core.SheetLoader = (*Loader)(nil)

// NewLoader wraps an open database.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Open opens an existing database file and verifies it.
func Open(ctx context.Context, path string) (*Loader, *sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return NewLoader(db), db, nil
}

// Query returns the statement used for a sheet.
func Query(name core.SheetName) string {
	return `SELECT * FROM "` + strings.ReplaceAll(string(name), `"`, `""`) + `"`
}

// LoadSheet implements core.SheetLoader. A missing table is
// core.ErrSheetNotFound.
func (l *Loader) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	rows, err := l.db.QueryContext(ctx, Query(name))
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return core.Table{}, fmt.Errorf("table %s: %w", name, core.ErrSheetNotFound)
		}
		return core.Table{}, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return core.Table{}, fmt.Errorf("columns %s: %w", name, err)
	}

	t := core.Table{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return core.Table{}, fmt.Errorf("scan %s: %w", name, err)
		}
		row := make(core.Row, len(cols))
		for i, v := range values {
			if s, ok := formatValue(v); ok {
				row[cols[i]] = s
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	return t, nil
}

func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format(time.DateOnly), true
	default:
		return fmt.Sprint(x), true
	}
}
