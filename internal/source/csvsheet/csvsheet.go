// Package csvsheet reads sheets exported as CSV files.
//
// Exports from spreadsheet tools come with byte-order marks, UTF-16 from
// some Windows programs, ragged rows and stray quotes. ReadTable accepts all
// of those and hands back a core.Table with the header order preserved.
package csvsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// Extension is the file suffix of a sheet export.
const Extension = ".csv"

// NewDecodingReader strips a leading byte-order mark and converts UTF-16
// input to UTF-8. Input without a mark is read as UTF-8 with invalid bytes
// replaced by U+FFFD.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadTable parses a CSV stream whose first record is the header row.
// An empty stream yields an empty table.
func ReadTable(r io.Reader) (core.Table, error) {
	cr := csv.NewReader(NewDecodingReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, nil
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Table{}, fmt.Errorf("read record: %w", err)
		}
		records = append(records, rec)
	}

	return core.NewTable(header, records), nil
}

// Dir loads each sheet from <Path>/<Sheet>.csv.
type Dir struct {
	Path string
}

var _ core.SheetLoader = Dir{}

// LoadSheet implements core.SheetLoader. A missing file is reported as
// core.ErrSheetNotFound.
func (d Dir) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}

	path := d.FilePath(name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Table{}, fmt.Errorf("%s: %w", path, core.ErrSheetNotFound)
	}
	if err != nil {
		return core.Table{}, err
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return core.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// FilePath returns the file a sheet is read from.
func (d Dir) FilePath(name core.SheetName) string {
	return filepath.Join(d.Path, string(name)+Extension)
}

// SheetForFile maps a file path back to its sheet name. ok is false for
// files that are not CSV exports.
func SheetForFile(path string) (core.SheetName, bool) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), Extension) {
		return "", false
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || strings.HasPrefix(name, ".") {
		return "", false
	}
	return core.SheetName(name), true
}
