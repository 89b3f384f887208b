// Package xlsx reads sheets from an Excel workbook, one worksheet per sheet.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// Workbook loads sheets from the worksheets of an .xlsx file. The file is
// reopened on every call so edits are picked up by the next reload.
type Workbook struct {
	Path string
}

var _ core.SheetLoader = Workbook{}

// LoadSheet implements core.SheetLoader. Worksheet names match
// case-insensitively; a missing worksheet is core.ErrSheetNotFound.
func (w Workbook) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}

	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook %s: %w", w.Path, err)
	}
	defer f.Close()

	sheet, ok := findSheet(f.GetSheetList(), string(name))
	if !ok {
		return core.Table{}, fmt.Errorf("worksheet %s: %w", name, core.ErrSheetNotFound)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return core.Table{}, fmt.Errorf("read worksheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return core.Table{}, nil
	}
	return core.NewTable(rows[0], rows[1:]), nil
}

// SheetNames lists the worksheets of the workbook in tab order.
func (w Workbook) SheetNames() ([]string, error) {
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.Path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func findSheet(list []string, name string) (string, bool) {
	for _, s := range list {
		if s == name {
			return s, true
		}
	}
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return s, true
		}
	}
	return "", false
}
