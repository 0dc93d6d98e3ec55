package records

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// WorkbookBackend stores every kind as a sheet of one spreadsheet document.
// Row 1 holds the header. Writes go to a sibling temp file that is renamed
// over the document, so a failed write leaves the previous version intact.
type WorkbookBackend struct {
	path string
	mu   sync.Mutex
}

func NewWorkbookBackend(path string) *WorkbookBackend {
	return &WorkbookBackend{path: path}
}

func (w *WorkbookBackend) ReadTable(ctx context.Context, sheet string) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("locate sheet %s: %w", sheet, err)
	}
	if idx == -1 {
		return nil, nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func (w *WorkbookBackend) WriteTable(ctx context.Context, sheet string, header []string, cells [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, created, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := prepareSheet(f, sheet, created); err != nil {
		return err
	}
	if err := writeLine(f, sheet, 1, header); err != nil {
		return err
	}
	for i, line := range cells {
		if err := writeLine(f, sheet, i+2, line); err != nil {
			return err
		}
	}

	tmp := filepath.Join(filepath.Dir(w.path), "."+strings.TrimSuffix(filepath.Base(w.path), filepath.Ext(w.path))+"-write.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func (w *WorkbookBackend) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(w.path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("open workbook %s: %w", w.path, err)
}

// prepareSheet leaves an empty sheet named sheet in f. A fresh document's
// default sheet is renamed instead of kept as an empty extra tab.
func prepareSheet(f *excelize.File, sheet string, created bool) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if created {
			return f.SetSheetName(f.GetSheetName(0), sheet)
		}
		_, err := f.NewSheet(sheet)
		return err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for r := len(rows); r >= 1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return fmt.Errorf("clear sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func writeLine(f *excelize.File, sheet string, rowNum int, line []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(line))
	for i, v := range line {
		values[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
