package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CSVSheets is the local stand-in for the spreadsheet sink: one CSV file per
// sheet name inside dir. It is safe for concurrent use.
type CSVSheets struct {
	mu  sync.Mutex
	dir string
}

// NewCSVSheets creates dir if needed.
func NewCSVSheets(dir string) (*CSVSheets, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVSheets{dir: dir}, nil
}

// Path returns the file backing a sheet.
func (c *CSVSheets) Path(sheet string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, sheet)
	return filepath.Join(c.dir, name+".csv")
}

// Append writes row to the sheet's file, writing header first when the file
// is new or empty.
func (c *CSVSheets) Append(_ context.Context, sheet string, header []string, row []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path(sheet)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	record := make([]string, len(row))
	for i, v := range row {
		record[i] = fmt.Sprint(SheetValue(v))
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	w.Flush()
	return w.Error()
}

// SheetValue coerces a cell to a sheet-safe value: integral floats lose their
// fractional part and nil becomes an empty string.
func SheetValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e18 {
			return int64(x)
		}
		return x
	case float32:
		return SheetValue(float64(x))
	}
	return v
}

// SheetValues applies SheetValue to a whole row.
func SheetValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = SheetValue(v)
	}
	return out
}
