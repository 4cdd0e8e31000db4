package merge

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
)

// Table is one worksheet: a header and its data rows. Rows may be shorter
// than the header.
type Table struct {
	Source string
	Sheet  string
	Header []string
	Rows   [][]string
}

// RowNumber is the 1-based spreadsheet row of data row i.
func (t *Table) RowNumber(i int) int { return i + 2 }

// Cell returns the trimmed value at row i, column col, or "" when absent.
func (t *Table) Cell(i, col int) string {
	if col < 0 || i >= len(t.Rows) || col >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][col])
}

// Workbook holds the sheets read from one input file.
type Workbook struct {
	Path   string
	sheets map[string]*Table
	names  []string
}

// Sheet finds a sheet by case-insensitive name.
func (w *Workbook) Sheet(name string) (*Table, bool) {
	for _, n := range w.names {
		if strings.EqualFold(n, name) {
			return w.sheets[n], true
		}
	}
	return nil, false
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string { return slices.Clone(w.names) }

// ReadWorkbook reads an .xlsx workbook, or a .csv file as a single sheet
// named sheet.
func ReadWorkbook(fs afero.Fs, path, sheet string) (*Workbook, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, apperr.NewLoadError(path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err := parseCSV(data)
		if err != nil {
			return nil, apperr.NewLoadError(path, err)
		}
		t.Source, t.Sheet = path, sheet
		return &Workbook{Path: path, sheets: map[string]*Table{sheet: t}, names: []string{sheet}}, nil
	case ".xlsx", ".xlsm":
		wb, err := parseXLSX(data, path)
		if err != nil {
			return nil, apperr.NewLoadError(path, err)
		}
		return wb, nil
	default:
		return nil, apperr.NewLoadError(path, fmt.Errorf("unsupported tabular format %q (want .xlsx or .csv)", filepath.Ext(path)))
	}
}

func parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	t := &Table{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if t.Header == nil {
			t.Header = record
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if t.Header == nil {
		return nil, errors.New("csv has no header row")
	}
	return t, nil
}

func parseXLSX(data []byte, path string) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	wb := &Workbook{Path: path, sheets: map[string]*Table{}}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		t := &Table{Source: path, Sheet: name}
		if len(rows) > 0 {
			t.Header, t.Rows = rows[0], rows[1:]
		}
		wb.sheets[name] = t
		wb.names = append(wb.names, name)
	}
	return wb, nil
}

// blank reports whether every cell of row i is empty.
func (t *Table) blank(i int) bool {
	for _, c := range t.Rows[i] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
