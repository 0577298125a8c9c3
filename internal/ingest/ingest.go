// Package ingest reads survey spreadsheets into an ordered survey.Dataset.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// ErrUnsupported indicates a file format no registered reader accepts.
var ErrUnsupported = errors.New("unsupported survey file format")

// Options controls how a spreadsheet is read.
type Options struct {
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, .tsv files use tab and others are sniffed
	// among ',', ';' and '\t'.
	Delimiter rune
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based position when SheetName is empty.
	SheetIndex int
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// KeepNames uses trimmed headers as column names instead of cleaning them.
	KeepNames bool
}

// DefaultOptions returns reasonable defaults for survey files.
func DefaultOptions() Options {
	return Options{MaxRows: 100000}
}

// Table is the raw grid read from a file before coercion.
type Table struct {
	Name   string
	Sheet  string
	Header []string
	Rows   [][]string
	// TotalRows counts non-empty data rows in the source, including any
	// beyond MaxRows.
	TotalRows int
	Warnings  []string
}

// Reader reads one family of spreadsheet formats.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Supported reports whether some reader accepts filename.
func Supported(filename string) bool {
	return readerFor(filename) != nil
}

func readerFor(filename string) Reader {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r
		}
	}
	return nil
}

// ReadFile selects a reader based on the file name and returns the raw table.
func ReadFile(path string, opt Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read survey file: %w", err)
	}
	r := readerFor(path)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	t, err := r.Read(path, opt)
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = filepath.Base(path)
	}
	if len(t.Rows) < t.TotalRows {
		t.Warnings = append(t.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", len(t.Rows), t.TotalRows))
	}
	return t, nil
}

// Load reads path and coerces it into a Dataset.
func Load(path string, opt Options) (*survey.Dataset, *Table, error) {
	t, err := ReadFile(path, opt)
	if err != nil {
		return nil, nil, err
	}
	ds, err := t.Dataset(opt)
	if err != nil {
		return nil, nil, err
	}
	return ds, t, nil
}

// Dataset coerces the table into columns. Short rows are padded with nulls.
func (t *Table) Dataset(opt Options) (*survey.Dataset, error) {
	names := make([]string, len(t.Header))
	if opt.KeepNames {
		for i, h := range t.Header {
			names[i] = strings.TrimSpace(h)
		}
	} else {
		names = survey.CleanColumnNames(t.Header)
	}
	ds := survey.NewDataset()
	for j, name := range names {
		vals := make([]survey.Scalar, len(t.Rows))
		for i, row := range t.Rows {
			if j < len(row) {
				vals[i] = coerce(row[j], opt)
			}
		}
		if err := ds.Add(name, vals); err != nil {
			return nil, fmt.Errorf("column %d: %w", j+1, err)
		}
	}
	return ds, nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
