package survey

import (
	"errors"
	"fmt"
)

// ErrDuplicateColumn is returned when a column name is added twice.
var ErrDuplicateColumn = errors.New("duplicate column name")

// Column is a named sequence of raw values.
type Column struct {
	Name   string
	Values []Scalar
}

// Dataset is an insertion-ordered set of uniquely named columns.
type Dataset struct {
	cols  []Column
	index map[string]int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// Add appends a column. Names must be unique within the dataset.
func (d *Dataset) Add(name string, values []Scalar) error {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if _, ok := d.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	d.index[name] = len(d.cols)
	d.cols = append(d.cols, Column{Name: name, Values: values})
	return nil
}

// MustAdd is Add for fixtures; it panics on a duplicate name.
func (d *Dataset) MustAdd(name string, values []Scalar) *Dataset {
	if err := d.Add(name, values); err != nil {
		panic(err)
	}
	return d
}

// Len is the number of columns.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.cols)
}

// Columns returns the columns in insertion order.
func (d *Dataset) Columns() []Column {
	if d == nil {
		return nil
	}
	return d.cols
}

// Names returns the column names in insertion order.
func (d *Dataset) Names() []string {
	out := make([]string, 0, d.Len())
	for _, c := range d.Columns() {
		out = append(out, c.Name)
	}
	return out
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) ([]Scalar, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i].Values, true
}

// Rows is the length of the longest column.
func (d *Dataset) Rows() int {
	n := 0
	for _, c := range d.Columns() {
		if len(c.Values) > n {
			n = len(c.Values)
		}
	}
	return n
}

// Select returns a dataset with the named columns, in the order given.
// Unknown names are skipped.
func (d *Dataset) Select(names []string) *Dataset {
	out := NewDataset()
	for _, n := range names {
		if v, ok := d.Column(n); ok {
			_ = out.Add(n, v)
		}
	}
	return out
}
