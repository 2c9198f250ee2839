package dataset

import (
	"fmt"
	"math"
	"strings"
)

// Frame is an ordered set of equal-length named float64 columns. It is the
// tabular unit every stage consumes and produces; required columns are
// validated at load time so stages fail fast on schema mismatch instead of
// deferring to a runtime key error.
type Frame struct {
	cols []string
	data map[string][]float64
}

func NewFrame() *Frame {
	return &Frame{
		data: make(map[string][]float64),
	}
}

// Len returns the row count.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return len(f.data[f.cols[0]])
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.data[name]
	return ok
}

// AddColumn appends a named column. Adding a duplicate name or a column of
// mismatched length is an error.
func (f *Frame) AddColumn(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("column name required")
	}
	if f.Has(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(f.cols) > 0 && len(values) != f.Len() {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), f.Len())
	}
	f.cols = append(f.cols, name)
	f.data[name] = values
	return nil
}

// SetColumn adds or replaces a column.
func (f *Frame) SetColumn(name string, values []float64) error {
	if f.Has(name) {
		if len(values) != f.Len() {
			return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), f.Len())
		}
		f.data[name] = values
		return nil
	}
	return f.AddColumn(name, values)
}

// Column returns the named column. The slice is shared, not copied.
func (f *Frame) Column(name string) ([]float64, error) {
	v, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("missing required column %q (have: %s)", name, strings.Join(f.cols, ", "))
	}
	return v, nil
}

// Require verifies that every named column exists.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s (have: %s)",
			strings.Join(missing, ", "), strings.Join(f.cols, ", "))
	}
	return nil
}

// PickColumn returns the first candidate that exists in the frame.
func (f *Frame) PickColumn(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if f.Has(c) {
			return c, true
		}
	}
	return "", false
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := NewFrame()
	for _, c := range f.cols {
		vals := make([]float64, len(f.data[c]))
		copy(vals, f.data[c])
		out.cols = append(out.cols, c)
		out.data[c] = vals
	}
	return out
}

// TakeRows returns a new frame containing the given rows, in order.
func (f *Frame) TakeRows(idx []int) (*Frame, error) {
	out := NewFrame()
	n := f.Len()
	for _, i := range idx {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("row index %d out of range [0, %d)", i, n)
		}
	}
	for _, c := range f.cols {
		src := f.data[c]
		vals := make([]float64, len(idx))
		for j, i := range idx {
			vals[j] = src[i]
		}
		out.cols = append(out.cols, c)
		out.data[c] = vals
	}
	return out, nil
}

// DropNonFinite returns a copy without rows containing NaN or Inf values,
// and the number of rows dropped.
func (f *Frame) DropNonFinite() (*Frame, int) {
	n := f.Len()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		ok := true
		for _, c := range f.cols {
			if v := f.data[c][i]; math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	out, _ := f.TakeRows(keep)
	return out, n - len(keep)
}
