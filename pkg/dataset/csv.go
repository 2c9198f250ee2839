package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ReadCSV loads a frame from a headered CSV file. All columns are parsed as
// float64; required columns missing from the header fail immediately.
func ReadCSV(path string, required ...string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty, header required", path)
	}

	header := rows[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(rows)-1)
	}

	for ri, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%s row %d has %d fields, header has %d", path, ri+2, len(row), len(header))
		}
		for ci, field := range row {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %q: %w", path, ri+2, header[ci], err)
			}
			cols[ci] = append(cols[ci], v)
		}
	}

	out := NewFrame()
	for i, name := range header {
		if err := out.AddColumn(name, cols[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := out.Require(required...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// WriteCSV persists the frame with a header row. Values use the shortest
// round-trippable representation so write/read cycles are lossless and the
// output is byte-stable for identical frames.
func WriteCSV(path string, f *Frame) (retErr error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	w := csv.NewWriter(out)
	cols := f.Columns()
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	n := f.Len()
	row := make([]string, len(cols))
	for i := 0; i < n; i++ {
		for j, c := range cols {
			vals, _ := f.Column(c)
			row[j] = strconv.FormatFloat(vals[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}
