package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddColumn("time_s", []float64{1.5, 2.25, 3}))
	require.NoError(t, f.AddColumn("yield", []float64{10.125, 20, 30.5}))

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, WriteCSV(path, f))

	got, err := ReadCSV(path, "time_s", "yield")
	require.NoError(t, err)
	assert.Equal(t, f.Columns(), got.Columns())

	want, _ := f.Column("time_s")
	have, _ := got.Column("time_s")
	assert.Equal(t, want, have)
}

func TestWriteCSVStable(t *testing.T) {
	f := Synthesize(20, 1)
	dir := t.TempDir()

	p1 := filepath.Join(dir, "a.csv")
	p2 := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteCSV(p1, f))
	require.NoError(t, WriteCSV(p2, f))

	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	b2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestReadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	// missing required column
	path := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0600))
	_, err = ReadCSV(path, "a", "target")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")

	// non-numeric cell
	path = filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,oops\n"), 0600))
	_, err = ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "b"`)

	// empty file
	path = filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0600))
	_, err = ReadCSV(path)
	assert.Error(t, err)
}
