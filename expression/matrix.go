// Package expression holds the labelled matrices and containers that carry
// bulk and single-cell expression through the deconvolution pipeline, and
// the adapter that reduces every accepted input shape to one container type.
package expression

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/carbocation/deconv"
)

// Matrix is a features × samples expression matrix. Row labels (features)
// and column labels (samples) are unique within their axis. Subsetting
// always copies.
type Matrix struct {
	rows   []string
	cols   []string
	rowIdx map[string]int
	colIdx map[string]int
	data   *mat.Dense
}

// NewMatrix builds a Matrix from row-major values. len(values) must equal
// len(rows)*len(cols). The values slice is copied.
func NewMatrix(rows, cols []string, values []float64) (*Matrix, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("%w: matrix needs at least one feature and one sample (got %d x %d)", deconv.ErrDimensionMismatch, len(rows), len(cols))
	}
	if len(values) != len(rows)*len(cols) {
		return nil, fmt.Errorf("%w: %d values cannot fill a %d x %d matrix", deconv.ErrDimensionMismatch, len(values), len(rows), len(cols))
	}

	cp := make([]float64, len(values))
	copy(cp, values)

	return newMatrix(rows, cols, mat.NewDense(len(rows), len(cols), cp))
}

// NewMatrixFromColumns builds a Matrix from one value slice per sample.
func NewMatrixFromColumns(rows, cols []string, columns [][]float64) (*Matrix, error) {
	if len(columns) != len(cols) {
		return nil, fmt.Errorf("%w: %d columns for %d sample labels", deconv.ErrDimensionMismatch, len(columns), len(cols))
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("%w: matrix needs at least one feature and one sample (got %d x %d)", deconv.ErrDimensionMismatch, len(rows), len(cols))
	}

	d := mat.NewDense(len(rows), len(cols), nil)
	for j, col := range columns {
		if len(col) != len(rows) {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", deconv.ErrDimensionMismatch, cols[j], len(col), len(rows))
		}
		d.SetCol(j, col)
	}

	return newMatrix(rows, cols, d)
}

// newMatrix takes ownership of d.
func newMatrix(rows, cols []string, d *mat.Dense) (*Matrix, error) {
	rowIdx, err := index(rows, "feature")
	if err != nil {
		return nil, err
	}
	colIdx, err := index(cols, "sample")
	if err != nil {
		return nil, err
	}

	return &Matrix{
		rows:   append([]string(nil), rows...),
		cols:   append([]string(nil), cols...),
		rowIdx: rowIdx,
		colIdx: colIdx,
		data:   d,
	}, nil
}

func index(labels []string, axis string) (map[string]int, error) {
	out := make(map[string]int, len(labels))
	for i, label := range labels {
		if _, exists := out[label]; exists {
			return nil, fmt.Errorf("duplicate %s label %q", axis, label)
		}
		out[label] = i
	}

	return out, nil
}

// Dims returns the number of features and samples.
func (m *Matrix) Dims() (features, samples int) {
	return len(m.rows), len(m.cols)
}

// Rows returns a copy of the feature labels.
func (m *Matrix) Rows() []string {
	return append([]string(nil), m.rows...)
}

// Cols returns a copy of the sample labels.
func (m *Matrix) Cols() []string {
	return append([]string(nil), m.cols...)
}

func (m *Matrix) RowIndex(label string) (int, bool) {
	i, ok := m.rowIdx[label]
	return i, ok
}

func (m *Matrix) ColIndex(label string) (int, bool) {
	j, ok := m.colIdx[label]
	return j, ok
}

func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Col returns a copy of sample j's values.
func (m *Matrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.data)
}

// Row returns a copy of feature i's values.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Dense returns a copy of the underlying values.
func (m *Matrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(m.data)
}

// SelectCols copies the named samples, in the order given.
func (m *Matrix) SelectCols(labels []string) (*Matrix, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no samples selected", deconv.ErrDimensionMismatch)
	}

	d := mat.NewDense(len(m.rows), len(labels), nil)
	for k, label := range labels {
		j, ok := m.colIdx[label]
		if !ok {
			return nil, fmt.Errorf("%w: sample %q is not present", deconv.ErrDimensionMismatch, label)
		}
		d.SetCol(k, m.Col(j))
	}

	return newMatrix(m.rows, labels, d)
}

// SelectRows copies the named features, in the order given.
func (m *Matrix) SelectRows(labels []string) (*Matrix, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no features selected", deconv.ErrDimensionMismatch)
	}

	d := mat.NewDense(len(labels), len(m.cols), nil)
	for k, label := range labels {
		i, ok := m.rowIdx[label]
		if !ok {
			return nil, fmt.Errorf("%w: feature %q is not present", deconv.ErrDimensionMismatch, label)
		}
		d.SetRow(k, m.Row(i))
	}

	return newMatrix(labels, m.cols, d)
}

// DropCols copies every sample except those named. Labels that are not
// present are ignored. Removing every column is an error.
func (m *Matrix) DropCols(labels []string) (*Matrix, error) {
	drop := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		drop[label] = struct{}{}
	}

	keep := make([]string, 0, len(m.cols))
	for _, label := range m.cols {
		if _, exists := drop[label]; !exists {
			keep = append(keep, label)
		}
	}

	return m.SelectCols(keep)
}

// AppendCol returns a copy of m with one more sample on the right.
func (m *Matrix) AppendCol(label string, values []float64) (*Matrix, error) {
	if len(values) != len(m.rows) {
		return nil, fmt.Errorf("%w: new column %q has %d values, expected %d", deconv.ErrDimensionMismatch, label, len(values), len(m.rows))
	}

	d := mat.NewDense(len(m.rows), len(m.cols)+1, nil)
	d.Slice(0, len(m.rows), 0, len(m.cols)).(*mat.Dense).Copy(m.data)
	d.SetCol(len(m.cols), values)

	return newMatrix(m.rows, append(m.Cols(), label), d)
}

// Transpose returns a samples × features copy, relabelled accordingly.
func (m *Matrix) Transpose() *Matrix {
	out, _ := newMatrix(m.cols, m.rows, mat.DenseCopyOf(m.data.T()))
	return out
}

// SharedRows returns the feature labels present in both matrices, sorted.
func SharedRows(a, b *Matrix) []string {
	out := make([]string, 0)
	for _, label := range a.rows {
		if _, exists := b.rowIdx[label]; exists {
			out = append(out, label)
		}
	}
	sort.Strings(out)

	return out
}
