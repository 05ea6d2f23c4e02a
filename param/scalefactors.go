package param

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/expression"
)

// ScaleFactors is a per-cell-type multiplicative correction for systematic
// differences in cell size or RNA content. CellTypes and Values are
// parallel.
type ScaleFactors struct {
	CellTypes []string
	Values    []float64
}

// Ones returns a factor of 1 for every cell type, ordered lexicographically.
func Ones(cellTypes []string) ScaleFactors {
	labels := append([]string(nil), cellTypes...)
	sort.Strings(labels)

	values := make([]float64, len(labels))
	for i := range values {
		values[i] = 1
	}

	return ScaleFactors{CellTypes: labels, Values: values}
}

func (s ScaleFactors) Len() int {
	return len(s.CellTypes)
}

// Lookup returns the factor for one cell type.
func (s ScaleFactors) Lookup(cellType string) (float64, bool) {
	for i, label := range s.CellTypes {
		if label == cellType {
			return s.Values[i], true
		}
	}

	return 0, false
}

func (s ScaleFactors) clone() ScaleFactors {
	return ScaleFactors{
		CellTypes: append([]string(nil), s.CellTypes...),
		Values:    append([]float64(nil), s.Values...),
	}
}

// ResolveScaleFactors returns supplied unchanged when it is non-nil, and
// otherwise a vector of ones keyed by the reference's cell types. Supplied
// factors are not checked against the reference here; see Check.
func ResolveScaleFactors(supplied *ScaleFactors, ref *expression.Matrix) ScaleFactors {
	if supplied != nil {
		return supplied.clone()
	}

	return Ones(ref.Cols())
}

// Check is the deferred validation of the factors against the reference
// columns: same length, same label set, every value positive.
func (s ScaleFactors) Check(ref *expression.Matrix) error {
	if len(s.CellTypes) != len(s.Values) {
		return fmt.Errorf("%w: %d scale-factor labels for %d values", deconv.ErrDimensionMismatch, len(s.CellTypes), len(s.Values))
	}

	cols := ref.Cols()
	if len(cols) != len(s.CellTypes) {
		return fmt.Errorf("%w: %d scale factors for %d reference cell types", deconv.ErrDimensionMismatch, len(s.CellTypes), len(cols))
	}

	seen := make(map[string]struct{}, len(s.CellTypes))
	for i, label := range s.CellTypes {
		if _, exists := ref.ColIndex(label); !exists {
			return fmt.Errorf("%w: scale factor given for %q, which is not a reference cell type", deconv.ErrDimensionMismatch, label)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: cell type %q has more than one scale factor", deconv.ErrDimensionMismatch, label)
		}
		seen[label] = struct{}{}

		if !(s.Values[i] > 0) {
			return fmt.Errorf("%w: scale factor for %q must be positive, got %v", deconv.ErrDimensionMismatch, label, s.Values[i])
		}
	}

	return nil
}

type scaleFactorRow struct {
	CellType string  `csv:"cell_type"`
	Factor   float64 `csv:"scale_factor"`
}

// ReadScaleFactors reads a table with cell_type and scale_factor columns.
func ReadScaleFactors(r io.Reader, delim rune) (*ScaleFactors, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true

	rows := []*scaleFactorRow{}
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, pfx.Err(err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("scale-factor table has no rows")
	}

	out := &ScaleFactors{
		CellTypes: make([]string, 0, len(rows)),
		Values:    make([]float64, 0, len(rows)),
	}
	for _, row := range rows {
		out.CellTypes = append(out.CellTypes, row.CellType)
		out.Values = append(out.Values, row.Factor)
	}

	return out, nil
}
