// Package reference derives a feature × cell-type signature matrix from
// annotated single-cell expression.
package reference

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/expression"
)

// CellTypes returns the distinct cell-type labels in sc, sorted.
func CellTypes(sc *expression.Container, cellTypeKey string) ([]string, error) {
	if !sc.HasKey(cellTypeKey) {
		return nil, fmt.Errorf("%w: cell-type key %q is not in the single-cell metadata", deconv.ErrMissingAnnotationKey, cellTypeKey)
	}

	labels, err := sc.Column(cellTypeKey)
	if err != nil {
		return nil, err
	}

	return distinct(labels), nil
}

// Build averages single-cell expression within each cell type, feature by
// feature. The result has one column per distinct label, sorted.
func Build(sc *expression.Container, cellTypeKey, assay string) (*expression.Matrix, error) {
	if !sc.HasKey(cellTypeKey) {
		return nil, fmt.Errorf("%w: cell-type key %q is not in the single-cell metadata", deconv.ErrMissingAnnotationKey, cellTypeKey)
	}

	counts, err := sc.Assay(assay)
	if err != nil {
		return nil, err
	}

	labels, err := sc.Column(cellTypeKey)
	if err != nil {
		return nil, err
	}

	features, _ := counts.Dims()
	sums := make(map[string][]float64)
	n := make(map[string]int)
	for j, label := range labels {
		acc, exists := sums[label]
		if !exists {
			acc = make([]float64, features)
			sums[label] = acc
		}
		floats.Add(acc, counts.Col(j))
		n[label]++
	}

	types := distinct(labels)
	columns := make([][]float64, len(types))
	for k, label := range types {
		floats.Scale(1/float64(n[label]), sums[label])
		columns[k] = sums[label]
	}

	return expression.NewMatrixFromColumns(counts.Rows(), types, columns)
}

// Fractions tabulates, for every batch id, the fraction of its cells that
// carry each cell type. Rows are cell types (sorted), columns are batch ids
// (sorted).
func Fractions(sc *expression.Container, cellTypeKey, batchKey string) (*expression.Matrix, error) {
	if !sc.HasKey(cellTypeKey) {
		return nil, fmt.Errorf("%w: cell-type key %q is not in the single-cell metadata", deconv.ErrMissingAnnotationKey, cellTypeKey)
	}
	if !sc.HasKey(batchKey) {
		return nil, fmt.Errorf("%w: batch key %q is not in the single-cell metadata", deconv.ErrMissingAnnotationKey, batchKey)
	}

	labels, _ := sc.Column(cellTypeKey)
	batches, _ := sc.Column(batchKey)

	types := distinct(labels)
	typeIdx := make(map[string]int, len(types))
	for i, t := range types {
		typeIdx[t] = i
	}

	ids := distinct(batches)
	counts := make(map[string][]float64, len(ids))
	for _, id := range ids {
		counts[id] = make([]float64, len(types))
	}
	for j := range labels {
		counts[batches[j]][typeIdx[labels[j]]]++
	}

	columns := make([][]float64, len(ids))
	for k, id := range ids {
		col := counts[id]
		floats.Scale(1/floats.Sum(col), col)
		columns[k] = col
	}

	return expression.NewMatrixFromColumns(types, ids, columns)
}

func distinct(values []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)

	return out
}
