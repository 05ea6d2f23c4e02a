package decompose

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/param"
)

// A 4-gene, 2-cell-type reference with linearly independent columns. Every
// gene except g3 varies between the two overlap batches.
var (
	testGenes     = []string{"g1", "g2", "g3", "g4"}
	testCellTypes = []string{"X", "Y"}
	testReference = [][]float64{
		{10, 2, 5, 1}, // X
		{1, 8, 5, 3},  // Y
	}
)

func mix(fractions ...float64) []float64 {
	out := make([]float64, len(testGenes))
	for k, f := range fractions {
		for i, v := range testReference[k] {
			out[i] += f * v
		}
	}
	return out
}

func referenceMatrix(t *testing.T) *expression.Matrix {
	t.Helper()

	m, err := expression.NewMatrixFromColumns(testGenes, testCellTypes, testReference)
	require.NoError(t, err)

	return m
}

// singleCell has batch B with 1 X and 3 Y cells, and batch C with 1 of each.
func singleCell(t *testing.T) *expression.SingleCellContainer {
	t.Helper()

	cells := []string{"b1", "b2", "b3", "b4", "c1", "c2"}
	batches := []string{"B", "B", "B", "B", "C", "C"}
	types := []string{"X", "Y", "Y", "Y", "X", "Y"}

	columns := make([][]float64, len(cells))
	for j, ct := range types {
		if ct == "X" {
			columns[j] = testReference[0]
		} else {
			columns[j] = testReference[1]
		}
	}
	m, err := expression.NewMatrixFromColumns(testGenes, cells, columns)
	require.NoError(t, err)

	ann, err := expression.NewAnnotation(cells)
	require.NoError(t, err)
	require.NoError(t, ann.Set(param.DefaultBatchKey, batches))
	require.NoError(t, ann.Set(param.DefaultCellTypeKey, types))

	return &expression.SingleCellContainer{
		Assays:  map[string]*expression.Matrix{param.DefaultAssay: m},
		ColData: ann,
	}
}

// bulk mixes s1 like batch B, s2 like batch C, and s3 as 90% X. Batches
// are assigned in sample order.
func bulk(t *testing.T, batches ...string) *expression.AnnotatedContainer {
	t.Helper()

	samples := []string{"s1", "s2", "s3"}
	m, err := expression.NewMatrixFromColumns(testGenes, samples, [][]float64{
		mix(0.25, 0.75),
		mix(0.5, 0.5),
		mix(0.9, 0.1),
	})
	require.NoError(t, err)

	ann, err := expression.NewAnnotation(samples)
	require.NoError(t, err)
	require.NoError(t, ann.Set(param.DefaultBatchKey, batches))

	return &expression.AnnotatedContainer{Exprs: m, Pheno: ann}
}

func testInputs(t *testing.T) param.Inputs {
	t.Helper()

	return param.Inputs{
		Bulk:       bulk(t, "B", "C", "A"),
		SingleCell: singleCell(t),
		Reference:  referenceMatrix(t),
	}
}
