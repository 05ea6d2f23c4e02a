package decompose

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNNLSClampsNegative(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})

	x, err := nnls(a, []float64{1, -1})
	require.NoError(t, err)
	require.InDelta(t, 1, x[0], 1e-9)
	require.InDelta(t, 0, x[1], 1e-9)
}

func TestNNLSRecoversMixture(t *testing.T) {
	a := mat.NewDense(4, 3, []float64{
		10, 1, 0,
		2, 8, 1,
		5, 5, 9,
		1, 3, 2,
	})
	want := []float64{0.2, 0, 0.8}

	var b mat.VecDense
	b.MulVec(a, mat.NewVecDense(3, want))

	x, err := nnls(a, b.RawVector().Data)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, x, 1e-8)
}

func TestNNLSRejectsShapeMismatch(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	_, err := nnls(a, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestNNLSAllNegative(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	x, err := nnls(a, []float64{-1, -2})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, x)
}
