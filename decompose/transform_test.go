package decompose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/param"
)

func TestLinearTransformOverlapRecoversFractions(t *testing.T) {
	opts := param.DefaultOptions()
	opts.UseOverlap = true

	p, err := NewParameters(testInputs(t), opts, nil)
	require.NoError(t, err)

	out, err := Deconvolve(p)
	require.NoError(t, err)

	props, ok := out.(Proportions)
	require.True(t, ok)
	require.Equal(t, []string{"s1", "s2", "s3"}, props.Samples)
	require.Equal(t, testCellTypes, props.CellTypes)

	x, _ := props.Of("X")
	y, _ := props.Of("Y")
	require.InDeltaSlice(t, []float64{0.25, 0.5, 0.9}, x, 1e-6)
	require.InDeltaSlice(t, []float64{0.75, 0.5, 0.1}, y, 1e-6)
}

func TestLinearTransformRaw(t *testing.T) {
	opts := param.DefaultOptions()
	opts.UseOverlap = true

	p, err := NewParameters(testInputs(t), opts, nil)
	require.NoError(t, err)

	raw, err := NewLinearTransform().Decompose(Request{
		Bulk:         p.BulkContainer(),
		SingleCell:   p.SingleCellContainer(),
		UseOverlap:   true,
		Reference:    p.ReferenceExpression(),
		ScaleFactors: p.CellScaleFactors(),
		Assay:        p.AssayName(),
		BatchKey:     p.BatchVariable(),
		CellTypeKey:  p.CellTypeVariable(),
	})
	require.NoError(t, err)

	require.Equal(t, SamplesByRows, raw.Orientation)
	require.Equal(t, testGenes, raw.GenesUsed)
	require.Equal(t, []string{"s1", "s2", "s3"}, raw.Proportions.Rows())
	require.Equal(t, testCellTypes, raw.Proportions.Cols())

	// Single-cell fractions: batch B is 1/4 X, batch C is 1/2 X
	require.Equal(t, []string{"B", "C"}, raw.SingleCellProportions.Cols())
	require.InDeltaSlice(t, []float64{0.25, 0.5}, raw.SingleCellProportions.Row(0), 1e-12)

	for _, s := range []string{"s1", "s2", "s3"} {
		require.InDelta(t, 1, raw.RSquared[s], 1e-6, s)
	}
}

func TestLinearTransformWithoutOverlap(t *testing.T) {
	p, err := NewParameters(testInputs(t), param.DefaultOptions(), nil)
	require.NoError(t, err)

	out, err := Deconvolve(p)
	require.NoError(t, err)
	props := out.(Proportions)

	for _, s := range props.Samples {
		v, ok := props.Sample(s)
		require.True(t, ok)
		require.InDelta(t, 1, floats.Sum(v), 1e-9, s)
		for _, f := range v {
			require.GreaterOrEqual(t, f, 0.0)
		}
	}
}

func TestLinearTransformOverlapNeedsTwoSamples(t *testing.T) {
	in := testInputs(t)
	in.Bulk = bulk(t, "B", "A", "A")

	opts := param.DefaultOptions()
	opts.UseOverlap = true

	p, err := NewParameters(in, opts, nil)
	require.NoError(t, err)

	_, err = Deconvolve(p)
	require.True(t, errors.Is(err, deconv.ErrDimensionMismatch), err)
}

func TestLinearTransformMarkers(t *testing.T) {
	opts := param.DefaultOptions()
	opts.UseOverlap = true
	opts.Markers = []string{"g1", "g2", "absent"}
	opts.ReturnInfo = true

	p, err := NewParameters(testInputs(t), opts, nil)
	require.NoError(t, err)

	out, err := Deconvolve(p)
	require.NoError(t, err)

	d, ok := out.(*Detailed)
	require.True(t, ok)
	require.Equal(t, []string{"g1", "g2"}, d.Raw.GenesUsed)
	require.Equal(t, 3, d.Metadata.MarkerGenes)
	require.Equal(t, 2, d.Metadata.GenesUsed)

	x, _ := d.Proportions.Of("X")
	require.InDeltaSlice(t, []float64{0.25, 0.5, 0.9}, x, 1e-6)
}

func TestLinearTransformNoUsableMarkers(t *testing.T) {
	opts := param.DefaultOptions()
	opts.Markers = []string{"absent"}

	p, err := NewParameters(testInputs(t), opts, nil)
	require.NoError(t, err)

	_, err = Deconvolve(p)
	require.True(t, errors.Is(err, deconv.ErrDimensionMismatch), err)
}

func TestLinearTransformUnknownSingleCellType(t *testing.T) {
	in := testInputs(t)

	// Reference without Y
	ref, err := in.Reference.SelectCols([]string{"X"})
	require.NoError(t, err)
	in.Reference = ref

	p, err := NewParameters(in, param.DefaultOptions(), nil)
	require.NoError(t, err)

	_, err = Deconvolve(p)
	require.True(t, errors.Is(err, deconv.ErrDimensionMismatch), err)
}
