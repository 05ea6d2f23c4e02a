package decompose

import (
	"fmt"
	"log"
	"math"

	"github.com/carbocation/runningvariance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/param"
	"github.com/carbocation/deconv/reference"
)

// LinearTransform is the default Decomposer. It first maps every bulk gene
// onto the scale of the single-cell pseudo-bulk (reference weighted by each
// batch's cell-type fractions), then fits each sample as a non-negative,
// sum-to-one mixture of the scaled reference columns.
//
// With UseOverlap the per-gene map is an ordinary regression of pseudo-bulk
// on bulk across samples whose batch exists on both sides. Without it, bulk
// is z-scored and rescaled to the pseudo-bulk mean and a shrunken spread.
type LinearTransform struct {
	// SumToOneWeight weights the extra design row that pulls the fitted
	// coefficients toward summing to one.
	SumToOneWeight float64

	// MinOverlapSamples is the fewest shared-batch bulk samples a supervised
	// fit accepts.
	MinOverlapSamples int
}

func NewLinearTransform() LinearTransform {
	return LinearTransform{
		SumToOneWeight:    100,
		MinOverlapSamples: 2,
	}
}

func (lt LinearTransform) Decompose(req Request) (*Raw, error) {
	bulk, err := req.Bulk.Assay(req.Assay)
	if err != nil {
		return nil, err
	}

	genes := usableGenes(bulk, req.Reference, req.Markers)
	if len(genes) == 0 {
		return nil, fmt.Errorf("%w: no features are shared by bulk, reference and markers", deconv.ErrDimensionMismatch)
	}
	log.Printf("Decomposing with %d features\n", len(genes))

	ref, err := req.Reference.SelectRows(genes)
	if err != nil {
		return nil, err
	}
	x, err := bulk.SelectRows(genes)
	if err != nil {
		return nil, err
	}

	fractions, err := alignedFractions(req, ref.Cols())
	if err != nil {
		return nil, err
	}

	// Pseudo-bulk: genes x single-cell batches
	var pseudo mat.Dense
	pseudo.Mul(ref.Dense(), fractions.Dense())
	pseudoBulk, err := expression.NewMatrix(genes, fractions.Cols(), pseudo.RawMatrix().Data)
	if err != nil {
		return nil, err
	}

	var transformed *expression.Matrix
	if req.UseOverlap {
		transformed, err = lt.supervised(req, x, pseudoBulk)
	} else {
		transformed, err = semisupervised(x, pseudoBulk)
	}
	if err != nil {
		return nil, err
	}

	design := lt.design(ref, req.ScaleFactors)

	_, nSamples := transformed.Dims()
	_, nTypes := ref.Dims()
	props := make([][]float64, nTypes)
	for k := range props {
		props[k] = make([]float64, nSamples)
	}
	rsquared := make(map[string]float64, nSamples)

	samples := transformed.Cols()
	for j, sample := range samples {
		y := transformed.Col(j)
		b := append(append([]float64(nil), y...), lt.SumToOneWeight)

		coef, err := nnls(design, b)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", sample, err)
		}

		var fitted mat.VecDense
		fitted.MulVec(design.Slice(0, len(genes), 0, nTypes), mat.NewVecDense(nTypes, coef))
		r := stat.Correlation(fitted.RawVector().Data, y, nil)
		if math.IsNaN(r) {
			r = 0
		}
		rsquared[sample] = r * r

		total := floats.Sum(coef)
		for k := range coef {
			if total > 0 {
				props[k][j] = coef[k] / total
			} else {
				props[k][j] = 1 / float64(nTypes)
			}
		}
	}

	// Samples x cell types
	propMatrix, err := expression.NewMatrixFromColumns(samples, ref.Cols(), props)
	if err != nil {
		return nil, err
	}

	return &Raw{
		Proportions:           propMatrix,
		Orientation:           SamplesByRows,
		SingleCellProportions: fractions,
		TransformedBulk:       transformed,
		RSquared:              rsquared,
		GenesUsed:             genes,
	}, nil
}

// design is the reference with each cell-type column multiplied by its scale
// factor, plus a final row of SumToOneWeight.
func (lt LinearTransform) design(ref *expression.Matrix, factors param.ScaleFactors) *mat.Dense {
	g, k := ref.Dims()

	out := mat.NewDense(g+1, k, nil)
	for c, cellType := range ref.Cols() {
		col := ref.Col(c)
		if f, exists := factors.Lookup(cellType); exists {
			floats.Scale(f, col)
		}
		out.SetCol(c, append(col, lt.SumToOneWeight))
	}

	return out
}

// supervised fits, gene by gene, pseudo-bulk = a + b*bulk over bulk samples
// whose batch is also a single-cell batch, and applies the fit to every bulk
// sample.
func (lt LinearTransform) supervised(req Request, x, pseudoBulk *expression.Matrix) (*expression.Matrix, error) {
	batches, err := req.Bulk.Column(req.BatchKey)
	if err != nil {
		return nil, err
	}

	// Bulk column -> pseudo-bulk column for shared batches
	samples := req.Bulk.Samples()
	pairs := make([][2]int, 0)
	for k, sample := range samples {
		pc, shared := pseudoBulk.ColIndex(batches[k])
		if !shared {
			continue
		}
		xc, _ := x.ColIndex(sample)
		pairs = append(pairs, [2]int{xc, pc})
	}
	if len(pairs) < lt.MinOverlapSamples {
		return nil, fmt.Errorf("%w: overlap-based fitting needs at least %d bulk samples sharing a single-cell batch, found %d", deconv.ErrDimensionMismatch, lt.MinOverlapSamples, len(pairs))
	}
	log.Printf("Fitting the bulk transformation on %d shared-batch samples\n", len(pairs))

	genes, nSamples := x.Dims()
	values := make([]float64, 0, genes*nSamples)
	train := make([]float64, len(pairs))
	target := make([]float64, len(pairs))
	for i := 0; i < genes; i++ {
		row := x.Row(i)
		for k, pair := range pairs {
			train[k] = row[pair[0]]
			target[k] = pseudoBulk.At(i, pair[1])
		}

		var alpha, beta float64
		if stat.Variance(train, nil) == 0 {
			alpha = stat.Mean(target, nil)
		} else {
			alpha, beta = stat.LinearRegression(train, target, nil, false)
		}

		for _, v := range row {
			values = append(values, alpha+beta*v)
		}
	}

	return expression.NewMatrix(x.Rows(), x.Cols(), values)
}

// semisupervised z-scores each bulk gene and rescales it to the pseudo-bulk
// mean, with a spread shrunk toward 1.
func semisupervised(x, pseudoBulk *expression.Matrix) (*expression.Matrix, error) {
	genes, nSamples := x.Dims()
	values := make([]float64, 0, genes*nSamples)

	for i := 0; i < genes; i++ {
		target := pseudoBulk.Row(i)
		center := stat.Mean(target, nil)
		var ss float64
		for _, v := range target {
			ss += (v - center) * (v - center)
		}
		shrink := math.Sqrt(ss/float64(len(target)) + 1)

		row := x.Row(i)
		rs := runningvariance.NewRunningStat()
		for _, v := range row {
			rs.Push(v)
		}
		mean, sd := rs.Mean(), rs.StandardDeviation()
		for _, v := range row {
			z := 0.0
			if sd > 0 {
				z = (v - mean) / sd
			}
			values = append(values, z*shrink+center)
		}
	}

	return expression.NewMatrix(x.Rows(), x.Cols(), values)
}

// alignedFractions returns single-cell cell-type fractions per batch with
// rows ordered like cellTypes. Reference cell types absent from the
// single-cell labels get zero; labels absent from the reference are an
// error.
func alignedFractions(req Request, cellTypes []string) (*expression.Matrix, error) {
	fr, err := reference.Fractions(req.SingleCell, req.CellTypeKey, req.BatchKey)
	if err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(cellTypes))
	for _, ct := range cellTypes {
		want[ct] = struct{}{}
	}
	for _, ct := range fr.Rows() {
		if _, exists := want[ct]; !exists {
			return nil, fmt.Errorf("%w: single-cell cell type %q has no reference column", deconv.ErrDimensionMismatch, ct)
		}
	}

	_, nBatches := fr.Dims()
	values := make([]float64, 0, len(cellTypes)*nBatches)
	for _, ct := range cellTypes {
		i, exists := fr.RowIndex(ct)
		if !exists {
			values = append(values, make([]float64, nBatches)...)
			continue
		}
		values = append(values, fr.Row(i)...)
	}

	return expression.NewMatrix(cellTypes, fr.Cols(), values)
}

// usableGenes is the sorted intersection of bulk and reference features,
// further restricted to markers when any are given.
func usableGenes(bulk, ref *expression.Matrix, markers []string) []string {
	shared := expression.SharedRows(bulk, ref)
	if len(markers) == 0 {
		return shared
	}

	keep := make(map[string]struct{}, len(markers))
	for _, g := range markers {
		keep[g] = struct{}{}
	}
	out := make([]string, 0, len(markers))
	for _, g := range shared {
		if _, exists := keep[g]; exists {
			out = append(out, g)
		}
	}

	return out
}
