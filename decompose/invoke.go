package decompose

import (
	"fmt"
	"log"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/batch"
	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/param"
)

// Deconvolve runs p.Decomposer over the full bulk container and reshapes the
// result. With ReturnInfo unset it returns Proportions; with it set it
// returns *Detailed.
func Deconvolve(p *Parameters) (Outcome, error) {
	if p == nil || p.Decomposer == nil {
		return nil, fmt.Errorf("%w: parameters or decomposer are absent", deconv.ErrUnsupportedInputType)
	}
	if err := param.Validate(&p.Base); err != nil {
		return nil, err
	}

	ref := p.ReferenceExpression()
	factors := p.CellScaleFactors()
	if err := factors.Check(ref); err != nil {
		return nil, err
	}

	bulk, err := p.BulkContainer().Assay(p.AssayName())
	if err != nil {
		return nil, err
	}
	if len(expression.SharedRows(bulk, ref)) == 0 {
		return nil, fmt.Errorf("%w: bulk and reference share no feature labels", deconv.ErrDimensionMismatch)
	}

	log.Println("Running decomposition")
	raw, err := p.Decomposer.Decompose(Request{
		Bulk:         p.BulkContainer(),
		SingleCell:   p.SingleCellContainer(),
		UseOverlap:   p.UseOverlap(),
		Reference:    ref,
		ScaleFactors: factors,
		Markers:      p.Markers(),
		Assay:        p.AssayName(),
		BatchKey:     p.BatchVariable(),
		CellTypeKey:  p.CellTypeVariable(),
	})
	if err != nil {
		return nil, fmt.Errorf("decomposition: %w", err)
	}

	props, err := reshape(raw, ref.Cols(), bulk.Cols())
	if err != nil {
		return nil, err
	}
	log.Printf("Estimated proportions of %d cell types in %d samples\n", len(props.CellTypes), len(props.Samples))

	if !p.ReturnInfo() {
		return props, nil
	}

	meta, err := metadata(p, raw, props)
	if err != nil {
		return nil, err
	}

	return &Detailed{Proportions: props, Raw: raw, Metadata: meta}, nil
}

// reshape puts raw proportions into cell types x samples orientation and
// checks that they cover exactly the reference cell types and every bulk
// sample.
func reshape(raw *Raw, cellTypes, samples []string) (Proportions, error) {
	if raw == nil || raw.Proportions == nil {
		return Proportions{}, fmt.Errorf("%w: decomposer returned no proportions", deconv.ErrDimensionMismatch)
	}

	m := raw.Proportions
	switch raw.Orientation {
	case CellTypesByRows:
	case SamplesByRows:
		m = m.Transpose()
	default:
		return Proportions{}, fmt.Errorf("%w: unknown orientation %d", deconv.ErrDimensionMismatch, raw.Orientation)
	}

	if rows, _ := m.Dims(); rows != len(cellTypes) {
		return Proportions{}, fmt.Errorf("%w: decomposer returned %d cell types, reference has %d", deconv.ErrDimensionMismatch, rows, len(cellTypes))
	}

	sorted := append([]string(nil), cellTypes...)
	sort.Strings(sorted)

	out := Proportions{
		Samples:   append([]string(nil), samples...),
		CellTypes: sorted,
		Values:    make(map[string][]float64, len(sorted)),
	}

	cols := make([]int, len(samples))
	for k, s := range samples {
		j, ok := m.ColIndex(s)
		if !ok {
			return Proportions{}, fmt.Errorf("%w: decomposer returned no proportions for sample %q", deconv.ErrDimensionMismatch, s)
		}
		cols[k] = j
	}

	for _, ct := range sorted {
		i, ok := m.RowIndex(ct)
		if !ok {
			return Proportions{}, fmt.Errorf("%w: decomposer returned no proportions for cell type %q", deconv.ErrDimensionMismatch, ct)
		}
		series := make([]float64, len(samples))
		for k, j := range cols {
			series[k] = m.At(i, j)
		}
		out.Values[ct] = series
	}

	return out, nil
}

func metadata(p *Parameters, raw *Raw, props Proportions) (Metadata, error) {
	part := p.Partition()

	overlapSamples, err := batch.Samples(p.BulkContainer(), p.BatchVariable(), part.Overlap)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{
		MarkerGenes:        len(p.Markers()),
		GenesUsed:          len(raw.GenesUsed),
		CellTypes:          props.CellTypes,
		Samples:            props.Samples,
		IndependentSamples: p.BulkExpressionIndependent().Cols(),
		DuplicatedSamples:  expression.DuplicatedSamples(p.BulkContainer()),
		OverlapBatches:     part.Overlap,
		OnlyBulkBatches:    part.OnlyBulk,
		OnlySCBatches:      part.OnlySC,
		OverlapSamples:     len(overlapSamples),
	}

	values := make([]float64, 0, len(raw.RSquared))
	for _, s := range props.Samples {
		if r2, exists := raw.RSquared[s]; exists {
			values = append(values, r2)
		}
	}
	if len(values) > 0 {
		if meta.RSquaredMean, err = stats.Mean(values); err != nil {
			return Metadata{}, err
		}
		if meta.RSquaredMedian, err = stats.Median(values); err != nil {
			return Metadata{}, err
		}
	}

	return meta, nil
}
