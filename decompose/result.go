package decompose

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// Outcome is what Deconvolve returns: Proportions when the parameters ask
// for the plain result, *Detailed when they ask for extra information.
// Callers switch on the concrete type.
type Outcome interface {
	outcome()
}

// Proportions maps each cell type to one value per bulk sample, in Samples
// order.
type Proportions struct {
	Samples   []string
	CellTypes []string // sorted
	Values    map[string][]float64
}

// Detailed carries the plain proportions together with the raw routine
// output and run metadata.
type Detailed struct {
	Proportions Proportions
	Raw         *Raw
	Metadata    Metadata
}

func (Proportions) outcome() {}
func (*Detailed) outcome()   {}

// Of returns the series for one cell type.
func (p Proportions) Of(cellType string) ([]float64, bool) {
	v, ok := p.Values[cellType]
	return v, ok
}

// Sample returns one sample's proportions, parallel to CellTypes.
func (p Proportions) Sample(sample string) ([]float64, bool) {
	for j, s := range p.Samples {
		if s != sample {
			continue
		}
		out := make([]float64, len(p.CellTypes))
		for i, ct := range p.CellTypes {
			out[i] = p.Values[ct][j]
		}
		return out, true
	}

	return nil, false
}

// Without returns a copy lacking the named samples, e.g. synthetic
// replicates.
func (p Proportions) Without(samples []string) Proportions {
	drop := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		drop[s] = struct{}{}
	}

	keep := make([]int, 0, len(p.Samples))
	out := Proportions{
		CellTypes: append([]string(nil), p.CellTypes...),
		Values:    make(map[string][]float64, len(p.CellTypes)),
	}
	for j, s := range p.Samples {
		if _, exists := drop[s]; !exists {
			keep = append(keep, j)
			out.Samples = append(out.Samples, s)
		}
	}
	for _, ct := range p.CellTypes {
		series := make([]float64, 0, len(keep))
		for _, j := range keep {
			series = append(series, p.Values[ct][j])
		}
		out.Values[ct] = series
	}

	return out
}

// Write emits one row per sample: the sample label, then one column per
// cell type.
func (p Proportions) Write(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(append([]string{"sample"}, p.CellTypes...)); err != nil {
		return err
	}
	for j, s := range p.Samples {
		row := make([]string, 0, len(p.CellTypes)+1)
		row = append(row, s)
		for _, ct := range p.CellTypes {
			row = append(row, strconv.FormatFloat(p.Values[ct][j], 'g', 8, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// Metadata describes a run: which features were used and how bulk and
// single-cell batches related.
type Metadata struct {
	MarkerGenes int // markers requested; 0 when none were given
	GenesUsed   int

	CellTypes          []string
	Samples            []string
	IndependentSamples []string
	DuplicatedSamples  []string

	OverlapBatches  []string
	OnlyBulkBatches []string
	OnlySCBatches   []string
	OverlapSamples  int // bulk samples sharing a batch with the single-cell data

	RSquaredMean   float64
	RSquaredMedian float64
}

type metadataRow struct {
	Field string `csv:"field"`
	Value string `csv:"value"`
}

func (m Metadata) rows() []*metadataRow {
	join := func(v []string) string { return strings.Join(v, ",") }
	num := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

	return []*metadataRow{
		{"marker_genes", strconv.Itoa(m.MarkerGenes)},
		{"genes_used", strconv.Itoa(m.GenesUsed)},
		{"cell_types", join(m.CellTypes)},
		{"samples", join(m.Samples)},
		{"independent_samples", join(m.IndependentSamples)},
		{"duplicated_samples", join(m.DuplicatedSamples)},
		{"overlap_batches", join(m.OverlapBatches)},
		{"only_bulk_batches", join(m.OnlyBulkBatches)},
		{"only_sc_batches", join(m.OnlySCBatches)},
		{"overlap_samples", strconv.Itoa(m.OverlapSamples)},
		{"rsquared_mean", num(m.RSquaredMean)},
		{"rsquared_median", num(m.RSquaredMedian)},
	}
}

// Write emits the metadata as a two-column field/value table.
func (m Metadata) Write(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := gocsv.MarshalCSV(m.rows(), gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	return nil
}
