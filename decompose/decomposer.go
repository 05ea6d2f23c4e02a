// Package decompose runs a decomposition routine over validated parameters
// and reshapes its output into per-cell-type proportion series.
package decompose

import (
	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/param"
)

// Decomposer is the numerical routine that estimates cell-type proportions.
// Implementations are treated as black boxes: they receive the full bulk
// container, the single-cell container and the overlap flag, plus the
// resolved reference and scale factors, and run to completion.
type Decomposer interface {
	Decompose(req Request) (*Raw, error)
}

// Request is everything a Decomposer may consult.
type Request struct {
	Bulk       *expression.Container
	SingleCell *expression.Container
	UseOverlap bool

	Reference    *expression.Matrix
	ScaleFactors param.ScaleFactors
	Markers      []string

	Assay       string
	BatchKey    string
	CellTypeKey string
}

// Orientation says which axis of Raw.Proportions holds cell types.
type Orientation int

const (
	CellTypesByRows Orientation = iota
	SamplesByRows
)

// Raw is a decomposer's unprocessed output.
type Raw struct {
	Proportions *expression.Matrix
	Orientation Orientation

	// Optional extras, nil when the routine does not produce them.
	SingleCellProportions *expression.Matrix // cell types x batch ids
	TransformedBulk       *expression.Matrix // features x samples
	RSquared              map[string]float64
	GenesUsed             []string
}
