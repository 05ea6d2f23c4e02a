package deconv

import "errors"

// Failure classes raised while assembling deconvolution parameters. Every
// error returned by the pipeline wraps exactly one of these, so callers can
// branch with errors.Is.
var (
	// ErrUnsupportedInputType means an input's shape matched no known
	// container variant, or a required input was absent altogether.
	ErrUnsupportedInputType = errors.New("unsupported input type")

	// ErrMissingAnnotationKey means a configured annotation column (batch or
	// cell type) does not exist in the relevant metadata table.
	ErrMissingAnnotationKey = errors.New("missing annotation key")

	// ErrEmptyOverlap means no batch id is shared by bulk and single-cell
	// metadata.
	ErrEmptyOverlap = errors.New("no batch ids shared between bulk and single-cell data")

	// ErrInsufficientIndependentData means there are no bulk samples outside
	// the single-cell batches and none were supplied directly.
	ErrInsufficientIndependentData = errors.New("insufficient independent bulk data")

	// ErrDimensionMismatch means feature or sample axes of the reference,
	// bulk and scale-factor inputs cannot be reconciled.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
