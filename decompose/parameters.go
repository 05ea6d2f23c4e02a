package decompose

import (
	"github.com/carbocation/deconv/param"
)

// Parameters bundles the shared parameters with the routine that will
// consume them.
type Parameters struct {
	param.Base

	Decomposer Decomposer
}

// NewParameters builds and validates the shared parameters and attaches d.
// A nil d selects the default LinearTransform routine.
func NewParameters(in param.Inputs, opts param.Options, d Decomposer) (*Parameters, error) {
	base, err := param.New(in, opts)
	if err != nil {
		return nil, err
	}

	if d == nil {
		d = NewLinearTransform()
	}

	return &Parameters{Base: *base, Decomposer: d}, nil
}
