package expression

import (
	"fmt"
	"sort"

	"github.com/carbocation/deconv"
)

// Container is the canonical in-memory form every input is converted into:
// one or more named assays over the same samples, plus a per-sample
// annotation table aligned 1:1 with the assay columns.
type Container struct {
	assays  map[string]*Matrix
	colData *Annotation
}

// NewContainer checks that every assay shares the same sample labels and
// realigns colData to that order. Annotation rows for samples absent from
// the assays are dropped; assay samples without an annotation row are an
// error.
func NewContainer(assays map[string]*Matrix, colData *Annotation) (*Container, error) {
	if len(assays) == 0 {
		return nil, fmt.Errorf("%w: container has no assays", deconv.ErrUnsupportedInputType)
	}
	if colData == nil {
		return nil, fmt.Errorf("%w: container has no sample annotation", deconv.ErrUnsupportedInputType)
	}

	names := make([]string, 0, len(assays))
	for name := range assays {
		names = append(names, name)
	}
	sort.Strings(names)

	var samples []string
	for _, name := range names {
		m := assays[name]
		if m == nil {
			return nil, fmt.Errorf("%w: assay %q is nil", deconv.ErrUnsupportedInputType, name)
		}
		if samples == nil {
			samples = m.Cols()
			continue
		}
		if !sameLabels(samples, m.cols) {
			return nil, fmt.Errorf("%w: assay %q does not share sample labels with assay %q", deconv.ErrDimensionMismatch, name, names[0])
		}
	}

	aligned, err := colData.Subset(samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", deconv.ErrDimensionMismatch, err)
	}

	out := &Container{
		assays:  make(map[string]*Matrix, len(assays)),
		colData: aligned,
	}
	for name, m := range assays {
		out.assays[name] = m
	}

	return out, nil
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Assay is the extraction accessor.
func (c *Container) Assay(name string) (*Matrix, error) {
	m, exists := c.assays[name]
	if !exists {
		return nil, fmt.Errorf("%w: no assay named %q (have: %v)", deconv.ErrUnsupportedInputType, name, c.AssayNames())
	}

	return m, nil
}

// AssayNames returns assay names, sorted.
func (c *Container) AssayNames() []string {
	out := make([]string, 0, len(c.assays))
	for name := range c.assays {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

// Samples returns sample labels in column order.
func (c *Container) Samples() []string {
	return c.colData.Samples()
}

// Annotation returns a copy of the per-sample metadata.
func (c *Container) Annotation() *Annotation {
	return c.colData.Clone()
}

// HasKey reports whether the sample metadata has a column named key.
func (c *Container) HasKey(key string) bool {
	return c.colData.Has(key)
}

// Column returns one metadata column parallel to Samples().
func (c *Container) Column(key string) ([]string, error) {
	col, ok := c.colData.Column(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not among the sample metadata columns %v", deconv.ErrMissingAnnotationKey, key, c.colData.Keys())
	}

	return col, nil
}
