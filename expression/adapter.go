package expression

import (
	"fmt"
	"log"

	"github.com/carbocation/deconv"
)

const (
	// ReplicateSuffix is appended to the label of a lone bulk sample when it
	// is duplicated to satisfy the two-sample minimum.
	ReplicateSuffix = "_rep"

	// DuplicatedKey marks duplicated samples in the bulk annotation: "true"
	// on the synthetic replicate, "false" everywhere else. The column is only
	// present when a duplication happened.
	DuplicatedKey = "replicate.duplicated"
)

// ResolveBulk reconciles a bulk matrix and/or bulk container into a
// (matrix, container) pair. Either may be nil, but not both. When only a
// container is given the matrix is extracted from assay; when only a matrix
// is given a container with synthetic batch ids under batchKey is built.
// When both are given the matrix wins and the container contributes its
// metadata.
//
// A single-sample result is duplicated, since the decomposition contract
// requires at least two samples. The copy is flagged under DuplicatedKey.
func ResolveBulk(m *Matrix, in Input, assay, batchKey string) (*Matrix, *Container, error) {
	var (
		c   *Container
		err error
	)

	switch {
	case m == nil && in == nil:
		return nil, nil, fmt.Errorf("%w: neither a bulk matrix nor a bulk container was given", deconv.ErrUnsupportedInputType)

	case in == nil:
		if c, err = Synthesize(m, assay, batchKey); err != nil {
			return nil, nil, err
		}

	case m == nil:
		if c, err = ToContainer(in, assay, batchKey); err != nil {
			return nil, nil, err
		}
		if m, err = c.Assay(assay); err != nil {
			return nil, nil, err
		}

	default:
		if c, err = ToContainer(in, assay, batchKey); err != nil {
			return nil, nil, err
		}
		if c, err = NewContainer(map[string]*Matrix{assay: m}, c.colData); err != nil {
			return nil, nil, err
		}
	}

	if _, samples := m.Dims(); samples == 1 {
		log.Printf("Bulk data has a single sample (%s); duplicating it as %s%s\n", m.cols[0], m.cols[0], ReplicateSuffix)
		if c, err = DuplicateLoneSample(c); err != nil {
			return nil, nil, err
		}
		if m, err = c.Assay(assay); err != nil {
			return nil, nil, err
		}
	}

	return m, c, nil
}

// ResolveSingleCell normalizes any of the accepted single-cell shapes into a
// Container and checks that the requested assay can be extracted.
func ResolveSingleCell(in Input, assay, batchKey string) (*Container, error) {
	c, err := ToContainer(in, assay, batchKey)
	if err != nil {
		return nil, fmt.Errorf("single-cell input: %w", err)
	}
	if _, err := c.Assay(assay); err != nil {
		return nil, fmt.Errorf("single-cell input: %w", err)
	}

	return c, nil
}

// DuplicateLoneSample copies the only column of every assay under a new
// label derived by ReplicateSuffix, and flags the copy in the annotation.
func DuplicateLoneSample(c *Container) (*Container, error) {
	samples := c.Samples()
	if len(samples) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one sample to duplicate, found %d", deconv.ErrDimensionMismatch, len(samples))
	}
	original := samples[0]
	replicate := original + ReplicateSuffix

	assays := make(map[string]*Matrix, len(c.assays))
	for name, m := range c.assays {
		dup, err := m.AppendCol(replicate, m.Col(0))
		if err != nil {
			return nil, err
		}
		assays[name] = dup
	}

	ann, err := NewAnnotation([]string{original, replicate})
	if err != nil {
		return nil, err
	}
	for _, key := range c.colData.order {
		v := c.colData.fields[key][0]
		if err := ann.Set(key, []string{v, v}); err != nil {
			return nil, err
		}
	}
	if err := ann.Set(DuplicatedKey, []string{"false", "true"}); err != nil {
		return nil, err
	}

	return NewContainer(assays, ann)
}

// DuplicatedSamples lists the samples flagged as synthetic replicates.
func DuplicatedSamples(c *Container) []string {
	flags, ok := c.colData.Column(DuplicatedKey)
	if !ok {
		return nil
	}

	out := make([]string, 0, 1)
	for i, flag := range flags {
		if flag == "true" {
			out = append(out, c.colData.samples[i])
		}
	}

	return out
}
