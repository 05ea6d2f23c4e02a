package expression

import (
	"fmt"

	"github.com/carbocation/deconv"
)

// Input is one of the accepted input shapes: *RawMatrix,
// *AnnotatedContainer or *SingleCellContainer. The set is closed; ToContainer
// resolves each variant once, at the boundary.
type Input interface {
	inputKind() string
}

// RawMatrix is a bare labelled matrix with no metadata.
type RawMatrix struct {
	Matrix *Matrix
}

// AnnotatedContainer is a single expression matrix with a sample annotation
// table, the generically annotated shape.
type AnnotatedContainer struct {
	Exprs *Matrix
	Pheno *Annotation
}

// SingleCellContainer holds several named assays (counts, logcounts, ...)
// over the same cells plus per-cell metadata.
type SingleCellContainer struct {
	Assays  map[string]*Matrix
	ColData *Annotation
}

func (*RawMatrix) inputKind() string           { return "raw matrix" }
func (*AnnotatedContainer) inputKind() string  { return "annotated container" }
func (*SingleCellContainer) inputKind() string { return "single-cell container" }

// ToContainer converts any Input variant into a Container. A RawMatrix
// gains a synthetic annotation holding one placeholder batch id per sample
// under batchKey; an AnnotatedContainer's matrix is stored under assay.
func ToContainer(in Input, assay, batchKey string) (*Container, error) {
	switch v := in.(type) {
	case *RawMatrix:
		if v == nil || v.Matrix == nil {
			break
		}
		return Synthesize(v.Matrix, assay, batchKey)

	case *AnnotatedContainer:
		if v == nil || v.Exprs == nil || v.Pheno == nil {
			break
		}
		return NewContainer(map[string]*Matrix{assay: v.Exprs}, v.Pheno)

	case *SingleCellContainer:
		if v == nil || len(v.Assays) == 0 || v.ColData == nil {
			break
		}
		return NewContainer(v.Assays, v.ColData)
	}

	if in == nil {
		return nil, fmt.Errorf("%w: input is absent", deconv.ErrUnsupportedInputType)
	}

	return nil, fmt.Errorf("%w: %s is missing its expression data or metadata", deconv.ErrUnsupportedInputType, in.inputKind())
}

// Synthesize wraps a bare matrix in a minimal container whose only metadata
// is batchKey, set to each sample's own label.
func Synthesize(m *Matrix, assay, batchKey string) (*Container, error) {
	ann, err := NewAnnotation(m.cols)
	if err != nil {
		return nil, err
	}
	if err := ann.Set(batchKey, m.cols); err != nil {
		return nil, err
	}

	return NewContainer(map[string]*Matrix{assay: m}, ann)
}
