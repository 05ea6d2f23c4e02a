// Package param assembles and validates the immutable parameter bundle that a
// reference-based deconvolution run consumes: the reconciled bulk and
// single-cell containers, the reference (signature) matrix, the batch
// partition, cell scale factors and the independent bulk holdout.
package param

import (
	"fmt"
	"log"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/batch"
	"github.com/carbocation/deconv/expression"
	"github.com/carbocation/deconv/reference"
)

// Inputs are the caller-supplied pieces. At least one of BulkMatrix and Bulk
// must be set, and SingleCell is required. Reference, IndependentBulk and
// ScaleFactors are derived when nil.
type Inputs struct {
	BulkMatrix      *expression.Matrix
	Bulk            expression.Input
	SingleCell      expression.Input
	Reference       *expression.Matrix
	IndependentBulk *expression.Matrix
	ScaleFactors    *ScaleFactors
}

// Base is the shared parameter bundle. It is built once by New and never
// modified afterwards; algorithm-specific parameter types embed it by value.
// Matrices and containers returned by its accessors are shared, not copied,
// and must be treated as read-only.
type Base struct {
	bulkExpression            *expression.Matrix
	bulkExpressionIndependent *expression.Matrix
	referenceExpression       *expression.Matrix
	cellScaleFactors          ScaleFactors
	bulkContainer             *expression.Container
	singleCellContainer       *expression.Container
	partition                 batch.Partition
	markers                   []string

	assayName     string
	batchVariable string
	cellTypeKey   string
	useOverlap    bool
	returnInfo    bool
}

// New runs the construction pipeline. Any failure aborts the whole
// construction and is returned as a *StageError wrapping one of the deconv
// sentinel errors.
func New(in Inputs, opts Options) (*Base, error) {
	opts = opts.withDefaults()
	stage := StageStart

	fail := func(err error) (*Base, error) {
		return nil, &StageError{Reached: stage, Err: err}
	}

	// Inputs
	bulkMatrix, bulkContainer, err := expression.ResolveBulk(in.BulkMatrix, in.Bulk, opts.Assay, opts.BatchKey)
	if err != nil {
		return fail(fmt.Errorf("bulk input: %w", err))
	}
	sc, err := expression.ResolveSingleCell(in.SingleCell, opts.Assay, opts.BatchKey)
	if err != nil {
		return fail(err)
	}
	scCounts, _ := sc.Assay(opts.Assay)
	bulkFeatures, bulkSamples := bulkMatrix.Dims()
	scFeatures, scCells := scCounts.Dims()
	log.Printf("Bulk: %d features x %d samples. Single-cell: %d features x %d cells\n", bulkFeatures, bulkSamples, scFeatures, scCells)
	stage = StageInputsParsed

	// Reference
	ref := in.Reference
	if ref == nil {
		log.Printf("Building the reference from single-cell %q grouped by %q\n", opts.Assay, opts.CellTypeKey)
		if ref, err = reference.Build(sc, opts.CellTypeKey, opts.Assay); err != nil {
			return fail(err)
		}
	} else {
		log.Println("Using the supplied reference matrix")
	}
	refFeatures, refTypes := ref.Dims()
	log.Printf("Reference: %d features x %d cell types\n", refFeatures, refTypes)
	stage = StageReferenceResolved

	// Batches
	scIDs, err := batch.IDs(sc, opts.BatchKey)
	if err != nil {
		return fail(fmt.Errorf("single-cell input: %w", err))
	}
	partition, err := batch.Reconcile(opts.BatchKey, bulkContainer, scIDs)
	if err != nil {
		return fail(err)
	}
	log.Printf("Batches: %s\n", partition)
	stage = StageBatchesReconciled

	// Scale factors
	if in.ScaleFactors == nil {
		log.Println("No cell scale factors given; using 1 for every cell type")
	}
	factors := ResolveScaleFactors(in.ScaleFactors, ref)
	stage = StageScaleFactorsResolved

	// Independent bulk
	dependent, independent, err := PartitionIndependent(partition.OnlyBulk, bulkMatrix, bulkContainer, opts.BatchKey, in.IndependentBulk)
	if err != nil {
		return fail(err)
	}
	_, nDep := dependent.Dims()
	_, nInd := independent.Dims()
	log.Printf("Bulk samples: %d sharing a single-cell batch, %d independent\n", nDep, nInd)
	stage = StageIndependentBulkPartitioned

	b := &Base{
		bulkExpression:            dependent,
		bulkExpressionIndependent: independent,
		referenceExpression:       ref,
		cellScaleFactors:          factors,
		bulkContainer:             bulkContainer,
		singleCellContainer:       sc,
		partition:                 partition,
		markers:                   opts.Markers,
		assayName:                 opts.Assay,
		batchVariable:             opts.BatchKey,
		cellTypeKey:               opts.CellTypeKey,
		useOverlap:                opts.UseOverlap,
		returnInfo:                opts.ReturnInfo,
	}
	if err := Validate(b); err != nil {
		return fail(err)
	}
	stage = StageParameterBuilt
	log.Printf("Construction reached stage %q\n", stage)

	return b, nil
}

// Validate holds the checks shared by every algorithm's parameters.
func Validate(b *Base) error {
	if b == nil {
		return fmt.Errorf("%w: parameters are absent", deconv.ErrUnsupportedInputType)
	}
	if b.assayName == "" || b.batchVariable == "" || b.cellTypeKey == "" {
		return fmt.Errorf("%w: assay, batch key and cell-type key must all be named", deconv.ErrMissingAnnotationKey)
	}
	if b.bulkExpression == nil || b.bulkExpressionIndependent == nil || b.referenceExpression == nil {
		return fmt.Errorf("%w: bulk, independent bulk and reference matrices are all required", deconv.ErrUnsupportedInputType)
	}

	if shared := expression.SharedRows(b.bulkExpression, b.referenceExpression); len(shared) == 0 {
		return fmt.Errorf("%w: bulk and reference share no feature labels", deconv.ErrDimensionMismatch)
	}

	for _, sample := range b.bulkExpressionIndependent.Cols() {
		if _, exists := b.bulkExpression.ColIndex(sample); exists {
			return fmt.Errorf("%w: sample %q is both independent and dependent", deconv.ErrDimensionMismatch, sample)
		}
	}

	return nil
}

// BulkExpression is the bulk matrix without the independent samples.
func (b *Base) BulkExpression() *expression.Matrix { return b.bulkExpression }

// BulkExpressionIndependent holds the bulk samples with no single-cell batch
// counterpart (or the matrix supplied for that purpose).
func (b *Base) BulkExpressionIndependent() *expression.Matrix { return b.bulkExpressionIndependent }

// ReferenceExpression is the feature × cell-type signature matrix.
func (b *Base) ReferenceExpression() *expression.Matrix { return b.referenceExpression }

// CellScaleFactors returns a copy of the resolved factors.
func (b *Base) CellScaleFactors() ScaleFactors { return b.cellScaleFactors.clone() }

// BulkContainer covers every bulk sample, dependent and independent.
func (b *Base) BulkContainer() *expression.Container { return b.bulkContainer }

func (b *Base) SingleCellContainer() *expression.Container { return b.singleCellContainer }

// Partition returns a copy of the batch partition.
func (b *Base) Partition() batch.Partition {
	return batch.Partition{
		Overlap:  append([]string(nil), b.partition.Overlap...),
		OnlyBulk: append([]string(nil), b.partition.OnlyBulk...),
		OnlySC:   append([]string(nil), b.partition.OnlySC...),
		Unique:   append([]string(nil), b.partition.Unique...),
	}
}

func (b *Base) Markers() []string        { return append([]string(nil), b.markers...) }
func (b *Base) AssayName() string        { return b.assayName }
func (b *Base) BatchVariable() string    { return b.batchVariable }
func (b *Base) CellTypeVariable() string { return b.cellTypeKey }
func (b *Base) UseOverlap() bool         { return b.useOverlap }
func (b *Base) ReturnInfo() bool         { return b.returnInfo }
