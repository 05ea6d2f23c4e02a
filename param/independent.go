package param

import (
	"fmt"
	"strings"

	"github.com/carbocation/deconv"
	"github.com/carbocation/deconv/batch"
	"github.com/carbocation/deconv/expression"
)

// PartitionIndependent splits bulk into samples decomposed against the
// single-cell batches (dependent) and a holdout (independent).
//
// The holdout is supplied when non-nil; otherwise it is every bulk column
// whose batch id is in onlyBulk, and an empty onlyBulk is an error. Either
// way the dependent matrix is bulk minus every holdout sample label and
// minus any synthetic replicate of a holdout sample, so the two never share
// data.
func PartitionIndependent(onlyBulk []string, bulk *expression.Matrix, c *expression.Container, batchKey string, supplied *expression.Matrix) (dependent, independent *expression.Matrix, err error) {
	independent = supplied

	if independent == nil {
		if len(onlyBulk) == 0 {
			return nil, nil, fmt.Errorf("%w: every bulk batch id also appears in the single-cell data and no independent bulk matrix was supplied", deconv.ErrInsufficientIndependentData)
		}

		samples, err := batch.Samples(c, batchKey, onlyBulk)
		if err != nil {
			return nil, nil, err
		}
		if independent, err = bulk.SelectCols(samples); err != nil {
			return nil, nil, err
		}
	}

	dependent, err = bulk.DropCols(withReplicates(c, independent.Cols()))
	if err != nil {
		return nil, nil, fmt.Errorf("no bulk samples remain outside the independent set: %w", err)
	}

	return dependent, independent, nil
}

// withReplicates extends samples with every synthetic replicate in c whose
// source sample is listed, and every source whose replicate is listed.
func withReplicates(c *expression.Container, samples []string) []string {
	held := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		held[s] = struct{}{}
	}

	out := append([]string(nil), samples...)
	for _, rep := range expression.DuplicatedSamples(c) {
		source := strings.TrimSuffix(rep, expression.ReplicateSuffix)
		_, repHeld := held[rep]
		_, sourceHeld := held[source]
		switch {
		case sourceHeld && !repHeld:
			out = append(out, rep)
		case repHeld && !sourceHeld:
			out = append(out, source)
		}
	}

	return out
}
