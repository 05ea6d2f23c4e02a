package param

import "fmt"

// Stage is a step of parameter construction. Construction only moves
// forward; a failure at any step abandons the whole object.
type Stage int

const (
	StageStart Stage = iota
	StageInputsParsed
	StageReferenceResolved
	StageBatchesReconciled
	StageScaleFactorsResolved
	StageIndependentBulkPartitioned
	StageParameterBuilt
)

var stageNames = [...]string{
	"start",
	"inputs parsed",
	"reference resolved",
	"batches reconciled",
	"scale factors resolved",
	"independent bulk partitioned",
	"parameter built",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError reports the last stage that completed before construction
// failed. It unwraps to the underlying cause.
type StageError struct {
	Reached Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("building deconvolution parameters failed after stage %q: %v", e.Reached, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
