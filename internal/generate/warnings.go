package generate

import "fmt"

// WarningKind classifies recoverable issues collected during a run.
type WarningKind string

const (
	// WarnFieldMapping marks an unrecognized vendor type that fell
	// back to string.
	WarnFieldMapping WarningKind = "field-mapping"
	// WarnDuplicateOperation marks an operation id collision resolved
	// by numeric suffixing.
	WarnDuplicateOperation WarningKind = "duplicate-operation"
)

// Warning is a recoverable issue. The run still produces a valid
// document; warnings let callers distinguish a clean run from an
// imperfect one.
type Warning struct {
	Kind    WarningKind
	Where   string // endpoint path or field path
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Where, w.Message)
}

// ConsistencyError reports a violated assembler invariant. It is
// always a defect in this pipeline, never caused by input data.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return "generate: internal consistency violation: " + e.Msg
}
