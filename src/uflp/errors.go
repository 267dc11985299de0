package uflp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports non-positive counts, negative costs or
	// distances and other bad generation parameters.
	ErrInvalidParameter = errors.New("uflp: invalid parameter")
	// ErrDimensionMismatch reports cost and distance shapes that disagree.
	ErrDimensionMismatch = errors.New("uflp: dimension mismatch")
	// ErrOracle is matched by every *OracleError.
	ErrOracle = errors.New("uflp: oracle failure")
	// ErrMalformedDecision reports an oracle answer that has the wrong shape
	// or violates the formulation.
	ErrMalformedDecision = errors.New("uflp: malformed decision")
	// ErrMalformedRecord reports a dataset block that cannot be parsed.
	ErrMalformedRecord = errors.New("uflp: malformed record")
)

type FailureReason int

const (
	ReasonSolverError FailureReason = iota
	ReasonInfeasible
	ReasonTimeout
)

func (r FailureReason) String() string {
	switch r {
	case ReasonInfeasible:
		return "infeasible"
	case ReasonTimeout:
		return "timeout"
	default:
		return "solver error"
	}
}

// OracleError is the failure returned by a Session.
type OracleError struct {
	Reason FailureReason
	Err    error
}

func (e *OracleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %v", e.Reason)
	}
	return fmt.Sprintf("oracle %v: %v", e.Reason, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

func (e *OracleError) Is(target error) bool {
	return target == ErrOracle
}

// NewOracleError wraps err. Context deadline and cancellation errors are
// always reported as ReasonTimeout.
func NewOracleError(reason FailureReason, err error) *OracleError {
	if isContextErr(err) {
		reason = ReasonTimeout
	}
	return &OracleError{Reason: reason, Err: err}
}

// Stage names the pipeline step a sample failed in.
type Stage string

const (
	StageGenerate  Stage = "generate"
	StageFormulate Stage = "formulate"
	StageSolve     Stage = "solve"
	StageWrite     Stage = "write"
)

// SampleError locates a failure within a generation run.
type SampleError struct {
	Index int
	Stage Stage
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}
