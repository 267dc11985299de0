package uflp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleError(t *testing.T) {
	cause := errors.New("presolve failed")
	err := error(&SampleError{Index: 4, Stage: StageSolve, Err: NewOracleError(ReasonSolverError, cause)})

	assert.ErrorIs(t, err, ErrOracle)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sample 4: solve: oracle solver error: presolve failed", err.Error())

	timeout := NewOracleError(ReasonInfeasible, context.DeadlineExceeded)
	assert.Equal(t, ReasonTimeout, timeout.Reason)
	assert.NotErrorIs(t, &SampleError{Err: ErrInvalidParameter}, ErrOracle)
}

func TestOracleFuncCancelled(t *testing.T) {
	called := false
	session, err := OracleFunc(func(ctx context.Context, form *Formulation) (*Decision, error) {
		called = true
		return nil, nil
	}).Open()
	require.NoError(t, err)
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = session.Solve(ctx, nil)

	var oracleErr *OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Equal(t, ReasonTimeout, oracleErr.Reason)
	assert.False(t, called)
}

func TestSkippable(t *testing.T) {
	assert.True(t, skippable(&SampleError{Err: NewOracleError(ReasonInfeasible, nil)}))
	assert.True(t, skippable(&SampleError{Err: ErrMalformedDecision}))
	assert.False(t, skippable(&SampleError{Err: NewOracleError(ReasonTimeout, context.Canceled)}))
	assert.False(t, skippable(&SampleError{Stage: StageWrite, Err: errors.New("disk full")}))
}
