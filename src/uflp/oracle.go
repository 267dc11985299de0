package uflp

import (
	"context"
	"errors"
)

// Oracle opens solver sessions. Implementations wrap a MILP backend.
type Oracle interface {
	Open() (Session, error)
}

// Session solves formulations to optimality. A session is used by one
// goroutine at a time and must be closed by whoever opened it.
type Session interface {
	Solve(ctx context.Context, form *Formulation) (*Decision, error)
	Close() error
}

// OracleFunc adapts a solve function with no session state to Oracle.
type OracleFunc func(ctx context.Context, form *Formulation) (*Decision, error)

func (fn OracleFunc) Open() (Session, error) {
	return funcSession(fn), nil
}

type funcSession OracleFunc

func (s funcSession) Solve(ctx context.Context, form *Formulation) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewOracleError(ReasonTimeout, err)
	}
	return s(ctx, form)
}

func (s funcSession) Close() error {
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
