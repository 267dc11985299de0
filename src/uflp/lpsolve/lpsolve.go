// Package lpsolve solves facility location formulations with lp_solve.
package lpsolve

import (
	"context"
	"fmt"

	"facility_location/src/uflp"

	"github.com/draffensperger/golp"
)

const Name = "lpsolve"

type Oracle struct{}

func (Oracle) Open() (uflp.Session, error) {
	return &session{}, nil
}

type session struct {
	closed bool
}

// Model translates form into an lp_solve problem. Columns are integer with
// an explicit open[f] <= 1 row per facility; serve columns are bounded by
// the assignment rows.
func Model(form *uflp.Formulation) (*golp.LP, error) {
	numCols := form.NumCols()
	lp := golp.NewLP(0, numCols)
	lp.SetObjFn(form.Objective())
	for j := range numCols {
		lp.SetInt(j, true)
	}

	for i, row := range form.Rows() {
		entries := make([]golp.Entry, len(row.Terms))
		for k, t := range row.Terms {
			entries[k] = golp.Entry{Col: t.Col, Val: t.Val}
		}
		sense := golp.LE
		if row.Sense == uflp.SenseEQ {
			sense = golp.EQ
		}
		if err := lp.AddConstraintSparse(entries, sense, row.RHS); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	for f := range form.NumFacilities() {
		entry := []golp.Entry{{Col: form.OpenCol(f), Val: 1}}
		if err := lp.AddConstraintSparse(entry, golp.LE, 1); err != nil {
			return nil, fmt.Errorf("open bound %d: %w", f, err)
		}
	}
	return lp, nil
}

func (s *session) Solve(ctx context.Context, form *uflp.Formulation) (*uflp.Decision, error) {
	if s.closed {
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, fmt.Errorf("session closed"))
	}
	if err := ctx.Err(); err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonTimeout, err)
	}

	lp, err := Model(form)
	if err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, err)
	}
	switch status := lp.Solve(); status {
	case golp.OPTIMAL:
	case golp.INFEASIBLE:
		return nil, uflp.NewOracleError(uflp.ReasonInfeasible, fmt.Errorf("status: %v", status))
	default:
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, fmt.Errorf("status: %v", status))
	}
	if err := ctx.Err(); err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonTimeout, err)
	}
	return form.DecisionFromColumns(lp.Variables(), lp.Objective())
}

func (s *session) Close() error {
	s.closed = true
	return nil
}
