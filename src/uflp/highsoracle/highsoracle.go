// Package highsoracle solves facility location formulations with the HiGHS
// MILP solver.
package highsoracle

import (
	"context"
	"fmt"
	"math"

	"facility_location/src/uflp"

	"github.com/lanl/highs"
)

// Name is the oracle name used on the command line and in metrics.
const Name = "highs"

// Oracle builds a fresh HiGHS model per solve; sessions hold no solver state.
type Oracle struct{}

func (Oracle) Open() (uflp.Session, error) {
	return &session{}, nil
}

type session struct {
	closed bool
}

// Model translates form into a HiGHS model with binary columns.
func Model(form *uflp.Formulation) *highs.Model {
	numCols := form.NumCols()
	lp := new(highs.Model)
	lp.ColCosts = form.Objective()
	lp.VarTypes = make([]highs.VariableType, numCols)
	lp.ColLower = make([]float64, numCols)
	lp.ColUpper = make([]float64, numCols)
	for j := range numCols {
		lp.VarTypes[j] = highs.IntegerType
		lp.ColUpper[j] = 1
	}

	rows := form.Rows()
	lp.RowLower = make([]float64, len(rows))
	lp.RowUpper = make([]float64, len(rows))
	for i, row := range rows {
		for _, t := range row.Terms {
			lp.ConstMatrix = append(lp.ConstMatrix, highs.Nonzero{Row: i, Col: t.Col, Val: t.Val})
		}
		lp.RowUpper[i] = row.RHS
		if row.Sense == uflp.SenseEQ {
			lp.RowLower[i] = row.RHS
		} else {
			lp.RowLower[i] = math.Inf(-1)
		}
	}
	return lp
}

func (s *session) Solve(ctx context.Context, form *uflp.Formulation) (*uflp.Decision, error) {
	if s.closed {
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, fmt.Errorf("session closed"))
	}
	if err := ctx.Err(); err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonTimeout, err)
	}

	solution, err := Model(form).Solve()
	if err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, err)
	}
	switch solution.Status {
	case highs.Optimal:
	case highs.Infeasible:
		return nil, uflp.NewOracleError(uflp.ReasonInfeasible, fmt.Errorf("status: %v", solution.Status.String()))
	default:
		return nil, uflp.NewOracleError(uflp.ReasonSolverError, fmt.Errorf("status: %v", solution.Status.String()))
	}
	// HiGHS cannot be interrupted from here; a solve that outlived the
	// deadline is still reported as one.
	if err := ctx.Err(); err != nil {
		return nil, uflp.NewOracleError(uflp.ReasonTimeout, err)
	}
	return form.DecisionFromColumns(solution.ColumnPrimal, solution.Objective)
}

func (s *session) Close() error {
	s.closed = true
	return nil
}
