package lpsolve

import (
	"context"
	"math/rand"
	"testing"

	"facility_location/src/uflp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smallFormulation(t *testing.T) *uflp.Formulation {
	t.Helper()
	costs := mat.NewVecDense(3, []float64{0.1, 0.1, 0.1})
	distance := mat.NewDense(2, 3, []float64{
		0.0, 0.5, 0.9,
		0.4, 0.0, 0.2,
	})
	form, err := uflp.NewFormulation(costs, distance)
	require.NoError(t, err)
	return form
}

func TestModel(t *testing.T) {
	form := smallFormulation(t)
	lp, err := Model(form)
	require.NoError(t, err)

	assert.Equal(t, 9, lp.NumCols())
	// 2 assignment rows, 6 linking rows and one open bound per facility.
	assert.Equal(t, 8+3, lp.NumRows())
}

func TestSolveMatchesBranchAndBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inst, err := uflp.NewInstance(rng, uflp.ConstantCost{Value: uflp.DefaultOpenCost}, 5, 6)
	require.NoError(t, err)
	form, err := inst.Formulation()
	require.NoError(t, err)

	session, err := Oracle{}.Open()
	require.NoError(t, err)
	defer session.Close()
	got, err := session.Solve(context.Background(), form)
	require.NoError(t, err)
	require.NoError(t, form.CheckFeasible(got))

	bnb, err := (&uflp.BranchAndBound{}).Open()
	require.NoError(t, err)
	defer bnb.Close()
	want, err := bnb.Solve(context.Background(), form)
	require.NoError(t, err)

	// The MIP gap tolerance of the backend allows a slightly worse incumbent.
	assert.InDelta(t, want.Objective, form.Evaluate(got), 1e-3)
	assert.GreaterOrEqual(t, form.Evaluate(got), want.Objective-1e-6)
}

func TestSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := Oracle{}.Open()
	require.NoError(t, err)
	_, err = session.Solve(ctx, smallFormulation(t))

	var oracleErr *uflp.OracleError
	require.ErrorAs(t, err, &oracleErr)
	assert.Equal(t, uflp.ReasonTimeout, oracleErr.Reason)
}
