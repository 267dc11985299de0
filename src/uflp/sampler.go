package uflp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Sampler builds one random instance at a time and labels it with the
// decision returned by its oracle session.
type Sampler struct {
	Rand    *rand.Rand
	Costs   CostPolicy
	Session Session
	// Timeout bounds a single Solve call; zero means no bound.
	Timeout time.Duration
	// OracleName labels the solve-time metric.
	OracleName string
}

// NewInstance draws client locations, then facility locations, then the
// opening costs, and derives the distance matrix.
func NewInstance(rng *rand.Rand, costs CostPolicy, numClient, numFacility int) (*Instance, error) {
	if numClient < 1 || numFacility < 1 {
		return nil, fmt.Errorf("%w: need at least one client and one facility, got %d and %d",
			ErrInvalidParameter, numClient, numFacility)
	}
	if costs == nil {
		costs = ConstantCost{Value: DefaultOpenCost}
	}
	clients, err := GenerateLocations(rng, numClient)
	if err != nil {
		return nil, err
	}
	facilities, err := GenerateLocations(rng, numFacility)
	if err != nil {
		return nil, err
	}
	openCosts := costs.OpeningCosts(rng, numFacility)
	if len(openCosts) != numFacility {
		return nil, fmt.Errorf("%w: cost policy %v returned %d costs for %d facilities",
			ErrDimensionMismatch, costs, len(openCosts), numFacility)
	}

	inst := &Instance{
		Clients:    clients,
		Facilities: facilities,
		OpenCosts:  mat.NewVecDense(numFacility, openCosts),
		Distance:   DistanceMatrix(clients, facilities),
	}
	return inst, inst.Validate()
}

// Sample generates an instance, solves it and checks the returned decision.
// Errors are *SampleError values carrying the failing stage; the index is
// left for the caller to fill in.
func (s *Sampler) Sample(ctx context.Context, numClient, numFacility int) (*Sample, error) {
	inst, err := NewInstance(s.Rand, s.Costs, numClient, numFacility)
	if err != nil {
		return nil, &SampleError{Stage: StageGenerate, Err: err}
	}
	form, err := inst.Formulation()
	if err != nil {
		return nil, &SampleError{Stage: StageFormulate, Err: err}
	}
	dec, err := s.solve(ctx, form)
	if err != nil {
		return nil, &SampleError{Stage: StageSolve, Err: err}
	}
	return &Sample{Instance: inst, Decision: dec}, nil
}

func (s *Sampler) solve(ctx context.Context, form *Formulation) (*Decision, error) {
	if s.Session == nil {
		return nil, NewOracleError(ReasonSolverError, fmt.Errorf("no oracle session"))
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	t := time.Now()
	dec, err := s.Session.Solve(ctx, form)
	observeSolve(s.OracleName, time.Since(t))
	if err != nil {
		var oracleErr *OracleError
		if !errors.As(err, &oracleErr) {
			err = NewOracleError(ReasonSolverError, err)
		}
		return nil, err
	}
	if err := form.CheckFeasible(dec); err != nil {
		return nil, err
	}
	return dec, nil
}
