package uflp

import (
	"context"
	"fmt"
	"strings"
)

// Summary describes the records of a dataset.
type Summary struct {
	Records       int
	Shapes        map[[2]int]int
	MeanOpen      float64
	MeanObjective float64
}

func Summarize(samples []*Sample) *Summary {
	sum := &Summary{Records: len(samples), Shapes: make(map[[2]int]int)}
	if len(samples) == 0 {
		return sum
	}
	for _, s := range samples {
		sum.Shapes[[2]int{s.Instance.NumClients(), s.Instance.NumFacilities()}]++
		sum.MeanOpen += float64(s.Decision.NumOpen())
		sum.MeanObjective += s.Decision.Objective
	}
	sum.MeanOpen /= float64(len(samples))
	sum.MeanObjective /= float64(len(samples))
	return sum
}

func (sum *Summary) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Records: %d\n", sum.Records)
	for shape, n := range sum.Shapes {
		fmt.Fprintf(s, "Clients x facilities %dx%d: %d\n", shape[0], shape[1], n)
	}
	fmt.Fprintf(s, "Mean open facilities: %f\n", sum.MeanOpen)
	fmt.Fprintf(s, "Mean total cost: %f", sum.MeanObjective)
	return s.String()
}

// Mismatch is a record whose stored decision is not optimal for its
// instance according to a verifying oracle.
type Mismatch struct {
	Index    int
	Stored   float64
	Verified float64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("record %d: stored cost %f, oracle cost %f", m.Index, m.Stored, m.Verified)
}

// Verify re-solves every sample with session and returns the records whose
// stored objective differs from the oracle's by more than tol. Features are
// stored with six significant digits, so tol should allow for rounding.
func Verify(ctx context.Context, session Session, samples []*Sample, tol float64) ([]Mismatch, error) {
	var mismatches []Mismatch
	for i, s := range samples {
		form, err := s.Instance.Formulation()
		if err != nil {
			return mismatches, &SampleError{Index: i, Stage: StageFormulate, Err: err}
		}
		if err := form.CheckFeasible(s.Decision); err != nil {
			return mismatches, &SampleError{Index: i, Stage: StageSolve, Err: err}
		}
		dec, err := session.Solve(ctx, form)
		if err != nil {
			return mismatches, &SampleError{Index: i, Stage: StageSolve, Err: err}
		}
		stored, verified := form.Evaluate(s.Decision), form.Evaluate(dec)
		if stored-verified > tol {
			mismatches = append(mismatches, Mismatch{Index: i, Stored: stored, Verified: verified})
		}
	}
	return mismatches, nil
}
