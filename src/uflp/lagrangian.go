package uflp

import "math"

const (
	subgradBaseStep  = 2.0
	subgradCoeffStep = 0.6
	subgradMinStep   = 1e-4
	subgradMaxIter   = 100
	// subgradPatience is the number of rounds without improvement after
	// which the step shrinks.
	subgradPatience = 5
)

// lagrangeanPrimal solves the problem with the assignment rows moved into the
// objective with multipliers lambda. Every facility whose reduced cost is
// negative opens, and at least one facility always does. It returns the
// Lagrangean value and the open facilities.
func (form *Formulation) lagrangeanPrimal(fixed []int8, lambda []float64) (float64, []bool) {
	value := 0.0
	for _, l := range lambda {
		value += l
	}
	open := make([]bool, form.numFacilities)
	anyOpen := false
	cheapest, cheapestRho := -1, math.Inf(1)
	for f, v := range fixed {
		if v == fixedClosed {
			continue
		}
		rho := form.Cost(f)
		for c, l := range lambda {
			rho += math.Min(0, form.Dist(c, f)-l)
		}
		if v == fixedOpen || rho < 0 {
			open[f] = true
			anyOpen = true
			value += rho
			continue
		}
		if rho < cheapestRho {
			cheapest, cheapestRho = f, rho
		}
	}
	if !anyOpen && cheapest >= 0 {
		open[cheapest] = true
		value += cheapestRho
	}
	return value, open
}

// lagrangeanBound runs the subgradient method on the multipliers of the
// assignment rows, stepping towards upper. The result is a lower bound on
// the objective of every decision compatible with fixed, +Inf when fixed
// closes every facility.
func (form *Formulation) lagrangeanBound(fixed []int8, upper float64) float64 {
	lambda := make([]float64, form.numClients)
	for c := range lambda {
		lambda[c] = math.Inf(1)
		for f, v := range fixed {
			if v != fixedClosed {
				lambda[c] = math.Min(lambda[c], form.Dist(c, f))
			}
		}
		if math.IsInf(lambda[c], 1) {
			return math.Inf(1)
		}
	}

	best := math.Inf(-1)
	step := subgradBaseStep
	noImprovementRounds := 0
	violations := make([]float64, form.numClients)

	for range subgradMaxIter {
		value, open := form.lagrangeanPrimal(fixed, lambda)
		if value > best+eps {
			best = value
			noImprovementRounds = 0
		} else {
			noImprovementRounds++
			if noImprovementRounds == subgradPatience {
				step *= subgradCoeffStep
				noImprovementRounds = 0
			}
		}
		if best >= upper-eps || step < subgradMinStep || math.IsInf(upper, 1) {
			break
		}

		norm := 0.0
		for c := range violations {
			served := 0.0
			for f, o := range open {
				if o && form.Dist(c, f) < lambda[c] {
					served++
				}
			}
			violations[c] = 1 - served
			norm += violations[c] * violations[c]
		}
		// Every client served exactly once: the relaxed solution is feasible
		// and value cannot improve.
		if norm == 0 {
			break
		}

		t := step * (upper - value) / norm
		for c := range lambda {
			lambda[c] += t * violations[c]
		}
	}
	return best
}
