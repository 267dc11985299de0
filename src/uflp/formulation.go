package uflp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type Sense int

const (
	SenseEQ Sense = iota
	SenseLE
)

type Term struct {
	Col int
	Val float64
}

// Row is one linear constraint: sum(Terms) Sense RHS.
type Row struct {
	Terms []Term
	Sense Sense
	RHS   float64
}

// Formulation is the UFLP mixed-integer program
//
//	min  sum_f cost[f]*open[f] + sum_c sum_f dist[c][f]*serve[c][f]
//	s.t. sum_f serve[c][f] = 1            for every client c
//	     serve[c][f] - open[f] <= 0       for every client c, facility f
//	     open, serve binary
//
// Column f holds open[f]; column F + c*F + f holds serve[c][f]. It is fully
// determined by the opening costs and the distance matrix.
type Formulation struct {
	numClients    int
	numFacilities int
	costs         *mat.VecDense
	distance      *mat.Dense
}

// NewFormulation copies costOpen and distance into a new formulation.
func NewFormulation(costOpen *mat.VecDense, distance *mat.Dense) (*Formulation, error) {
	if costOpen == nil || costOpen.Len() == 0 {
		return nil, fmt.Errorf("%w: no facility opening costs", ErrInvalidParameter)
	}
	if distance == nil {
		return nil, fmt.Errorf("%w: no distance matrix", ErrInvalidParameter)
	}
	numClients, numFacilities := distance.Dims()
	if numFacilities != costOpen.Len() {
		return nil, fmt.Errorf("%w: distance rows have %d entries, %d opening costs",
			ErrDimensionMismatch, numFacilities, costOpen.Len())
	}
	for f := range numFacilities {
		if v := costOpen.AtVec(f); !(v >= 0) || math.IsInf(v, 1) {
			return nil, fmt.Errorf("%w: opening cost[%d] = %v", ErrInvalidParameter, f, v)
		}
	}
	for c := range numClients {
		for f := range numFacilities {
			if v := distance.At(c, f); !(v >= 0) || math.IsInf(v, 1) {
				return nil, fmt.Errorf("%w: distance[%d][%d] = %v", ErrInvalidParameter, c, f, v)
			}
		}
	}

	form := &Formulation{
		numClients:    numClients,
		numFacilities: numFacilities,
		costs:         mat.NewVecDense(numFacilities, nil),
		distance:      mat.NewDense(numClients, numFacilities, nil),
	}
	form.costs.CloneFromVec(costOpen)
	form.distance.Copy(distance)
	return form, nil
}

func (form *Formulation) NumClients() int    { return form.numClients }
func (form *Formulation) NumFacilities() int { return form.numFacilities }
func (form *Formulation) NumCols() int       { return form.numFacilities * (1 + form.numClients) }
func (form *Formulation) NumRows() int       { return form.numClients * (1 + form.numFacilities) }

func (form *Formulation) OpenCol(f int) int { return f }

func (form *Formulation) ServeCol(c, f int) int {
	return form.numFacilities + c*form.numFacilities + f
}

func (form *Formulation) Cost(f int) float64    { return form.costs.AtVec(f) }
func (form *Formulation) Dist(c, f int) float64 { return form.distance.At(c, f) }

// Objective returns the cost coefficient of every column.
func (form *Formulation) Objective() []float64 {
	obj := make([]float64, form.NumCols())
	for f := range form.numFacilities {
		obj[form.OpenCol(f)] = form.Cost(f)
	}
	for c := range form.numClients {
		for f := range form.numFacilities {
			obj[form.ServeCol(c, f)] = form.Dist(c, f)
		}
	}
	return obj
}

// Rows returns the assignment rows, one per client, followed by the linking
// rows in client-major order.
func (form *Formulation) Rows() []Row {
	rows := make([]Row, 0, form.NumRows())
	for c := range form.numClients {
		terms := make([]Term, form.numFacilities)
		for f := range form.numFacilities {
			terms[f] = Term{Col: form.ServeCol(c, f), Val: 1}
		}
		rows = append(rows, Row{Terms: terms, Sense: SenseEQ, RHS: 1})
	}
	for c := range form.numClients {
		for f := range form.numFacilities {
			rows = append(rows, Row{
				Terms: []Term{
					{Col: form.ServeCol(c, f), Val: 1},
					{Col: form.OpenCol(f), Val: -1},
				},
				Sense: SenseLE,
				RHS:   0,
			})
		}
	}
	return rows
}

// Evaluate returns the objective value of dec.
func (form *Formulation) Evaluate(dec *Decision) float64 {
	total := 0.0
	for f, o := range dec.OpenFacility {
		total += form.Cost(f) * float64(o)
	}
	for c, row := range dec.ServeClient {
		for f, s := range row {
			total += form.Dist(c, f) * float64(s)
		}
	}
	return total
}

// CheckFeasible verifies the shape of dec and every constraint of the
// formulation.
func (form *Formulation) CheckFeasible(dec *Decision) error {
	if dec == nil {
		return fmt.Errorf("%w: nil decision", ErrMalformedDecision)
	}
	if len(dec.OpenFacility) != form.numFacilities {
		return fmt.Errorf("%w: %d open flags for %d facilities",
			ErrMalformedDecision, len(dec.OpenFacility), form.numFacilities)
	}
	if len(dec.ServeClient) != form.numClients {
		return fmt.Errorf("%w: %d serve rows for %d clients",
			ErrMalformedDecision, len(dec.ServeClient), form.numClients)
	}
	for f, o := range dec.OpenFacility {
		if o != 0 && o != 1 {
			return fmt.Errorf("%w: open[%d] = %d", ErrMalformedDecision, f, o)
		}
	}
	for c, row := range dec.ServeClient {
		if len(row) != form.numFacilities {
			return fmt.Errorf("%w: serve row %d has %d entries", ErrMalformedDecision, c, len(row))
		}
		served := 0
		for f, s := range row {
			if s != 0 && s != 1 {
				return fmt.Errorf("%w: serve[%d][%d] = %d", ErrMalformedDecision, c, f, s)
			}
			if s > dec.OpenFacility[f] {
				return fmt.Errorf("%w: client %d served by closed facility %d", ErrMalformedDecision, c, f)
			}
			served += s
		}
		if served != 1 {
			return fmt.Errorf("%w: client %d served %d times", ErrMalformedDecision, c, served)
		}
	}
	return nil
}

// DecisionFromColumns rounds a solver's column values into a Decision.
func (form *Formulation) DecisionFromColumns(cols []float64, objective float64) (*Decision, error) {
	if len(cols) < form.NumCols() {
		return nil, fmt.Errorf("%w: %d column values for %d columns",
			ErrMalformedDecision, len(cols), form.NumCols())
	}
	dec := &Decision{
		OpenFacility: make([]int, form.numFacilities),
		ServeClient:  make([][]int, form.numClients),
		Objective:    objective,
	}
	for f := range form.numFacilities {
		dec.OpenFacility[f] = binary(cols[form.OpenCol(f)])
	}
	for c := range form.numClients {
		dec.ServeClient[c] = make([]int, form.numFacilities)
		for f := range form.numFacilities {
			dec.ServeClient[c][f] = binary(cols[form.ServeCol(c, f)])
		}
	}
	return dec, nil
}

func binary(v float64) int {
	if v > 0.5 {
		return 1
	}
	return 0
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}
