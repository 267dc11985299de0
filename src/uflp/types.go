package uflp

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-8

// Location is a point of the unit square.
type Location struct {
	X, Y float64
}

// Instance is one randomly generated UFLP instance. Distance is the
// NumClients x NumFacilities matrix of squared Euclidean distances.
type Instance struct {
	Clients    []Location
	Facilities []Location
	OpenCosts  *mat.VecDense
	Distance   *mat.Dense
}

// Decision is the optimal assignment returned by an oracle.
type Decision struct {
	OpenFacility []int
	ServeClient  [][]int
	Objective    float64
}

// Sample pairs an instance with its optimal decision.
type Sample struct {
	Instance *Instance
	Decision *Decision
}

func (inst *Instance) NumClients() int {
	return len(inst.Clients)
}

func (inst *Instance) NumFacilities() int {
	return len(inst.Facilities)
}

// Validate checks that costs and distances agree with the location counts
// and are non-negative.
func (inst *Instance) Validate() error {
	numClients, numFacilities := inst.NumClients(), inst.NumFacilities()
	if numClients == 0 || numFacilities == 0 {
		return fmt.Errorf("%w: instance needs at least one client and one facility, got %d and %d",
			ErrInvalidParameter, numClients, numFacilities)
	}
	if inst.OpenCosts == nil || inst.OpenCosts.Len() != numFacilities {
		return fmt.Errorf("%w: opening costs do not match %d facilities", ErrDimensionMismatch, numFacilities)
	}
	if inst.Distance == nil {
		return fmt.Errorf("%w: missing distance matrix", ErrDimensionMismatch)
	}
	if r, c := inst.Distance.Dims(); r != numClients || c != numFacilities {
		return fmt.Errorf("%w: distance matrix is %dx%d, want %dx%d",
			ErrDimensionMismatch, r, c, numClients, numFacilities)
	}
	for c := range numClients {
		for f := range numFacilities {
			if !(inst.Distance.At(c, f) >= 0) {
				return fmt.Errorf("%w: distance[%d][%d] = %v", ErrInvalidParameter, c, f, inst.Distance.At(c, f))
			}
		}
	}
	return nil
}

// Formulation builds the MILP of the instance.
func (inst *Instance) Formulation() (*Formulation, error) {
	return NewFormulation(inst.OpenCosts, inst.Distance)
}

func (dec *Decision) NumOpen() int {
	n := 0
	for _, o := range dec.OpenFacility {
		n += o
	}
	return n
}

func (dec *Decision) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("Total cost: %f\n", dec.Objective))
	s.WriteString("Open facilities: [ ")
	for f, o := range dec.OpenFacility {
		if o == 1 {
			s.WriteString(fmt.Sprint(f))
			s.WriteString(" ")
		}
	}
	s.WriteString("]\n")
	s.WriteString("Assignment: [ ")
	for c, row := range dec.ServeClient {
		for f, v := range row {
			if v == 1 {
				fmt.Fprintf(s, "%d->%d ", c, f)
			}
		}
	}
	s.WriteString("]")
	return s.String()
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("N. clients: %d\n", inst.NumClients()))
	s.WriteString(fmt.Sprintf("N. facilities: %d\n", inst.NumFacilities()))

	for f, loc := range inst.Facilities {
		s.WriteString(fmt.Sprintf("Facility %d: (%f, %f), ", f, loc.X, loc.Y))
		s.WriteString(fmt.Sprintf("Cost: %f\n", inst.OpenCosts.AtVec(f)))
	}
	for c, loc := range inst.Clients {
		s.WriteString(fmt.Sprintf("Client %d: (%f, %f)\n", c, loc.X, loc.Y))
	}
	return s.String()
}
