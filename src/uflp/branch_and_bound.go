package uflp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

const (
	fixedFree int8 = iota
	fixedOpen
	fixedClosed
)

const (
	simplexTol   = 1e-10
	integralTol  = 1e-6
	fractionalUB = 1 - integralTol
)

// BranchAndBound is a self-contained exact oracle. It branches on the open
// variables best-first. Every node is first bounded by the Lagrangean
// relaxation of the assignment rows, then by the LP relaxation of the
// formulation.
type BranchAndBound struct {
	// MaxNodes caps the number of explored nodes; zero means no cap.
	MaxNodes int
}

type bbSession struct {
	maxNodes int
}

type bbNode struct {
	Fixed     []int8
	DualBound float64
}

type relaxation struct {
	Value      float64
	Open       []float64
	Infeasible bool
	Failed     bool
}

func (bb *BranchAndBound) Open() (Session, error) {
	return &bbSession{maxNodes: bb.MaxNodes}, nil
}

func (s *bbSession) Close() error {
	return nil
}

func nodeChildren(node *bbNode, f int, bound float64) []*bbNode {
	children := make([]*bbNode, 0, 2)
	for _, v := range []int8{fixedOpen, fixedClosed} {
		fixed := slices.Clone(node.Fixed)
		fixed[f] = v
		children = append(children, &bbNode{Fixed: fixed, DualBound: bound})
	}
	return children
}

func (s *bbSession) Solve(ctx context.Context, form *Formulation) (*Decision, error) {
	if form == nil {
		return nil, NewOracleError(ReasonSolverError, errors.New("nil formulation"))
	}
	root := &bbNode{
		Fixed:     make([]int8, form.NumFacilities()),
		DualBound: math.Inf(-1),
	}
	best := form.greedyOpen(root.Fixed)

	pq := priorityqueue.New[*bbNode, float64](priorityqueue.MinHeap)
	pq.Put(root, root.DualBound)

	explored := 0
	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, NewOracleError(ReasonTimeout, err)
		}
		node := pq.Get().Value
		if node.DualBound >= best.Objective-eps {
			continue
		}
		explored++
		if s.maxNodes > 0 && explored > s.maxNodes {
			return nil, NewOracleError(ReasonSolverError, fmt.Errorf("node limit %d reached", s.maxNodes))
		}

		lagrange := form.lagrangeanBound(node.Fixed, best.Objective)
		if lagrange >= best.Objective-eps {
			continue
		}
		relax := form.relax(node.Fixed)
		if relax.Infeasible {
			continue
		}
		bound := math.Max(node.DualBound, lagrange)
		if !relax.Failed {
			bound = math.Max(bound, relax.Value)
		}
		if bound >= best.Objective-eps {
			continue
		}

		if sol := form.greedyOpen(node.Fixed); sol != nil && sol.Objective < best.Objective {
			best = sol
		}

		var branchOn int
		if relax.Failed {
			branchOn = slices.Index(node.Fixed, fixedFree)
		} else {
			branchOn = mostFractional(node.Fixed, relax.Open)
			if branchOn < 0 {
				open := make([]bool, len(node.Fixed))
				for f := range open {
					open[f] = node.Fixed[f] == fixedOpen || (node.Fixed[f] == fixedFree && relax.Open[f] > 0.5)
				}
				if sol := form.assignNearest(open); sol != nil && sol.Objective < best.Objective {
					best = sol
				}
				continue
			}
		}
		if branchOn < 0 {
			continue
		}

		for _, child := range nodeChildren(node, branchOn, bound) {
			if child.DualBound < best.Objective-eps {
				pq.Put(child, child.DualBound)
			}
		}
	}

	return best, nil
}

// mostFractional returns the free facility whose relaxed open value is the
// closest to 1/2, or -1 when all free values are integral.
func mostFractional(fixed []int8, open []float64) int {
	branchOn := -1
	dist := math.Inf(1)
	for f, v := range fixed {
		if v != fixedFree {
			continue
		}
		y := open[f]
		if y <= integralTol || y >= fractionalUB {
			continue
		}
		if d := math.Abs(y - 0.5); d < dist {
			branchOn, dist = f, d
		}
	}
	return branchOn
}

// relax solves the LP relaxation of the formulation with the fixed open
// variables substituted out. In standard form the columns are, in order:
// open[f] for free f, serve[c][f] for every client and non-closed f, a slack
// for every linking row and a slack for every open[f] <= 1 row.
func (form *Formulation) relax(fixed []int8) relaxation {
	var free, usable []int
	constant := 0.0
	for f, v := range fixed {
		switch v {
		case fixedFree:
			free = append(free, f)
			usable = append(usable, f)
		case fixedOpen:
			usable = append(usable, f)
			constant += form.Cost(f)
		}
	}
	if len(usable) == 0 {
		return relaxation{Infeasible: true}
	}
	open := make([]float64, form.numFacilities)
	for f, v := range fixed {
		if v == fixedOpen {
			open[f] = 1
		}
	}
	if len(free) == 0 {
		dec := form.assignNearest(open2bool(open))
		return relaxation{Value: dec.Objective, Open: open}
	}

	numClients := form.numClients
	numFree, numUsable := len(free), len(usable)
	yCol := func(i int) int { return i }
	xCol := func(c, j int) int { return numFree + c*numUsable + j }
	sCol := func(c, i int) int { return numFree + numClients*numUsable + c*numFree + i }
	tCol := func(i int) int { return numFree + numClients*numUsable + numClients*numFree + i }
	numCols := 2*numFree + numClients*numUsable + numClients*numFree
	numRows := numClients + numClients*numFree + numFree

	cost := make([]float64, numCols)
	for i, f := range free {
		cost[yCol(i)] = form.Cost(f)
	}
	for c := range numClients {
		for j, f := range usable {
			cost[xCol(c, j)] = form.Dist(c, f)
		}
	}

	A := mat.NewDense(numRows, numCols, nil)
	b := make([]float64, numRows)
	row := 0
	for c := range numClients {
		for j := range usable {
			A.Set(row, xCol(c, j), 1)
		}
		b[row] = 1
		row++
	}
	for c := range numClients {
		for j, f := range usable {
			i := slices.Index(free, f)
			if i < 0 {
				continue
			}
			A.Set(row, xCol(c, j), 1)
			A.Set(row, yCol(i), -1)
			A.Set(row, sCol(c, i), 1)
			row++
		}
	}
	for i := range free {
		A.Set(row, yCol(i), 1)
		A.Set(row, tCol(i), 1)
		b[row] = 1
		row++
	}

	optF, optX, err := lp.Simplex(cost, A, b, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return relaxation{Infeasible: true}
		}
		return relaxation{Failed: true}
	}
	for i, f := range free {
		open[f] = math.Min(1, math.Max(0, optX[yCol(i)]))
	}
	return relaxation{Value: optF + constant, Open: open}
}

func open2bool(open []float64) []bool {
	out := make([]bool, len(open))
	for f, v := range open {
		out[f] = v > 0.5
	}
	return out
}
