package uflp

import (
	"math"

	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// assignNearest serves every client from its cheapest open facility. It
// returns nil when no facility is open.
func (form *Formulation) assignNearest(open []bool) *Decision {
	dec := &Decision{
		OpenFacility: make([]int, form.numFacilities),
		ServeClient:  make([][]int, form.numClients),
	}
	anyOpen := false
	for f, o := range open {
		if o {
			anyOpen = true
			dec.OpenFacility[f] = 1
			dec.Objective += form.Cost(f)
		}
	}
	if !anyOpen {
		return nil
	}
	for c := range form.numClients {
		best := -1
		for f := range form.numFacilities {
			if open[f] && (best < 0 || form.Dist(c, f) < form.Dist(c, best)) {
				best = f
			}
		}
		dec.ServeClient[c] = make([]int, form.numFacilities)
		dec.ServeClient[c][best] = 1
		dec.Objective += form.Dist(c, best)
	}
	return dec
}

// costWith returns the objective of opening open plus facility f, given the
// current cheapest service cost of every client.
func (form *Formulation) costWith(openCost float64, service []float64, f int) float64 {
	total := openCost + form.Cost(f)
	for c, s := range service {
		total += math.Min(s, form.Dist(c, f))
	}
	return total
}

// greedyOpen opens facilities one at a time, always the one that lowers the
// objective the most, until no addition improves it. It always opens at
// least one facility.
func (form *Formulation) greedyOpen(fixed []int8) *Decision {
	open := make([]bool, form.numFacilities)
	service := make([]float64, form.numClients)
	for c := range service {
		service[c] = math.Inf(1)
	}
	openCost := 0.0
	current := math.Inf(1)

	for f, v := range fixed {
		if v == fixedOpen {
			open[f] = true
			openCost += form.Cost(f)
			for c := range service {
				service[c] = math.Min(service[c], form.Dist(c, f))
			}
		}
	}
	if dec := form.assignNearest(open); dec != nil {
		current = dec.Objective
	}

	pq := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for f := range form.numFacilities {
		if !open[f] && fixed[f] == fixedFree {
			pq.Put(f, form.costWith(openCost, service, f))
		}
	}

	for pq.Len() > 0 {
		item := pq.Get()
		if item.Priority >= current-eps {
			break
		}
		open[item.Value] = true
		openCost += form.Cost(item.Value)
		for c := range service {
			service[c] = math.Min(service[c], form.Dist(c, item.Value))
		}
		current = item.Priority

		for f := range form.numFacilities {
			if !open[f] && fixed[f] == fixedFree {
				pq.Update(f, form.costWith(openCost, service, f))
			}
		}
	}

	return form.assignNearest(open)
}
