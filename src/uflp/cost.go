package uflp

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// DefaultOpenCost is the opening cost the generator assigns to every facility
// unless configured otherwise.
const DefaultOpenCost = 0.1

// CostPolicy generates the opening costs of an instance.
type CostPolicy interface {
	OpeningCosts(rng *rand.Rand, n int) []float64
	String() string
}

// ConstantCost opens every facility at the same price.
type ConstantCost struct {
	Value float64
}

func (p ConstantCost) OpeningCosts(_ *rand.Rand, n int) []float64 {
	costs := make([]float64, n)
	for i := range costs {
		costs[i] = p.Value
	}
	return costs
}

func (p ConstantCost) String() string {
	return "constant:" + strconv.FormatFloat(p.Value, 'g', -1, 64)
}

// UniformCost draws every opening cost from [Min, Max).
type UniformCost struct {
	Min, Max float64
}

func (p UniformCost) OpeningCosts(rng *rand.Rand, n int) []float64 {
	costs := make([]float64, n)
	for i := range costs {
		costs[i] = p.Min + (p.Max-p.Min)*rng.Float64()
	}
	return costs
}

func (p UniformCost) String() string {
	return fmt.Sprintf("uniform:%s,%s",
		strconv.FormatFloat(p.Min, 'g', -1, 64), strconv.FormatFloat(p.Max, 'g', -1, 64))
}

// ParseCostPolicy reads "constant:<v>" or "uniform:<min>,<max>". A bare
// number is a constant policy and the empty string the default one.
func ParseCostPolicy(s string) (CostPolicy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ConstantCost{Value: DefaultOpenCost}, nil
	}
	kind, args, found := strings.Cut(s, ":")
	if !found {
		kind, args = "constant", s
	}

	switch kind {
	case "constant":
		v, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cost policy %q: %v", ErrInvalidParameter, s, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: cost policy %q: negative cost", ErrInvalidParameter, s)
		}
		return ConstantCost{Value: v}, nil
	case "uniform":
		lo, hi, ok := strings.Cut(args, ",")
		if !ok {
			return nil, fmt.Errorf("%w: cost policy %q: want uniform:<min>,<max>", ErrInvalidParameter, s)
		}
		minV, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cost policy %q: %v", ErrInvalidParameter, s, err)
		}
		maxV, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cost policy %q: %v", ErrInvalidParameter, s, err)
		}
		if minV < 0 || maxV < minV {
			return nil, fmt.Errorf("%w: cost policy %q: want 0 <= min <= max", ErrInvalidParameter, s)
		}
		return UniformCost{Min: minV, Max: maxV}, nil
	default:
		return nil, fmt.Errorf("%w: unknown cost policy %q", ErrInvalidParameter, kind)
	}
}
