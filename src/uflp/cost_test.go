package uflp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCostPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want CostPolicy
	}{
		{"", ConstantCost{Value: DefaultOpenCost}},
		{"0.5", ConstantCost{Value: 0.5}},
		{"constant:0.1", ConstantCost{Value: 0.1}},
		{" constant: 2 ", ConstantCost{Value: 2}},
		{"uniform:0.05,0.2", UniformCost{Min: 0.05, Max: 0.2}},
		{"uniform:1, 1", UniformCost{Min: 1, Max: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCostPolicy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// String is accepted back.
			again, err := ParseCostPolicy(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	for _, in := range []string{"constant:-1", "constant:x", "uniform:0.2", "uniform:0.3,0.1", "uniform:-1,1", "normal:0,1"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCostPolicy(in)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestCostPolicies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, []float64{0.1, 0.1, 0.1}, ConstantCost{Value: 0.1}.OpeningCosts(rng, 3))

	costs := UniformCost{Min: 0.05, Max: 0.2}.OpeningCosts(rng, 50)
	require.Len(t, costs, 50)
	for _, c := range costs {
		assert.True(t, c >= 0.05 && c < 0.2, "cost %v", c)
	}
}
