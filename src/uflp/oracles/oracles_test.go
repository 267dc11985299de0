package oracles

import (
	"testing"

	"facility_location/src/uflp"
	"facility_location/src/uflp/highsoracle"
	"facility_location/src/uflp/lpsolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want uflp.Oracle
	}{
		{"", &uflp.BranchAndBound{}},
		{"bnb", &uflp.BranchAndBound{}},
		{"highs", highsoracle.Oracle{}},
		{"lpsolve", lpsolve.Oracle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ByName(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := ByName("gurobi")
	assert.ErrorIs(t, err, uflp.ErrInvalidParameter)
}
