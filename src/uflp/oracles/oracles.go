// Package oracles maps oracle names to their implementations.
package oracles

import (
	"fmt"

	"facility_location/src/uflp"
	"facility_location/src/uflp/highsoracle"
	"facility_location/src/uflp/lpsolve"
)

// Names lists the accepted oracle names, the built-in one first.
var Names = []string{uflp.OracleBranchAndBound, highsoracle.Name, lpsolve.Name}

// ByName returns the oracle called name.
func ByName(name string) (uflp.Oracle, error) {
	switch name {
	case "", uflp.OracleBranchAndBound:
		return &uflp.BranchAndBound{}, nil
	case highsoracle.Name:
		return highsoracle.Oracle{}, nil
	case lpsolve.Name:
		return lpsolve.Oracle{}, nil
	}
	return nil, fmt.Errorf("%w: unknown oracle %q, want one of %v", uflp.ErrInvalidParameter, name, Names)
}
