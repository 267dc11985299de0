package uflp

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// defaultSeed replaces a zero seed, so an unconfigured run is reproducible.
const defaultSeed int64 = 1

// GenerateLocations draws n points with coordinates uniform in [0,1).
// x is drawn before y for every point.
func GenerateLocations(rng *rand.Rand, n int) ([]Location, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: location count %d", ErrInvalidParameter, n)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidParameter)
	}
	locations := make([]Location, n)
	for i := range locations {
		locations[i].X = rng.Float64()
		locations[i].Y = rng.Float64()
	}
	return locations, nil
}

// DistanceMatrix returns the len(clients) x len(facilities) matrix of squared
// Euclidean distances. It returns nil when either side is empty.
func DistanceMatrix(clients, facilities []Location) *mat.Dense {
	if len(clients) == 0 || len(facilities) == 0 {
		return nil
	}
	distance := mat.NewDense(len(clients), len(facilities), nil)
	for c, client := range clients {
		for f, facility := range facilities {
			dx := client.X - facility.X
			dy := client.Y - facility.Y
			distance.Set(c, f, dx*dx+dy*dy)
		}
	}
	return distance
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// deriveSeed mixes the run seed with a sample index (SplitMix64 finalizer),
// so every sample owns an independent stream whatever the worker count.
func deriveSeed(parent int64, stream uint64) int64 {
	if parent == 0 {
		parent = defaultSeed
	}
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
