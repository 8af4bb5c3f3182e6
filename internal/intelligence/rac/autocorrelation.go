package rac

import (
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"gonum.org/v1/gonum/mat"
)

// AtomAutocorrelation computes the (depth+1) × len(stats) matrix of atom in
// the canonical graph g. Row d reduces the products vec[atom]*vec[j] over
// every atom j at shortest-path distance exactly d; distance 0 is the atom
// itself. A distance with no atoms yields 0 for every statistic.
func AtomAutocorrelation(g *molecule.Graph, atom int, vec PropertyVector, depth int, stats []Statistic) *mat.Dense {
	out := mat.NewDense(depth+1, len(stats), nil)
	levels := g.DistanceLevels(atom, depth)

	features := make([]float64, 0, g.NumNodes())
	for d, level := range levels {
		features = features[:0]
		for _, j := range level {
			features = append(features, vec[atom]*vec[j])
		}
		for k, s := range stats {
			out.Set(d, k, s.Apply(features))
		}
	}
	return out
}
