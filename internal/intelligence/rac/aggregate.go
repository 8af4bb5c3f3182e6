package rac

import (
	"strconv"
	"strings"

	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"gonum.org/v1/gonum/mat"
)

// FeatureVector is a labeled descriptor vector. Values and Labels are
// index-aligned.
type FeatureVector struct {
	Values []float64
	Labels []string
}

// Len returns the number of features.
func (f FeatureVector) Len() int { return len(f.Values) }

// Append concatenates o onto f.
func (f *FeatureVector) Append(o FeatureVector) {
	f.Values = append(f.Values, o.Values...)
	f.Labels = append(f.Labels, o.Labels...)
}

// Get returns the value labeled label.
func (f FeatureVector) Get(label string) (float64, bool) {
	for i, l := range f.Labels {
		if l == label {
			return f.Values[i], true
		}
	}
	return 0, false
}

// Map returns the features keyed by label.
func (f FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(f.Labels))
	for i, l := range f.Labels {
		m[l] = f.Values[i]
	}
	return m
}

// FeatureLabel renders "{prop}-{depth}-{molStat}" with a "-{atomStat}"
// suffix when withAtomStat is set.
func FeatureLabel(prop string, depth int, molStat, atomStat Statistic, withAtomStat bool) string {
	var b strings.Builder
	b.WriteString(prop)
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(depth))
	b.WriteByte('-')
	b.WriteString(molStat.String())
	if withAtomStat {
		b.WriteByte('-')
		b.WriteString(atomStat.String())
	}
	return b.String()
}

// Aggregate runs AtomAutocorrelation for every atom of the canonical graph g
// and reduces the stacked n × (depth+1) × k tensor over the atom axis with
// each molecular statistic. Output order is molecular statistic, then depth,
// then atom statistic, all in caller order.
func Aggregate(g *molecule.Graph, vec PropertyVector, label string, depth int, atomStats, molStats []Statistic) FeatureVector {
	n := g.NumNodes()
	atoms := make([]*mat.Dense, n)
	for i := 0; i < n; i++ {
		atoms[i] = AtomAutocorrelation(g, i, vec, depth, atomStats)
	}

	size := (depth + 1) * len(atomStats) * len(molStats)
	fv := FeatureVector{
		Values: make([]float64, 0, size),
		Labels: make([]string, 0, size),
	}
	suffix := len(atomStats) > 1
	column := make([]float64, n)
	for _, ms := range molStats {
		for d := 0; d <= depth; d++ {
			for k, as := range atomStats {
				for i, m := range atoms {
					column[i] = m.At(d, k)
				}
				fv.Values = append(fv.Values, ms.Apply(column))
				fv.Labels = append(fv.Labels, FeatureLabel(label, d, ms, as, suffix))
			}
		}
	}
	return fv
}
