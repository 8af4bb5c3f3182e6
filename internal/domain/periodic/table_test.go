package periodic

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

func TestDefaultTable_CarbonAndHydrogen(t *testing.T) {
	table := DefaultTable()

	c, err := table.Lookup("C")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Z)
	assert.Equal(t, 2, c.Row())
	assert.Equal(t, 14, c.Group())
	assert.InDelta(t, 2.55, c.Electronegativity, 1e-12)
	assert.InDelta(t, 12.0107, c.AtomicMass, 1e-12)
	assert.InDelta(t, 1.262113612, c.ElectronAffinity, 1e-12)
	assert.InDelta(t, 11.260288, c.IonizationEnergy, 1e-12)
	assert.Equal(t, -4, c.MinOxidationState)
	assert.Equal(t, 4, c.MaxOxidationState)
	assert.InDelta(t, 0.7, c.AtomicRadius, 1e-12)

	h, err := table.Lookup("H")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Z)
	assert.Equal(t, 1, h.Row())
	assert.Equal(t, 1, h.Group())
	assert.InDelta(t, 2.20, h.Electronegativity, 1e-12)
	assert.InDelta(t, 1.00794, h.AtomicMass, 1e-12)
	assert.InDelta(t, 0.754598, h.ElectronAffinity, 1e-12)
	assert.InDelta(t, 13.598434599702, h.IonizationEnergy, 1e-12)
	assert.Equal(t, -1, h.MinOxidationState)
	assert.Equal(t, 1, h.MaxOxidationState)
	assert.InDelta(t, 0.25, h.AtomicRadius, 1e-12)
}

func TestDefaultTable_IsSortedAndUnique(t *testing.T) {
	elements := DefaultTable().Elements()
	require.NotEmpty(t, elements)
	seen := map[string]bool{}
	for i, e := range elements {
		assert.False(t, seen[e.Symbol], "duplicate %s", e.Symbol)
		seen[e.Symbol] = true
		if i > 0 {
			assert.Less(t, elements[i-1].Z, e.Z)
		}
	}
	assert.Equal(t, len(elements), DefaultTable().Len())
}

func TestNobleGasElectronegativityIsNaN(t *testing.T) {
	ne, err := DefaultTable().Lookup("Ne")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ne.Electronegativity))
	assert.False(t, IsDefined(ne.Electronegativity))
	assert.True(t, IsDefined(ne.IonizationEnergy))
}

func TestRowAndGroup(t *testing.T) {
	cases := []struct {
		symbol     string
		row, group int
	}{
		{"He", 1, 18},
		{"Na", 3, 1},
		{"Cl", 3, 17},
		{"Fe", 4, 8},
		{"Kr", 4, 18},
		{"Cs", 6, 1},
		{"La", 8, 3},
		{"Hf", 6, 4},
		{"Pt", 6, 10},
		{"Rn", 6, 18},
		{"Ce", 8, 3},
		{"Lu", 8, 3},
		{"Ra", 7, 2},
		{"Ac", 9, 3},
		{"Lr", 9, 3},
	}
	for _, tc := range cases {
		t.Run(tc.symbol, func(t *testing.T) {
			e, err := DefaultTable().Lookup(tc.symbol)
			require.NoError(t, err)
			assert.Equal(t, tc.row, e.Row())
			assert.Equal(t, tc.group, e.Group())
		})
	}
}

func TestLookup_IsCaseSensitive(t *testing.T) {
	for _, sym := range []string{"c", "se", "fe", "CL", "FE"} {
		_, err := DefaultTable().Lookup(sym)
		assert.ErrorIs(t, err, ErrUnknownElement, sym)
	}
}

func TestDefaultTable_FBlock(t *testing.T) {
	table := DefaultTable()
	for z := 1; z <= 103; z++ {
		found := false
		for _, e := range table.Elements() {
			if e.Z == z {
				found = true
				break
			}
		}
		assert.True(t, found, "Z=%d missing", z)
	}

	gd, err := table.Lookup("Gd")
	require.NoError(t, err)
	assert.Equal(t, 64, gd.Z)
	assert.Equal(t, 8, gd.Row())
	assert.Equal(t, 3, gd.Group())
	assert.InDelta(t, 157.25, gd.AtomicMass, 1e-9)
	assert.InDelta(t, 1.2, gd.Electronegativity, 1e-9)

	u, err := table.Lookup("U")
	require.NoError(t, err)
	assert.Equal(t, 92, u.Z)
	assert.Equal(t, 9, u.Row())
	assert.Equal(t, 3, u.Group())
	assert.Equal(t, 6, u.MaxOxidationState)

	fr, err := table.Lookup("Fr")
	require.NoError(t, err)
	assert.Equal(t, 7, fr.Row())
	assert.Equal(t, 1, fr.Group())
	assert.True(t, math.IsNaN(fr.AtomicRadius))
}

func TestLookup_Unknown(t *testing.T) {
	_, err := DefaultTable().Lookup("Xx")
	require.Error(t, err)

	var unknown *UnknownElementError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Xx", unknown.Symbol)
	assert.ErrorIs(t, err, ErrUnknownElement)
	assert.Equal(t, apperrors.ErrCodeUnknownElement, apperrors.GetCode(err))

	assert.False(t, DefaultTable().Has(""))
	assert.False(t, DefaultTable().Has("CL"))
}

func TestLoadTable_Errors(t *testing.T) {
	_, err := LoadTable([]byte("elements: []"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeElementTableInvalid))

	_, err = LoadTable([]byte("elements:\n  - {symbol: X, z: 0}\n"))
	assert.Error(t, err)

	_, err = LoadTable([]byte("elements:\n  - {symbol: X, z: 1}\n  - {symbol: X, z: 2}\n"))
	assert.Error(t, err)

	_, err = LoadTable([]byte("elements: {"))
	assert.Error(t, err)
}

func TestLoadTable_Custom(t *testing.T) {
	table, err := LoadTable([]byte(`
elements:
  - {symbol: "Q", name: Quux, z: 200, atomic_mass: 1.5, electronegativity: .nan}
`))
	require.NoError(t, err)
	q, err := table.Lookup("Q")
	require.NoError(t, err)
	assert.Equal(t, 1.5, q.AtomicMass)
	assert.True(t, math.IsNaN(q.Electronegativity))
}
