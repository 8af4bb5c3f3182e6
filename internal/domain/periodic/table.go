// Package periodic provides the atomic property data consulted by the
// descriptor engine. The default table is compiled into the binary from
// elements.yaml and is read-only, so it can be shared by concurrent
// computations.
package periodic

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed elements.yaml
var embeddedElements []byte

// ErrUnknownElement is matched by *UnknownElementError.
var ErrUnknownElement = errors.New("unknown element")

// UnknownElementError reports a symbol the data source does not know.
type UnknownElementError struct {
	Symbol string
}

func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown element symbol %q", e.Symbol)
}

// Is matches ErrUnknownElement.
func (e *UnknownElementError) Is(target error) bool { return target == ErrUnknownElement }

// ErrorCode implements apperrors.Coder.
func (e *UnknownElementError) ErrorCode() apperrors.ErrorCode { return apperrors.ErrCodeUnknownElement }

// Source looks up element data by symbol.
type Source interface {
	Lookup(symbol string) (*Element, error)
}

// Element is one row of the table. Values the table does not define are NaN.
type Element struct {
	Symbol            string  `yaml:"symbol" json:"symbol"`
	Name              string  `yaml:"name" json:"name"`
	Z                 int     `yaml:"z" json:"z"`
	AtomicMass        float64 `yaml:"atomic_mass" json:"atomic_mass"`
	Electronegativity float64 `yaml:"electronegativity" json:"electronegativity"`
	ElectronAffinity  float64 `yaml:"electron_affinity" json:"electron_affinity"`
	IonizationEnergy  float64 `yaml:"ionization_energy" json:"ionization_energy"`
	MinOxidationState int     `yaml:"min_oxidation_state" json:"min_oxidation_state"`
	MaxOxidationState int     `yaml:"max_oxidation_state" json:"max_oxidation_state"`
	AtomicRadius      float64 `yaml:"atomic_radius" json:"atomic_radius"`
}

// periodSizes is the number of elements in periods 1..7.
var periodSizes = []int{2, 8, 8, 18, 18, 32, 32}

// Row returns the periodic-table row. Lanthanides report 8 and actinides 9,
// matching their placement below the main table.
func (e *Element) Row() int {
	switch {
	case e.Z >= 57 && e.Z <= 71:
		return 8
	case e.Z >= 89 && e.Z <= 103:
		return 9
	}
	total := 0
	for i, size := range periodSizes {
		total += size
		if total >= e.Z {
			return i + 1
		}
	}
	return len(periodSizes)
}

// Group returns the IUPAC group (1-18); lanthanides and actinides are group 3.
func (e *Element) Group() int {
	z := e.Z
	switch {
	case z == 1:
		return 1
	case z == 2:
		return 18
	case z >= 3 && z <= 18:
		r := (z - 2) % 8
		if r == 0 {
			return 18
		}
		if r <= 2 {
			return r
		}
		return 10 + r
	case z >= 19 && z <= 54:
		r := (z - 18) % 18
		if r == 0 {
			return 18
		}
		return r
	}
	r := (z - 54) % 32
	switch {
	case r == 0:
		return 18
	case r >= 18:
		return r - 14
	case (z >= 57 && z <= 71) || (z >= 89 && z <= 103):
		return 3
	}
	return r
}

// Table is an in-memory Source.
type Table struct {
	bySymbol map[string]*Element
	ordered  []*Element
}

// LoadTable parses a YAML document with a top-level "elements" list.
func LoadTable(data []byte) (*Table, error) {
	var doc struct {
		Elements []*Element `yaml:"elements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeElementTableInvalid, "decode element table")
	}
	if len(doc.Elements) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeElementTableInvalid, "element table is empty")
	}

	t := &Table{bySymbol: make(map[string]*Element, len(doc.Elements))}
	for _, e := range doc.Elements {
		if e.Symbol == "" || e.Z <= 0 {
			return nil, apperrors.Newf(apperrors.ErrCodeElementTableInvalid, "invalid element entry %+v", *e)
		}
		if _, dup := t.bySymbol[e.Symbol]; dup {
			return nil, apperrors.Newf(apperrors.ErrCodeElementTableInvalid, "duplicate element %s", e.Symbol)
		}
		t.bySymbol[e.Symbol] = e
		t.ordered = append(t.ordered, e)
	}
	sort.Slice(t.ordered, func(i, j int) bool { return t.ordered[i].Z < t.ordered[j].Z })
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the embedded table. It panics if the embedded data is
// corrupt, which only a broken build can cause.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := LoadTable(embeddedElements)
		if err != nil {
			panic(fmt.Sprintf("periodic: embedded element table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup returns the element for symbol. Symbols are case-sensitive; the
// lowercase aromatic forms are a SMILES notation and are mapped by the reader.
func (t *Table) Lookup(symbol string) (*Element, error) {
	if e, ok := t.bySymbol[symbol]; ok {
		return e, nil
	}
	return nil, &UnknownElementError{Symbol: symbol}
}

// Has reports whether symbol resolves.
func (t *Table) Has(symbol string) bool {
	_, err := t.Lookup(symbol)
	return err == nil
}

// Elements returns all elements ordered by atomic number.
func (t *Table) Elements() []*Element {
	out := make([]*Element, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of elements.
func (t *Table) Len() int { return len(t.ordered) }

// IsDefined reports whether v is a defined (non-NaN) table value.
func IsDefined(v float64) bool { return !math.IsNaN(v) }
