package rac

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/domain/periodic"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// Property is one of the built-in atomic properties.
type Property int

const (
	Electronegativity Property = iota
	Row
	Group
	AtomicMass
	ElectronAffinity
	MinOxidationState
	MaxOxidationState
	IonizationEnergy
	NuclearCharge
	Ident
	Topology
	Size
)

var propertyNames = [...]string{
	Electronegativity: "electronegativity",
	Row:               "row",
	Group:             "group",
	AtomicMass:        "atomic_mass",
	ElectronAffinity:  "electron_affinity",
	MinOxidationState: "min_oxidation_state",
	MaxOxidationState: "max_oxidation_state",
	IonizationEnergy:  "ionization_energy",
	NuclearCharge:     "nuclear_charge",
	Ident:             "ident",
	Topology:          "topology",
	Size:              "size",
}

var propertyLabels = [...]string{
	Electronegativity: "chi",
	Row:               "R",
	Group:             "G",
	AtomicMass:        "M",
	ElectronAffinity:  "EA",
	MinOxidationState: "minOS",
	MaxOxidationState: "maxOS",
	IonizationEnergy:  "IE",
	NuclearCharge:     "Z",
	Ident:             "I",
	Topology:          "T",
	Size:              "S",
}

// elementExtractors covers every property read from the element table.
var elementExtractors = map[Property]func(*periodic.Element) float64{
	Electronegativity: func(e *periodic.Element) float64 { return e.Electronegativity },
	Row:               func(e *periodic.Element) float64 { return float64(e.Row()) },
	Group:             func(e *periodic.Element) float64 { return float64(e.Group()) },
	AtomicMass:        func(e *periodic.Element) float64 { return e.AtomicMass },
	ElectronAffinity:  func(e *periodic.Element) float64 { return e.ElectronAffinity },
	MinOxidationState: func(e *periodic.Element) float64 { return float64(e.MinOxidationState) },
	MaxOxidationState: func(e *periodic.Element) float64 { return float64(e.MaxOxidationState) },
	IonizationEnergy:  func(e *periodic.Element) float64 { return e.IonizationEnergy },
	NuclearCharge:     func(e *periodic.Element) float64 { return float64(e.Z) },
	Size:              func(e *periodic.Element) float64 { return e.AtomicRadius },
}

// AllProperties returns the built-in properties in default order.
func AllProperties() []Property {
	out := make([]Property, len(propertyNames))
	for i := range out {
		out[i] = Property(i)
	}
	return out
}

// PropertyNames returns the built-in property names in default order.
func PropertyNames() []string {
	out := make([]string, len(propertyNames))
	copy(out, propertyNames[:])
	return out
}

func (p Property) String() string {
	if p < 0 || int(p) >= len(propertyNames) {
		return fmt.Sprintf("Property(%d)", int(p))
	}
	return propertyNames[p]
}

// Label is the short name used in feature labels.
func (p Property) Label() string {
	if p < 0 || int(p) >= len(propertyLabels) {
		return p.String()
	}
	return propertyLabels[p]
}

// Structural reports whether p is computed from the graph alone.
func (p Property) Structural() bool { return p == Ident || p == Topology }

// ParseProperty maps a built-in property name to its Property.
func ParseProperty(name string) (Property, error) {
	for i, n := range propertyNames {
		if n == name {
			return Property(i), nil
		}
	}
	return 0, &InvalidPropertyError{Name: name, Valid: PropertyNames()}
}

// ErrInvalidProperty is matched by *InvalidPropertyError.
var ErrInvalidProperty = errors.New("invalid property")

// ErrMissingAttribute is returned when an attribute property is absent or
// not numeric on some atom.
var ErrMissingAttribute = errors.New("atom attribute property missing or not numeric")

// InvalidPropertyError reports a property name outside the valid set.
type InvalidPropertyError struct {
	Name  string
	Valid []string
}

func (e *InvalidPropertyError) Error() string {
	return fmt.Sprintf("Invalid property: %s. Valid properties are: [%s]", e.Name, strings.Join(e.Valid, ", "))
}

// Is matches ErrInvalidProperty.
func (e *InvalidPropertyError) Is(target error) bool { return target == ErrInvalidProperty }

// ErrorCode implements apperrors.Coder.
func (e *InvalidPropertyError) ErrorCode() apperrors.ErrorCode { return apperrors.ErrCodeInvalidProperty }

// PropertyVector holds one value per canonical atom.
type PropertyVector []float64

// Resolver turns property names into per-atom vectors. Besides the built-in
// properties it resolves the configured attribute properties, which read a
// numeric node attribute of the same name.
type Resolver struct {
	source     periodic.Source
	labelKey   string
	attributes []string
	attrSet    map[string]struct{}
}

// NewResolver builds a Resolver. A nil source uses periodic.DefaultTable().
func NewResolver(source periodic.Source, labelKey string, attributeProperties []string) *Resolver {
	if source == nil {
		source = periodic.DefaultTable()
	}
	if labelKey == "" {
		labelKey = molecule.DefaultLabelKey
	}
	r := &Resolver{
		source:   source,
		labelKey: labelKey,
		attrSet:  make(map[string]struct{}, len(attributeProperties)),
	}
	for _, a := range attributeProperties {
		if _, dup := r.attrSet[a]; dup {
			continue
		}
		r.attrSet[a] = struct{}{}
		r.attributes = append(r.attributes, a)
	}
	return r
}

// ValidNames returns every name Resolve accepts.
func (r *Resolver) ValidNames() []string {
	return append(PropertyNames(), r.attributes...)
}

// IsAttribute reports whether name resolves to a node attribute.
func (r *Resolver) IsAttribute(name string) bool {
	if _, err := ParseProperty(name); err == nil {
		return false
	}
	_, ok := r.attrSet[name]
	return ok
}

// Validate checks every name before any work is done.
func (r *Resolver) Validate(names []string) error {
	for _, n := range names {
		if _, err := ParseProperty(n); err == nil {
			continue
		}
		if _, ok := r.attrSet[n]; ok {
			continue
		}
		return &InvalidPropertyError{Name: n, Valid: r.ValidNames()}
	}
	return nil
}

// Resolve returns the property vector of g, ordered by canonical atom id,
// and the label used in feature names. g must be canonical.
func (r *Resolver) Resolve(g *molecule.Graph, name string) (PropertyVector, string, error) {
	if p, err := ParseProperty(name); err == nil {
		vec, err := r.ResolveProperty(g, p)
		return vec, p.Label(), err
	}
	if _, ok := r.attrSet[name]; ok {
		vec, err := r.resolveAttribute(g, name)
		return vec, name, err
	}
	return nil, "", &InvalidPropertyError{Name: name, Valid: r.ValidNames()}
}

// ResolveProperty computes a built-in property vector.
func (r *Resolver) ResolveProperty(g *molecule.Graph, p Property) (PropertyVector, error) {
	n := g.NumNodes()
	vec := make(PropertyVector, n)
	switch p {
	case Ident:
		for i := range vec {
			vec[i] = 1
		}
		return vec, nil
	case Topology:
		for i := range vec {
			vec[i] = float64(g.Degree(i))
		}
		return vec, nil
	}

	extract, ok := elementExtractors[p]
	if !ok {
		return nil, &InvalidPropertyError{Name: p.String(), Valid: PropertyNames()}
	}
	for i := 0; i < n; i++ {
		el, err := r.element(g, i)
		if err != nil {
			return nil, err
		}
		vec[i] = extract(el)
	}
	return vec, nil
}

func (r *Resolver) element(g *molecule.Graph, pos int) (*periodic.Element, error) {
	raw, ok := g.AttrsAt(pos)[r.labelKey]
	if !ok {
		return nil, &molecule.MissingLabelError{LabelKey: r.labelKey, Node: molecule.IntKey(pos)}
	}
	symbol, ok := raw.(string)
	if !ok {
		symbol = fmt.Sprint(raw)
	}
	return r.source.Lookup(symbol)
}

func (r *Resolver) resolveAttribute(g *molecule.Graph, name string) (PropertyVector, error) {
	vec := make(PropertyVector, g.NumNodes())
	for i := range vec {
		v, ok := numeric(g.AttrsAt(i)[name])
		if !ok {
			return nil, apperrors.Wrap(ErrMissingAttribute, apperrors.ErrCodeInvalidGraph,
				fmt.Sprintf("atom %d: attribute %q", i, name))
		}
		vec[i] = v
	}
	return vec, nil
}

func numeric(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
