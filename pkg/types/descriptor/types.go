// Package descriptor defines the wire types of the descriptor service: the
// molecule documents accepted by every entry point and the request/response
// bodies of the HTTP API and the streaming worker.
package descriptor

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Molecule documents
// ─────────────────────────────────────────────────────────────────────────────

// MoleculeDocument is a molecule given either as an explicit graph or as a
// SMILES string. When both are present the graph wins.
//
// Edges may also be supplied under "links" for node-link documents.
type MoleculeDocument struct {
	ID     string         `json:"id,omitempty" yaml:"id,omitempty"`
	SMILES string         `json:"smiles,omitempty" yaml:"smiles,omitempty"`
	Nodes  []NodeDocument `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges  []EdgeDocument `json:"edges,omitempty" yaml:"edges,omitempty"`
	Links  []EdgeDocument `json:"links,omitempty" yaml:"links,omitempty"`
}

// HasGraph reports whether the document carries explicit nodes.
func (d MoleculeDocument) HasGraph() bool { return len(d.Nodes) > 0 }

// AllEdges returns Edges followed by Links.
func (d MoleculeDocument) AllEdges() []EdgeDocument {
	out := make([]EdgeDocument, 0, len(d.Edges)+len(d.Links))
	out = append(out, d.Edges...)
	return append(out, d.Links...)
}

// NodeDocument is an atom. ID is an integer or a string. Attributes come from
// the "attrs" object; any other top-level key is also taken as an attribute,
// so {"id": 0, "node_label": "C"} and {"id": 0, "attrs": {"node_label": "C"}}
// are equivalent.
type NodeDocument struct {
	ID    interface{}
	Attrs map[string]interface{}
}

// EdgeDocument is a bond, given as [source, target] or as an object with
// "source", "target" and optional "attrs".
type EdgeDocument struct {
	Source interface{}
	Target interface{}
	Attrs  map[string]interface{}
}

func nodeFromMap(m map[string]interface{}) (NodeDocument, error) {
	id, ok := m["id"]
	if !ok {
		return NodeDocument{}, fmt.Errorf("node without id")
	}
	n := NodeDocument{ID: id, Attrs: make(map[string]interface{})}
	for k, v := range m {
		switch k {
		case "id":
		case "attrs":
			attrs, ok := v.(map[string]interface{})
			if !ok {
				return NodeDocument{}, fmt.Errorf("node %v: attrs must be an object", id)
			}
			for ak, av := range attrs {
				n.Attrs[ak] = av
			}
		default:
			n.Attrs[k] = v
		}
	}
	return n, nil
}

func (n NodeDocument) toMap() map[string]interface{} {
	return map[string]interface{}{"id": n.ID, "attrs": n.Attrs}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NodeDocument) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	doc, err := nodeFromMap(m)
	if err != nil {
		return err
	}
	*n = doc
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n NodeDocument) MarshalJSON() ([]byte, error) { return json.Marshal(n.toMap()) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *NodeDocument) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]interface{}
	if err := value.Decode(&m); err != nil {
		return err
	}
	doc, err := nodeFromMap(m)
	if err != nil {
		return err
	}
	*n = doc
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n NodeDocument) MarshalYAML() (interface{}, error) { return n.toMap(), nil }

func edgeFromValue(v interface{}) (EdgeDocument, error) {
	switch t := v.(type) {
	case []interface{}:
		if len(t) != 2 {
			return EdgeDocument{}, fmt.Errorf("edge pair must have 2 elements, got %d", len(t))
		}
		return EdgeDocument{Source: t[0], Target: t[1]}, nil
	case map[string]interface{}:
		src, okS := t["source"]
		dst, okT := t["target"]
		if !okS || !okT {
			return EdgeDocument{}, fmt.Errorf("edge object requires source and target")
		}
		e := EdgeDocument{Source: src, Target: dst, Attrs: make(map[string]interface{})}
		for k, val := range t {
			switch k {
			case "source", "target":
			case "attrs":
				if attrs, ok := val.(map[string]interface{}); ok {
					for ak, av := range attrs {
						e.Attrs[ak] = av
					}
				}
			default:
				e.Attrs[k] = val
			}
		}
		return e, nil
	default:
		return EdgeDocument{}, fmt.Errorf("unsupported edge encoding %T", v)
	}
}

func (e EdgeDocument) toMap() map[string]interface{} {
	m := map[string]interface{}{"source": e.Source, "target": e.Target}
	if len(e.Attrs) > 0 {
		m["attrs"] = e.Attrs
	}
	return m
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EdgeDocument) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	doc, err := edgeFromValue(v)
	if err != nil {
		return err
	}
	*e = doc
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e EdgeDocument) MarshalJSON() ([]byte, error) { return json.Marshal(e.toMap()) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *EdgeDocument) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}
	doc, err := edgeFromValue(v)
	if err != nil {
		return err
	}
	*e = doc
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e EdgeDocument) MarshalYAML() (interface{}, error) { return e.toMap(), nil }

// ─────────────────────────────────────────────────────────────────────────────
// Engine options
// ─────────────────────────────────────────────────────────────────────────────

// Options overrides the configured engine parameters for one request. Zero
// values keep the configured defaults.
type Options struct {
	Depth           *int     `json:"depth,omitempty" yaml:"depth,omitempty"`
	Properties      []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	AtomStats       []string `json:"atom_stats,omitempty" yaml:"atom_stats,omitempty"`
	MolecularStats  []string `json:"molecular_stats,omitempty" yaml:"molecular_stats,omitempty"`
	ElementLabelKey string   `json:"element_label_key,omitempty" yaml:"element_label_key,omitempty"`
}

// IsZero reports whether no override is set.
func (o Options) IsZero() bool {
	return o.Depth == nil && len(o.Properties) == 0 && len(o.AtomStats) == 0 &&
		len(o.MolecularStats) == 0 && o.ElementLabelKey == ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Requests and responses
// ─────────────────────────────────────────────────────────────────────────────

// ComputeRequest asks for the descriptors of one molecule.
type ComputeRequest struct {
	Molecule MoleculeDocument `json:"molecule" yaml:"molecule"`
	Options  Options          `json:"options,omitempty" yaml:"options,omitempty"`
}

// ComputeResponse is the labeled feature vector of one molecule. NaN values
// are encoded as null.
type ComputeResponse struct {
	MoleculeID string     `json:"molecule_id,omitempty"`
	Labels     []string   `json:"labels"`
	Values     []*float64 `json:"values"`
	DurationMs int64      `json:"duration_ms"`
}

// NullableFloats converts values to pointers, mapping NaN to nil.
func NullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}

// BatchRequest asks for a descriptor table over many molecules.
type BatchRequest struct {
	Molecules    []MoleculeDocument `json:"molecules" yaml:"molecules"`
	Options      Options            `json:"options,omitempty" yaml:"options,omitempty"`
	SkipFailures bool               `json:"skip_failures,omitempty" yaml:"skip_failures,omitempty"`
	Export       bool               `json:"export,omitempty" yaml:"export,omitempty"`
	ExportFormat string             `json:"export_format,omitempty" yaml:"export_format,omitempty"`
}

// GraphStoreRequest asks for a descriptor table over molecules stored in the
// graph database.
type GraphStoreRequest struct {
	IDs          []string `json:"ids" yaml:"ids"`
	Options      Options  `json:"options,omitempty" yaml:"options,omitempty"`
	SkipFailures bool     `json:"skip_failures,omitempty" yaml:"skip_failures,omitempty"`
}

// BatchFailure reports a molecule dropped from a skip-failures batch.
type BatchFailure struct {
	Index      int    `json:"index"`
	MoleculeID string `json:"molecule_id,omitempty"`
	Code       string `json:"code"`
	Error      string `json:"error"`
}

// BatchResponse is a descriptor table. NaN cells are encoded as null.
type BatchResponse struct {
	BatchID     string         `json:"batch_id"`
	Columns     []string       `json:"columns"`
	MoleculeIDs []string       `json:"molecule_ids"`
	Rows        [][]*float64   `json:"rows"`
	NaNColumns  []string       `json:"nan_columns,omitempty"`
	Failures    []BatchFailure `json:"failures,omitempty"`
	ExportURI   string         `json:"export_uri,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

// PropertyInfo describes one resolvable property.
type PropertyInfo struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Source string `json:"source"`
}

// ElementInfo is periodic-table data of one element. Undefined values are
// null.
type ElementInfo struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Z                 int      `json:"z"`
	AtomicMass        *float64 `json:"atomic_mass"`
	Electronegativity *float64 `json:"electronegativity"`
	ElectronAffinity  *float64 `json:"electron_affinity"`
	IonizationEnergy  *float64 `json:"ionization_energy"`
	MinOxidationState int      `json:"min_oxidation_state"`
	MaxOxidationState int      `json:"max_oxidation_state"`
	AtomicRadius      *float64 `json:"atomic_radius"`
}

// ComputedEvent is published by the worker for every processed molecule.
type ComputedEvent struct {
	MoleculeID string     `json:"molecule_id"`
	Labels     []string   `json:"labels,omitempty"`
	Values     []*float64 `json:"values,omitempty"`
	Error      string     `json:"error,omitempty"`
	Code       string     `json:"code,omitempty"`
	ComputedAt string     `json:"computed_at"`
}
