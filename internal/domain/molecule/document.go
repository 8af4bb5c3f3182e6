package molecule

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
	"gopkg.in/yaml.v3"
)

// Document formats accepted by ParseDocuments.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FromDocument builds a Graph from a molecule document. Explicit graphs are
// copied node by node; SMILES documents go through ParseSMILES with element
// symbols stored under labelKey.
func FromDocument(doc descriptor.MoleculeDocument, labelKey string) (*Graph, error) {
	if labelKey == "" {
		labelKey = DefaultLabelKey
	}
	if !doc.HasGraph() {
		if strings.TrimSpace(doc.SMILES) == "" {
			return nil, graphError(ErrInvalidDocument, "molecule %q has neither nodes nor smiles", doc.ID)
		}
		g, err := ParseSMILES(doc.SMILES, labelKey)
		if err != nil {
			return nil, err
		}
		g.ID = doc.ID
		return g, nil
	}

	g := NewGraph()
	g.ID = doc.ID
	for _, n := range doc.Nodes {
		key, err := KeyOf(n.ID)
		if err != nil {
			return nil, graphError(ErrInvalidDocument, "molecule %q: %v", doc.ID, err)
		}
		g.AddNode(key, n.Attrs)
	}
	for i, e := range doc.AllEdges() {
		u, err := KeyOf(e.Source)
		if err != nil {
			return nil, graphError(ErrInvalidDocument, "molecule %q edge %d: %v", doc.ID, i, err)
		}
		v, err := KeyOf(e.Target)
		if err != nil {
			return nil, graphError(ErrInvalidDocument, "molecule %q edge %d: %v", doc.ID, i, err)
		}
		if !g.HasNode(u) || !g.HasNode(v) {
			return nil, graphError(ErrInvalidDocument, "molecule %q edge %d references unknown node", doc.ID, i)
		}
		g.AddEdge(u, v, e.Attrs)
	}
	return g, nil
}

// ToDocument converts g into an explicit-graph document.
func ToDocument(g *Graph) descriptor.MoleculeDocument {
	doc := descriptor.MoleculeDocument{ID: g.ID}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, descriptor.NodeDocument{ID: keyValue(n.Key), Attrs: n.Attrs.Clone()})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, descriptor.EdgeDocument{Source: keyValue(e.U), Target: keyValue(e.V), Attrs: e.Attrs.Clone()})
	}
	return doc
}

func keyValue(k NodeKey) interface{} {
	if id, ok := k.Int(); ok {
		return id
	}
	return k.String()
}

// FormatFromPath guesses the document format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseDocuments decodes a single molecule document or a list of documents.
// A JSON/YAML object with a "molecules" key is also accepted.
func ParseDocuments(data []byte, format string) ([]descriptor.MoleculeDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, graphError(ErrInvalidDocument, "empty input")
	}

	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}

	var list []descriptor.MoleculeDocument
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Molecules []descriptor.MoleculeDocument `json:"molecules" yaml:"molecules"`
	}
	if err := unmarshal(data, &wrapped); err == nil && len(wrapped.Molecules) > 0 {
		return wrapped.Molecules, nil
	}

	var single descriptor.MoleculeDocument
	if err := unmarshal(data, &single); err != nil {
		return nil, graphError(ErrInvalidDocument, "%v", err)
	}
	if !single.HasGraph() && single.SMILES == "" {
		return nil, graphError(ErrInvalidDocument, "document has neither nodes nor smiles")
	}
	return []descriptor.MoleculeDocument{single}, nil
}

// ParseDocument decodes exactly one molecule document.
func ParseDocument(data []byte, format string) (descriptor.MoleculeDocument, error) {
	docs, err := ParseDocuments(data, format)
	if err != nil {
		return descriptor.MoleculeDocument{}, err
	}
	if len(docs) != 1 {
		return descriptor.MoleculeDocument{}, graphError(ErrInvalidDocument, "expected one molecule, got %d", len(docs))
	}
	return docs[0], nil
}
