package neo4j

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

const (
	atomsQuery = `MATCH (m:Molecule {id: $id})
OPTIONAL MATCH (m)-[:HAS_ATOM]->(a:Atom)
RETURN m.id AS id, collect(properties(a)) AS atoms`

	bondsQuery = `MATCH (m:Molecule {id: $id})-[:HAS_ATOM]->(x:Atom)-[b:BOND]-(y:Atom)<-[:HAS_ATOM]-(m)
WHERE x.idx < y.idx
RETURN x.idx AS u, y.idx AS v, properties(b) AS attrs
ORDER BY u, v`
)

// IndexProperty and ElementProperty are the atom properties every stored
// atom carries.
const (
	IndexProperty   = "idx"
	ElementProperty = "element"
)

type atomRecord struct {
	idx   int
	attrs molecule.Attrs
}

type bondRecord struct {
	u, v  int
	attrs molecule.Attrs
}

// MoleculeSource reads molecule graphs stored as
// (:Molecule {id})-[:HAS_ATOM]->(:Atom {idx, element, ...}) with
// (:Atom)-[:BOND]-(:Atom) relationships.
type MoleculeSource struct {
	db       Reader
	labelKey string
	logger   logging.Logger
}

// NewMoleculeSource creates a source that writes each atom's element under
// labelKey.
func NewMoleculeSource(db Reader, labelKey string, log logging.Logger) *MoleculeSource {
	if labelKey == "" {
		labelKey = molecule.DefaultLabelKey
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MoleculeSource{db: db, labelKey: labelKey, logger: log}
}

// Load reads molecule id into a graph keyed by atom idx. Atom properties
// other than idx become node attributes.
func (s *MoleculeSource) Load(ctx context.Context, id string) (*molecule.Graph, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "molecule id is required")
	}
	out, err := s.db.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		atoms, found, err := readAtoms(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperrors.Newf(apperrors.ErrCodeMoleculeNotFound, "molecule %q not found", id)
		}
		bonds, err := readBonds(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return s.build(id, atoms, bonds)
	})
	if err != nil {
		return nil, err
	}
	g := out.(*molecule.Graph)
	s.logger.Debug("molecule loaded from graph store",
		logging.String("molecule_id", id),
		logging.Int("atoms", g.NumNodes()),
		logging.Int("bonds", g.NumEdges()))
	return g, nil
}

// LoadMany loads each id in order and stops at the first error.
func (s *MoleculeSource) LoadMany(ctx context.Context, ids []string) ([]*molecule.Graph, error) {
	graphs := make([]*molecule.Graph, 0, len(ids))
	for _, id := range ids {
		g, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// build rejects duplicate atom indices; AddNode would merge them.
func (s *MoleculeSource) build(id string, atoms []atomRecord, bonds []bondRecord) (*molecule.Graph, error) {
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].idx < atoms[j].idx })
	g := molecule.NewGraph()
	g.ID = id
	for i, a := range atoms {
		if i > 0 && atoms[i-1].idx == a.idx {
			return nil, graphDataError("molecule %q has two atoms with %s %d", id, IndexProperty, a.idx)
		}
		if _, ok := a.attrs[s.labelKey]; !ok {
			if el, ok := a.attrs[ElementProperty]; ok {
				a.attrs[s.labelKey] = el
			}
		}
		g.AddNode(molecule.IntKey(a.idx), a.attrs)
	}
	for _, b := range bonds {
		g.AddEdge(molecule.IntKey(b.u), molecule.IntKey(b.v), b.attrs)
	}
	return g, nil
}

func readAtoms(ctx context.Context, tx Transaction, id string) ([]atomRecord, bool, error) {
	result, err := tx.Run(ctx, atomsQuery, map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if !result.Next(ctx) {
		return nil, false, result.Err()
	}
	raw, _ := result.Record().Get("atoms")
	list, _ := raw.([]any)
	atoms := make([]atomRecord, 0, len(list))
	for _, item := range list {
		props, ok := item.(map[string]any)
		if !ok {
			return nil, false, graphDataError("atom of molecule %q is not a property map", id)
		}
		idx, err := toIndex(props[IndexProperty])
		if err != nil {
			return nil, false, graphDataError("atom of molecule %q: %v", id, err)
		}
		attrs := make(molecule.Attrs, len(props))
		for k, v := range props {
			if k != IndexProperty {
				attrs[k] = v
			}
		}
		atoms = append(atoms, atomRecord{idx: idx, attrs: attrs})
	}
	return atoms, true, nil
}

func readBonds(ctx context.Context, tx Transaction, id string) ([]bondRecord, error) {
	result, err := tx.Run(ctx, bondsQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return CollectRecords(ctx, result, func(rec *neo4j.Record) (bondRecord, error) {
		u, _ := rec.Get("u")
		v, _ := rec.Get("v")
		var b bondRecord
		var err error
		if b.u, err = toIndex(u); err != nil {
			return b, graphDataError("bond of molecule %q: %v", id, err)
		}
		if b.v, err = toIndex(v); err != nil {
			return b, graphDataError("bond of molecule %q: %v", id, err)
		}
		if props, ok := rec.Get("attrs"); ok {
			if m, ok := props.(map[string]any); ok && len(m) > 0 {
				b.attrs = molecule.Attrs(m)
			}
		}
		return b, nil
	})
}

func toIndex(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	case nil:
		return 0, fmt.Errorf("missing %s", IndexProperty)
	}
	return 0, fmt.Errorf("%s %v is not an integer", IndexProperty, v)
}

func graphDataError(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrCodeGraphStoreError, format, args...)
}
