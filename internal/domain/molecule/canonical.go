package molecule

import (
	"sort"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
)

// NonIntegerNodeIdentityWarning is logged when Canonicalize meets node keys
// that are not integers.
const NonIntegerNodeIdentityWarning = "non-integer node identities found; nodes are reindexed in sorted key order"

// Canonicalize returns a copy of g whose node keys are 0..n-1, assigned in
// ascending order of the original keys, with every node attribute and edge
// carried over. Nodes are inserted in ascending new order before any edge, so
// the copy iterates 0..n-1 and positions equal keys.
//
// Every node must carry labelKey; otherwise a *MissingLabelError is returned.
// The input graph is never modified.
func Canonicalize(g *Graph, labelKey string, logger logging.Logger) (*Graph, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if g == nil || g.NumNodes() == 0 {
		return nil, graphError(ErrEmptyGraph, "")
	}
	if labelKey == "" {
		labelKey = DefaultLabelKey
	}

	for i, key := range g.keys {
		if _, ok := g.attrs[i][labelKey]; !ok {
			return nil, &MissingLabelError{LabelKey: labelKey, Node: key}
		}
	}

	sorted := g.Keys()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var nonInt []string
	for _, k := range sorted {
		if !k.IsInt() {
			nonInt = append(nonInt, k.String())
		}
	}
	if len(nonInt) > 0 {
		logger.Warn(NonIntegerNodeIdentityWarning,
			logging.String("molecule", g.ID),
			logging.Strings("node_ids", nonInt))
	}

	mapping := make(map[NodeKey]NodeKey, len(sorted))
	out := NewGraph()
	out.ID = g.ID
	for newID, old := range sorted {
		key := IntKey(newID)
		mapping[old] = key
		out.AddNode(key, g.attrs[g.index[old]])
	}
	for _, e := range g.edges {
		out.AddEdge(mapping[e.U], mapping[e.V], e.Attrs)
	}

	if err := verifyCanonical(out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsCanonical reports whether g's keys are exactly 0..n-1 in iteration order.
func IsCanonical(g *Graph) bool {
	return verifyCanonical(g) == nil
}

func verifyCanonical(g *Graph) error {
	for pos, key := range g.keys {
		id, ok := key.Int()
		if !ok || id != pos {
			return graphError(ErrCanonicalization, "node at position %d has key %s", pos, key)
		}
	}
	return nil
}
