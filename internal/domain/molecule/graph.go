// Package molecule holds the molecular graph model consumed by the descriptor
// engine: atoms are nodes carrying an element label and optional per-atom
// attributes, bonds are undirected edges. It also provides the readers that
// build graphs from documents and SMILES strings.
package molecule

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// DefaultLabelKey is the node attribute that holds the element symbol.
const DefaultLabelKey = "node_label"

// Attrs is the attribute map carried by a node or an edge.
type Attrs map[string]interface{}

// Clone returns a shallow copy of a. A nil map clones to an empty map.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Node is a node key with its attributes.
type Node struct {
	Key   NodeKey
	Attrs Attrs
}

// Edge is an undirected bond between U and V.
type Edge struct {
	U, V  NodeKey
	Attrs Attrs
}

// Graph is an undirected simple graph keyed by NodeKey. Nodes iterate in
// insertion order; adding an existing node merges attributes, adding an
// existing edge updates its attributes. Graph is not safe for concurrent
// mutation; a graph that is no longer mutated may be read concurrently.
type Graph struct {
	// ID is an optional caller-supplied molecule identifier.
	ID string

	keys   []NodeKey
	index  map[NodeKey]int
	attrs  []Attrs
	degree []int

	// topology holds bonds between distinct atoms, node ID = position.
	// simple.UndirectedGraph rejects self edges, so those live in loops.
	topology *simple.UndirectedGraph
	loops    map[int]struct{}

	edges     []Edge
	edgeIndex map[[2]int]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:     make(map[NodeKey]int),
		edgeIndex: make(map[[2]int]int),
		topology:  simple.NewUndirectedGraph(),
		loops:     make(map[int]struct{}),
	}
}

// AddNode inserts key or merges attrs into an existing node.
func (g *Graph) AddNode(key NodeKey, attrs Attrs) {
	if pos, ok := g.index[key]; ok {
		for k, v := range attrs {
			g.attrs[pos][k] = v
		}
		return
	}
	g.topology.AddNode(simple.Node(len(g.keys)))
	g.index[key] = len(g.keys)
	g.keys = append(g.keys, key)
	g.attrs = append(g.attrs, attrs.Clone())
	g.degree = append(g.degree, 0)
}

// AddEdge inserts an undirected edge, adding missing endpoints with empty
// attributes. A self-loop contributes two to its node's degree.
func (g *Graph) AddEdge(u, v NodeKey, attrs Attrs) {
	if _, ok := g.index[u]; !ok {
		g.AddNode(u, nil)
	}
	if _, ok := g.index[v]; !ok {
		g.AddNode(v, nil)
	}
	pu, pv := g.index[u], g.index[v]
	pair := [2]int{pu, pv}
	if pv < pu {
		pair = [2]int{pv, pu}
	}
	if i, ok := g.edgeIndex[pair]; ok {
		for k, val := range attrs {
			g.edges[i].Attrs[k] = val
		}
		return
	}
	g.edgeIndex[pair] = len(g.edges)
	g.edges = append(g.edges, Edge{U: u, V: v, Attrs: attrs.Clone()})
	if pu == pv {
		g.loops[pu] = struct{}{}
	} else {
		g.topology.SetEdge(g.topology.NewEdge(simple.Node(pu), simple.Node(pv)))
	}
	g.degree[pu]++
	g.degree[pv]++
}

// NumNodes returns the number of atoms.
func (g *Graph) NumNodes() int { return len(g.keys) }

// NumEdges returns the number of bonds.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Keys returns the node keys in iteration order.
func (g *Graph) Keys() []NodeKey {
	out := make([]NodeKey, len(g.keys))
	copy(out, g.keys)
	return out
}

// Nodes returns the nodes in iteration order. Attribute maps are shared with
// the graph and must not be mutated.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.keys))
	for i, k := range g.keys {
		out[i] = Node{Key: k, Attrs: g.attrs[i]}
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// HasNode reports whether key is present.
func (g *Graph) HasNode(key NodeKey) bool {
	_, ok := g.index[key]
	return ok
}

// HasEdge reports whether u and v are bonded.
func (g *Graph) HasEdge(u, v NodeKey) bool {
	pu, ok := g.index[u]
	if !ok {
		return false
	}
	pv, ok := g.index[v]
	if !ok {
		return false
	}
	if pu == pv {
		_, ok = g.loops[pu]
		return ok
	}
	return g.topology.HasEdgeBetween(int64(pu), int64(pv))
}

// NodeAttrs returns the attributes of key.
func (g *Graph) NodeAttrs(key NodeKey) (Attrs, bool) {
	pos, ok := g.index[key]
	if !ok {
		return nil, false
	}
	return g.attrs[pos], true
}

// AttrsAt returns the attributes of the node at iteration position pos.
func (g *Graph) AttrsAt(pos int) Attrs { return g.attrs[pos] }

// Degree returns the number of bonds incident to the node at position pos.
func (g *Graph) Degree(pos int) int { return g.degree[pos] }

// Neighbors returns the positions adjacent to pos in ascending order.
func (g *Graph) Neighbors(pos int) []int {
	it := g.topology.From(int64(pos))
	out := make([]int, 0, it.Len()+1)
	for it.Next() {
		out = append(out, int(it.Node().ID()))
	}
	if _, ok := g.loops[pos]; ok {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// DistanceLevels runs a breadth-first search from position src and returns,
// for every d in 0..maxDepth, the positions at exactly shortest-path distance
// d, each level sorted ascending. Levels beyond the reachable radius are
// empty. levels[0] is always {src}.
func (g *Graph) DistanceLevels(src, maxDepth int) [][]int {
	levels := make([][]int, maxDepth+1)

	var bf traverse.BreadthFirst
	bf.Walk(g.topology, simple.Node(src), func(n graph.Node, d int) bool {
		if d > maxDepth {
			return true
		}
		levels[d] = append(levels[d], int(n.ID()))
		return false
	})
	for _, level := range levels[1:] {
		sort.Ints(level)
	}
	return levels
}

// NodesAtDistance returns the positions at exactly shortest-path distance d
// from src, ascending.
func (g *Graph) NodesAtDistance(src, d int) []int {
	if d < 0 {
		return nil
	}
	return g.DistanceLevels(src, d)[d]
}

// Diameter returns the longest shortest-path distance between two connected
// atoms.
func (g *Graph) Diameter() int {
	diameter := 0
	n := len(g.keys)
	for src := 0; src < n; src++ {
		levels := g.DistanceLevels(src, n)
		for d := len(levels) - 1; d > diameter; d-- {
			if len(levels[d]) > 0 {
				diameter = d
				break
			}
		}
	}
	return diameter
}
