package neo4j

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// ethanolTx serves C-C-O with a partial charge on each atom.
func ethanolTx() *fakeTx {
	atoms := []any{
		map[string]any{"idx": int64(2), "element": "O", "charge": -0.4},
		map[string]any{"idx": int64(0), "element": "C", "charge": 0.1},
		map[string]any{"idx": int64(1), "element": "C", "charge": 0.3},
	}
	return &fakeTx{results: map[string]*fakeResult{
		atomsQuery: {records: []*neo4j.Record{record([]string{"id", "atoms"}, "ethanol", atoms)}},
		bondsQuery: {records: []*neo4j.Record{
			record([]string{"u", "v", "attrs"}, int64(0), int64(1), map[string]any{"order": 1.0}),
			record([]string{"u", "v", "attrs"}, int64(1), int64(2), map[string]any{}),
		}},
	}}
}

func TestMoleculeSource_Load(t *testing.T) {
	tx := ethanolTx()
	d, _, _ := newTestDriver(tx)
	src := NewMoleculeSource(d, "", nil)

	g, err := src.Load(context.Background(), "ethanol")
	require.NoError(t, err)

	assert.Equal(t, "ethanol", g.ID)
	assert.Equal(t, 3, g.NumNodes())
	assert.Equal(t, 2, g.NumEdges())
	assert.Equal(t, []molecule.NodeKey{molecule.IntKey(0), molecule.IntKey(1), molecule.IntKey(2)}, g.Keys())
	assert.True(t, g.HasEdge(molecule.IntKey(0), molecule.IntKey(1)))
	assert.True(t, g.HasEdge(molecule.IntKey(1), molecule.IntKey(2)))

	attrs, ok := g.NodeAttrs(molecule.IntKey(2))
	require.True(t, ok)
	assert.Equal(t, "O", attrs[molecule.DefaultLabelKey])
	assert.Equal(t, "O", attrs["element"])
	assert.Equal(t, -0.4, attrs["charge"])
	_, hasIdx := attrs["idx"]
	assert.False(t, hasIdx)

	require.Len(t, tx.params, 2)
	assert.Equal(t, "ethanol", tx.params[0]["id"])
}

func TestMoleculeSource_LabelKey(t *testing.T) {
	d, _, _ := newTestDriver(ethanolTx())
	src := NewMoleculeSource(d, "element", nil)

	g, err := src.Load(context.Background(), "ethanol")
	require.NoError(t, err)
	attrs, _ := g.NodeAttrs(molecule.IntKey(0))
	assert.Equal(t, "C", attrs["element"])
	_, has := attrs[molecule.DefaultLabelKey]
	assert.False(t, has)
}

func TestMoleculeSource_NotFound(t *testing.T) {
	d, _, _ := newTestDriver(&fakeTx{})
	src := NewMoleculeSource(d, "", nil)

	_, err := src.Load(context.Background(), "missing")
	assert.Equal(t, apperrors.ErrCodeMoleculeNotFound, apperrors.GetCode(err))

	_, err = src.Load(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestMoleculeSource_BadAtomIndex(t *testing.T) {
	tx := &fakeTx{results: map[string]*fakeResult{
		atomsQuery: {records: []*neo4j.Record{record([]string{"id", "atoms"}, "m", []any{map[string]any{"element": "C"}})}},
	}}
	d, _, _ := newTestDriver(tx)

	_, err := NewMoleculeSource(d, "", nil).Load(context.Background(), "m")
	assert.Equal(t, apperrors.ErrCodeGraphStoreError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "missing idx")
}

func TestMoleculeSource_DuplicateAtomIndex(t *testing.T) {
	atoms := []any{
		map[string]any{"idx": int64(0), "element": "C"},
		map[string]any{"idx": int64(1), "element": "O"},
		map[string]any{"idx": int64(0), "element": "N"},
	}
	tx := &fakeTx{results: map[string]*fakeResult{
		atomsQuery: {records: []*neo4j.Record{record([]string{"id", "atoms"}, "m", atoms)}},
		bondsQuery: {},
	}}
	d, _, _ := newTestDriver(tx)

	g, err := NewMoleculeSource(d, "", nil).Load(context.Background(), "m")
	assert.Nil(t, g)
	assert.Equal(t, apperrors.ErrCodeGraphStoreError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "two atoms with idx 0")
}

func TestMoleculeSource_LoadMany(t *testing.T) {
	d, _, _ := newTestDriver(ethanolTx())
	src := NewMoleculeSource(d, "", nil)

	graphs, err := src.LoadMany(context.Background(), []string{"ethanol", "ethanol"})
	require.NoError(t, err)
	assert.Len(t, graphs, 2)
}

func TestToIndex(t *testing.T) {
	n, err := toIndex(int64(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = toIndex(3.0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = toIndex(2.5)
	assert.Error(t, err)
	_, err = toIndex("1")
	assert.Error(t, err)
}
