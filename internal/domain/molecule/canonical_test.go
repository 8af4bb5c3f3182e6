package molecule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

func TestCanonicalize_ReindexesInSortedOrder(t *testing.T) {
	g := NewGraph()
	g.AddNode(IntKey(10), Attrs{DefaultLabelKey: "O"})
	g.AddNode(IntKey(3), Attrs{DefaultLabelKey: "C"})
	g.AddNode(IntKey(7), Attrs{DefaultLabelKey: "H"})
	g.AddEdge(IntKey(3), IntKey(10), Attrs{"order": 2.0})
	g.AddEdge(IntKey(3), IntKey(7), nil)

	logger := testutil.NewMockLogger()
	c, err := Canonicalize(g, DefaultLabelKey, logger)
	require.NoError(t, err)

	assert.Equal(t, []NodeKey{IntKey(0), IntKey(1), IntKey(2)}, c.Keys())
	assert.Equal(t, "C", c.AttrsAt(0)[DefaultLabelKey])
	assert.Equal(t, "H", c.AttrsAt(1)[DefaultLabelKey])
	assert.Equal(t, "O", c.AttrsAt(2)[DefaultLabelKey])
	assert.True(t, c.HasEdge(IntKey(0), IntKey(2)))
	assert.True(t, c.HasEdge(IntKey(0), IntKey(1)))
	assert.False(t, c.HasEdge(IntKey(1), IntKey(2)))
	assert.True(t, IsCanonical(c))
	assert.Empty(t, logger.MessagesAt("warn"))

	for _, e := range c.Edges() {
		if e.V == IntKey(2) || e.U == IntKey(2) {
			assert.Equal(t, 2.0, e.Attrs["order"])
		}
	}
}

func TestCanonicalize_DoesNotModifyInput(t *testing.T) {
	g := NewGraph()
	g.AddNode(IntKey(5), Attrs{DefaultLabelKey: "C"})
	g.AddNode(IntKey(1), Attrs{DefaultLabelKey: "H"})
	g.AddEdge(IntKey(5), IntKey(1), nil)

	c, err := Canonicalize(g, DefaultLabelKey, logging.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, []NodeKey{IntKey(5), IntKey(1)}, g.Keys())
	c.AttrsAt(0)["extra"] = true
	_, leaked := g.AttrsAt(1)["extra"]
	assert.False(t, leaked)
}

func TestCanonicalize_AlreadyCanonicalIsEquivalent(t *testing.T) {
	g := chain(4)
	c, err := Canonicalize(g, DefaultLabelKey, nil)
	require.NoError(t, err)

	assert.Equal(t, g.Keys(), c.Keys())
	assert.Equal(t, g.NumEdges(), c.NumEdges())
	for i := 0; i < 4; i++ {
		assert.Equal(t, g.Degree(i), c.Degree(i))
	}
}

func TestCanonicalize_StringKeysWarn(t *testing.T) {
	g := NewGraph()
	g.ID = "ethanol"
	g.AddNode(StringKey("c2"), Attrs{DefaultLabelKey: "C"})
	g.AddNode(StringKey("c1"), Attrs{DefaultLabelKey: "C"})
	g.AddNode(IntKey(9), Attrs{DefaultLabelKey: "O"})
	g.AddEdge(StringKey("c1"), StringKey("c2"), nil)
	g.AddEdge(StringKey("c2"), IntKey(9), nil)

	logger := testutil.NewMockLogger()
	c, err := Canonicalize(g, DefaultLabelKey, logger)
	require.NoError(t, err)

	// 9 < "c1" < "c2"
	assert.Equal(t, "O", c.AttrsAt(0)[DefaultLabelKey])
	assert.True(t, c.HasEdge(IntKey(1), IntKey(2)))
	assert.True(t, c.HasEdge(IntKey(2), IntKey(0)))

	warns := logger.MessagesAt("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, NonIntegerNodeIdentityWarning, warns[0].Message)
	ids, ok := warns[0].Field("node_ids")
	require.True(t, ok)
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestCanonicalize_MissingLabel(t *testing.T) {
	g := NewGraph()
	g.AddNode(IntKey(0), Attrs{DefaultLabelKey: "C"})
	g.AddNode(IntKey(1), Attrs{"element": "H"})

	_, err := Canonicalize(g, DefaultLabelKey, nil)
	require.Error(t, err)

	var missing *MissingLabelError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, IntKey(1), missing.Node)
	assert.ErrorIs(t, err, ErrMissingLabel)
	assert.Equal(t, "Could not find node labels in graph specifying the atom type. Expected label: node_label", err.Error())
	assert.Equal(t, apperrors.ErrCodeMissingNodeLabel, apperrors.GetCode(err))
}

func TestCanonicalize_CustomLabelKey(t *testing.T) {
	g := NewGraph()
	g.AddNode(IntKey(0), Attrs{"element": "C"})

	_, err := Canonicalize(g, "element", nil)
	assert.NoError(t, err)

	_, err = Canonicalize(g, DefaultLabelKey, nil)
	assert.ErrorIs(t, err, ErrMissingLabel)
}

func TestCanonicalize_EmptyGraph(t *testing.T) {
	_, err := Canonicalize(NewGraph(), DefaultLabelKey, nil)
	assert.ErrorIs(t, err, ErrEmptyGraph)
	assert.Equal(t, apperrors.ErrCodeInvalidGraph, apperrors.GetCode(err))

	_, err = Canonicalize(nil, DefaultLabelKey, nil)
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestIsCanonical(t *testing.T) {
	g := NewGraph()
	g.AddNode(IntKey(1), Attrs{DefaultLabelKey: "C"})
	assert.False(t, IsCanonical(g))

	g = NewGraph()
	g.AddNode(StringKey("0"), Attrs{DefaultLabelKey: "C"})
	assert.False(t, IsCanonical(g))
}
