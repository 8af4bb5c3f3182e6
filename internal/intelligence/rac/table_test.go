package rac

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

func sampleTable() *Table {
	t := NewTable([]string{"a", "b"}, []FeatureVector{
		{Labels: []string{"x", "y"}, Values: []float64{1, 2.5}},
		{Labels: []string{"y", "z"}, Values: []float64{math.NaN(), -3}},
	})
	t.Failures = []Failure{{Index: 2, MoleculeID: "c", Err: apperrors.New(apperrors.ErrCodeUnknownElement, "unknown element symbol \"Zz\"")}}
	return t
}

func TestNewTable_UnionOfColumns(t *testing.T) {
	tb := sampleTable()
	assert.Equal(t, []string{"x", "y", "z"}, tb.Columns)
	assert.Equal(t, []string{"a", "b"}, tb.MoleculeIDs)

	v, ok := tb.Value(0, "z")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))
	v, ok = tb.Value(1, "z")
	assert.True(t, ok)
	assert.Equal(t, -3.0, v)
	_, ok = tb.Value(0, "missing")
	assert.False(t, ok)
	_, ok = tb.Value(5, "x")
	assert.False(t, ok)

	col, ok := tb.Column("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, col[0])
	assert.True(t, math.IsNaN(col[1]))

	assert.Equal(t, []string{"x", "y", "z"}, tb.NaNColumns())
}

func TestTable_CSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "molecule_id,x,y,z", lines[0])
	assert.Equal(t, "a,1,2.5,", lines[1])
	assert.Equal(t, "b,,,-3", lines[2])

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, back.Columns)
	assert.Equal(t, []string{"a", "b"}, back.MoleculeIDs)
	v, _ := back.Value(0, "y")
	assert.Equal(t, 2.5, v)
	v, _ = back.Value(1, "y")
	assert.True(t, math.IsNaN(v))
}

func TestReadCSV_Invalid(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("id,x\na,1\n"))
	assert.Equal(t, apperrors.ErrCodeSerialization, apperrors.GetCode(err))

	_, err = ReadCSV(strings.NewReader("molecule_id,x\na,one\n"))
	assert.Error(t, err)
}

func TestTable_JSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"rows":[[1,2.5,null],[null,null,-3]]`)
	assert.Contains(t, buf.String(), `"code":"RAC_003"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, back.Columns)
	v, _ := back.Value(1, "z")
	assert.Equal(t, -3.0, v)
	v, _ = back.Value(1, "x")
	assert.True(t, math.IsNaN(v))

	require.Len(t, back.Failures, 1)
	assert.Equal(t, 2, back.Failures[0].Index)
	assert.True(t, apperrors.IsCode(back.Failures[0].Err, apperrors.ErrCodeUnknownElement))
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("{"))
	require.Error(t, err)
	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
}

func TestTable_NullableRows(t *testing.T) {
	rows := sampleTable().NullableRows()
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0][0])
	assert.Equal(t, 1.0, *rows[0][0])
	assert.Nil(t, rows[0][2])
}
