package minio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

func sampleTable() *rac.Table {
	return rac.NewTable([]string{"ethanol", "argon"}, []rac.FeatureVector{
		{Labels: []string{"a", "b"}, Values: []float64{1.5, 2}},
		{Labels: []string{"a", "b"}, Values: []float64{3, math.NaN()}},
	})
}

func newTestStore(t *testing.T) (*TableStore, *memoryAPI) {
	t.Helper()
	api := newMemoryAPI()
	client := newClient(api, Config{Bucket: "rac-exports", Prefix: "descriptors"}, testutil.NewMockLogger())
	require.NoError(t, client.EnsureBucket(context.Background()))
	return NewTableStore(client, nil), api
}

func TestTableStore_ObjectKey(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Equal(t, "descriptors/b-1/b-1.csv", store.ObjectKey("b-1", FormatCSV))
	assert.Equal(t, "descriptors/b-1/b-1.json", store.ObjectKey("b-1", FormatJSON))
}

func TestTableStore_PutGetCSV(t *testing.T) {
	store, api := newTestStore(t)
	ctx := context.Background()

	res, err := store.PutTable(ctx, "b-1", sampleTable(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "s3://rac-exports/descriptors/b-1/b-1.csv", res.URI)
	assert.Equal(t, "etag-1", res.ETag)
	assert.Positive(t, res.Size)

	stored := api.objects["rac-exports/descriptors/b-1/b-1.csv"]
	assert.Equal(t, "text/csv", stored.opts.ContentType)
	assert.Equal(t, "2", stored.opts.UserMetadata["rows"])
	assert.Equal(t, "2", stored.opts.UserMetadata["columns"])
	assert.Equal(t, "molecule_id,a,b\nethanol,1.5,2\nargon,3,\n", string(stored.data))

	got, err := store.GetTable(ctx, "b-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Columns)
	assert.Equal(t, []string{"ethanol", "argon"}, got.MoleculeIDs)
	assert.Equal(t, 1.5, got.Rows[0][0])
	assert.True(t, math.IsNaN(got.Rows[1][1]))
}

func TestTableStore_PutGetJSON(t *testing.T) {
	store, api := newTestStore(t)
	ctx := context.Background()

	table := sampleTable()
	table.Failures = []rac.Failure{{Index: 2, MoleculeID: "bad", Err: apperrors.New(apperrors.ErrCodeUnknownElement, "unknown element")}}
	_, err := store.PutTable(ctx, "b-2", table, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", api.objects["rac-exports/descriptors/b-2/b-2.json"].opts.ContentType)

	got, err := store.GetTable(ctx, "b-2", FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, got.Columns)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, apperrors.ErrCodeUnknownElement, apperrors.GetCode(got.Failures[0].Err))
}

func TestTableStore_ExistsAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "b-3", FormatCSV)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.PutTable(ctx, "b-3", sampleTable(), FormatCSV)
	require.NoError(t, err)
	ok, err = store.Exists(ctx, "b-3", FormatCSV)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteTable(ctx, "b-3", FormatCSV))
	_, err = store.GetTable(ctx, "b-3", FormatCSV)
	assert.Equal(t, ErrTableNotFound, err)
}

func TestTableStore_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "a/b", "..", `a\b`} {
		_, err := store.PutTable(ctx, id, sampleTable(), FormatCSV)
		assert.Equal(t, ErrInvalidBatchID, err, id)
	}
	_, err := store.PutTable(ctx, "b", sampleTable(), "parquet")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	_, err = store.PutTable(ctx, "b", nil, FormatCSV)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestTableStore_UploadError(t *testing.T) {
	store, api := newTestStore(t)
	api.failAll = errors.New("disk full")

	_, err := store.PutTable(context.Background(), "b-4", sampleTable(), FormatCSV)
	assert.Equal(t, apperrors.ErrCodeStorageError, apperrors.GetCode(err))
}
