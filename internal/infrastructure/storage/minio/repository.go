package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// Table export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var (
	ErrTableNotFound  = apperrors.New(apperrors.ErrCodeNotFound, "table not found")
	ErrInvalidBatchID = apperrors.New(apperrors.ErrCodeValidation, "invalid batch id")
)

// ExportResult describes a stored table.
type ExportResult struct {
	Bucket     string
	Key        string
	URI        string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

// TableStore writes and reads descriptor tables under
// <prefix>/<batch>/<batch>.<format>.
type TableStore struct {
	client *Client
	logger logging.Logger
}

// NewTableStore creates a TableStore on client.
func NewTableStore(client *Client, log logging.Logger) *TableStore {
	if log == nil {
		log = client.logger
	}
	return &TableStore{client: client, logger: log}
}

// ObjectKey returns the key a table for batchID is stored under.
func (s *TableStore) ObjectKey(batchID, format string) string {
	return path.Join(s.client.Prefix(), batchID, batchID+"."+format)
}

func checkBatch(batchID, format string) error {
	if batchID == "" || strings.ContainsAny(batchID, `/\`) || strings.Contains(batchID, "..") {
		return ErrInvalidBatchID
	}
	if format != FormatCSV && format != FormatJSON {
		return apperrors.Newf(apperrors.ErrCodeValidation, "unsupported table format %q", format)
	}
	return nil
}

// PutTable encodes table as format and uploads it.
func (s *TableStore) PutTable(ctx context.Context, batchID string, table *rac.Table, format string) (*ExportResult, error) {
	if err := checkBatch(batchID, format); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "table is nil")
	}
	api, err := s.client.objects()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	contentType := "text/csv"
	if format == FormatJSON {
		contentType = "application/json"
		err = table.WriteJSON(&buf)
	} else {
		err = table.WriteCSV(&buf)
	}
	if err != nil {
		return nil, err
	}

	key := s.ObjectKey(batchID, format)
	opts := minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"batch-id": batchID,
			"rows":     strconv.Itoa(table.NumRows()),
			"columns":  strconv.Itoa(len(table.Columns)),
		},
	}
	size := int64(buf.Len())
	info, err := api.PutObject(ctx, s.client.Bucket(), key, &buf, size, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "upload failed")
	}

	s.logger.Info("descriptor table exported",
		logging.String("batch_id", batchID),
		logging.String("key", key),
		logging.Int64("bytes", size))
	return &ExportResult{
		Bucket:     s.client.Bucket(),
		Key:        key,
		URI:        "s3://" + s.client.Bucket() + "/" + key,
		ETag:       info.ETag,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// GetTable downloads and decodes the table stored for batchID.
func (s *TableStore) GetTable(ctx context.Context, batchID, format string) (*rac.Table, error) {
	if err := checkBatch(batchID, format); err != nil {
		return nil, err
	}
	api, err := s.client.objects()
	if err != nil {
		return nil, err
	}

	key := s.ObjectKey(batchID, format)
	obj, err := api.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.downloadError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.downloadError(err, key)
	}
	if format == FormatJSON {
		return rac.ReadJSON(bytes.NewReader(data))
	}
	return rac.ReadCSV(bytes.NewReader(data))
}

// Exists reports whether a table for batchID is stored.
func (s *TableStore) Exists(ctx context.Context, batchID, format string) (bool, error) {
	if err := checkBatch(batchID, format); err != nil {
		return false, err
	}
	api, err := s.client.objects()
	if err != nil {
		return false, err
	}
	if _, err := api.StatObject(ctx, s.client.Bucket(), s.ObjectKey(batchID, format), minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

// DeleteTable removes the table stored for batchID.
func (s *TableStore) DeleteTable(ctx context.Context, batchID, format string) error {
	if err := checkBatch(batchID, format); err != nil {
		return err
	}
	api, err := s.client.objects()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, s.client.Bucket(), s.ObjectKey(batchID, format), minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "delete failed")
	}
	return nil
}

func (s *TableStore) downloadError(err error, key string) error {
	if isNoSuchKey(err) {
		return ErrTableNotFound
	}
	return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "download failed: "+key)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
