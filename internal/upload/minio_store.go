package upload

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
)

// Part identifies one transferred chunk of a multipart upload.
type Part struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// IncompleteUpload describes a dangling multipart session on the gateway.
type IncompleteUpload struct {
	ObjectKey string    `json:"object_key"`
	UploadID  string    `json:"upload_id"`
	Size      int64     `json:"size"`
	Initiated time.Time `json:"initiated"`
}

// ObjectStore is the object-storage gateway surface the coordinator consumes.
type ObjectStore interface {
	PresignedPutURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error)
	PresignedGetURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error)
	NewMultipartUpload(ctx context.Context, bucket, objectKey string) (string, error)
	PresignedPartURL(ctx context.Context, bucket, objectKey, uploadID string, partNumber int, ttl time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, bucket, objectKey, uploadID string, parts []Part) (string, error)
	AbortMultipartUpload(ctx context.Context, bucket, objectKey, uploadID string) error
	ListIncompleteUploads(ctx context.Context, bucket, prefix string) ([]IncompleteUpload, error)
}

// MinIOStore adapts minio.Client (and its low-level Core API, needed for the
// multipart primitives) to the ObjectStore interface.
type MinIOStore struct {
	client *minio.Client
	core   *minio.Core
}

// NewMinIOStore constructs the adapter.
func NewMinIOStore(client *minio.Client) *MinIOStore {
	return &MinIOStore{client: client, core: &minio.Core{Client: client}}
}

func (s *MinIOStore) PresignedPutURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, objectKey, ttl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinIOStore) PresignedGetURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinIOStore) NewMultipartUpload(ctx context.Context, bucket, objectKey string) (string, error) {
	return s.core.NewMultipartUpload(ctx, bucket, objectKey, minio.PutObjectOptions{})
}

// PresignedPartURL signs a PUT for a single part. MinIO has no dedicated
// presigned-part call; the uploadId/partNumber pair rides in query params.
func (s *MinIOStore) PresignedPartURL(ctx context.Context, bucket, objectKey, uploadID string, partNumber int, ttl time.Duration) (string, error) {
	params := url.Values{}
	params.Set("uploadId", uploadID)
	params.Set("partNumber", strconv.Itoa(partNumber))

	u, err := s.client.Presign(ctx, http.MethodPut, bucket, objectKey, ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinIOStore) CompleteMultipartUpload(ctx context.Context, bucket, objectKey, uploadID string, parts []Part) (string, error) {
	completeParts := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completeParts = append(completeParts, minio.CompletePart{
			PartNumber: part.PartNumber,
			ETag:       part.ETag,
		})
	}

	info, err := s.core.CompleteMultipartUpload(ctx, bucket, objectKey, uploadID, completeParts, minio.PutObjectOptions{})
	if err != nil {
		return "", err
	}
	return info.ETag, nil
}

func (s *MinIOStore) AbortMultipartUpload(ctx context.Context, bucket, objectKey, uploadID string) error {
	return s.core.AbortMultipartUpload(ctx, bucket, objectKey, uploadID)
}

func (s *MinIOStore) ListIncompleteUploads(ctx context.Context, bucket, prefix string) ([]IncompleteUpload, error) {
	var uploads []IncompleteUpload
	for info := range s.client.ListIncompleteUploads(ctx, bucket, prefix, true) {
		if info.Err != nil {
			return nil, info.Err
		}
		uploads = append(uploads, IncompleteUpload{
			ObjectKey: info.Key,
			UploadID:  info.UploadID,
			Size:      info.Size,
			Initiated: info.Initiated,
		})
	}
	return uploads, nil
}

// RemoveObject deletes a single object. Exposed so the namespace tree can
// reuse the same adapter for cascade deletes.
func (s *MinIOStore) RemoveObject(ctx context.Context, bucket, objectKey string) error {
	return s.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{})
}
