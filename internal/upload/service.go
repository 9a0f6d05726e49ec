package upload

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghostdrive/api/internal/metrics"
	"github.com/ghostdrive/api/internal/namespace"
)

// fileIndex resolves file records and the owning user's bucket.
type fileIndex interface {
	GetFileByObjectKey(ctx context.Context, userID uuid.UUID, objectKey string) (namespace.File, error)
	UserBucket(ctx context.Context, userID uuid.UUID) (string, error)
}

// authorizer gates byte-increasing operations on the user's quota.
type authorizer interface {
	Authorize(ctx context.Context, userID uuid.UUID, additionalBytes int64) error
}

// PartURL pairs a part number with its independently-expiring presigned URL.
type PartURL struct {
	PartNumber int    `json:"part_number"`
	URL        string `json:"url"`
}

// Session describes an initiated multipart upload.
type Session struct {
	UploadID  string    `json:"upload_id"`
	ObjectKey string    `json:"object_key"`
	PartURLs  []PartURL `json:"part_urls"`
}

// Receipt confirms a completed multipart upload.
type Receipt struct {
	ObjectKey string `json:"object_key"`
	ETag      string `json:"etag"`
}

// Coordinator orchestrates chunked upload sessions against the object store,
// gated by the quota ledger. It holds no session state of its own: the
// object store owns the session lifecycle, and abandoned sessions expire (or
// not) per its lifecycle policy, which is an operational dependency of this
// service.
type Coordinator struct {
	files fileIndex
	quota authorizer
	store ObjectStore
	ttl   time.Duration
}

// NewCoordinator constructs the upload coordinator. ttl bounds every
// presigned URL issued.
func NewCoordinator(files fileIndex, quota authorizer, store ObjectStore, ttl time.Duration) *Coordinator {
	return &Coordinator{files: files, quota: quota, store: store, ttl: ttl}
}

// Initiate opens a multipart session for an already-registered file and
// returns one presigned PUT URL per part. The file record must exist first;
// its declared size is what the quota check runs against, not the bytes that
// will actually be transferred.
func (c *Coordinator) Initiate(ctx context.Context, userID uuid.UUID, objectKey string, totalChunks int) (Session, error) {
	if totalChunks < 1 {
		return Session{}, fmt.Errorf("%w: %d", ErrInvalidChunkCount, totalChunks)
	}

	file, err := c.files.GetFileByObjectKey(ctx, userID, objectKey)
	if err != nil {
		return Session{}, err
	}

	if err := c.quota.Authorize(ctx, userID, file.Size); err != nil {
		return Session{}, err
	}

	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	uploadID, err := c.store.NewMultipartUpload(ctx, bucket, objectKey)
	if err != nil {
		return Session{}, fmt.Errorf("%w: initiate: %v", ErrUploadSession, err)
	}

	partURLs := make([]PartURL, 0, totalChunks)
	for partNumber := 1; partNumber <= totalChunks; partNumber++ {
		u, err := c.store.PresignedPartURL(ctx, bucket, objectKey, uploadID, partNumber, c.ttl)
		if err != nil {
			// Session is unusable without its full URL set; release it.
			_ = c.store.AbortMultipartUpload(ctx, bucket, objectKey, uploadID)
			return Session{}, fmt.Errorf("%w: presign part %d: %v", ErrUploadSession, partNumber, err)
		}
		partURLs = append(partURLs, PartURL{PartNumber: partNumber, URL: u})
		metrics.PresignedURLIssued("part")
	}

	metrics.MultipartEvent("initiated")
	return Session{UploadID: uploadID, ObjectKey: objectKey, PartURLs: partURLs}, nil
}

// Complete assembles the uploaded parts into the final object. Parts are
// sorted by part number before submission: the gateway's completion API is
// order-sensitive.
func (c *Coordinator) Complete(ctx context.Context, userID uuid.UUID, objectKey, uploadID string, parts []Part) (Receipt, error) {
	if _, err := c.files.GetFileByObjectKey(ctx, userID, objectKey); err != nil {
		return Receipt{}, err
	}

	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return Receipt{}, err
	}

	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PartNumber < sorted[j].PartNumber
	})

	etag, err := c.store.CompleteMultipartUpload(ctx, bucket, objectKey, uploadID, sorted)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: complete: %v", ErrUploadSession, err)
	}

	metrics.MultipartEvent("completed")
	return Receipt{ObjectKey: objectKey, ETag: etag}, nil
}

// Abort releases the server-side storage held by an incomplete session.
// Callers must invoke this on client-side failure or the parts linger until
// the store's own lifecycle policy reaps them.
func (c *Coordinator) Abort(ctx context.Context, userID uuid.UUID, objectKey, uploadID string) error {
	if _, err := c.files.GetFileByObjectKey(ctx, userID, objectKey); err != nil {
		return err
	}

	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return err
	}

	if err := c.store.AbortMultipartUpload(ctx, bucket, objectKey, uploadID); err != nil {
		return fmt.Errorf("%w: abort: %v", ErrUploadSession, err)
	}

	metrics.MultipartEvent("aborted")
	return nil
}

// ListIncomplete surfaces dangling multipart sessions in the user's bucket.
func (c *Coordinator) ListIncomplete(ctx context.Context, userID uuid.UUID, prefix string) ([]IncompleteUpload, error) {
	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploads, err := c.store.ListIncompleteUploads(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list incomplete: %v", ErrUploadSession, err)
	}
	return uploads, nil
}

// UploadURL issues a single-shot presigned PUT for an already-registered
// file, quota-checked against its declared size.
func (c *Coordinator) UploadURL(ctx context.Context, userID uuid.UUID, objectKey string) (string, error) {
	file, err := c.files.GetFileByObjectKey(ctx, userID, objectKey)
	if err != nil {
		return "", err
	}

	if err := c.quota.Authorize(ctx, userID, file.Size); err != nil {
		return "", err
	}

	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return "", err
	}

	u, err := c.store.PresignedPutURL(ctx, bucket, objectKey, c.ttl)
	if err != nil {
		return "", err
	}
	metrics.PresignedURLIssued("upload")
	return u, nil
}

// DownloadURL issues a presigned GET. Downloads never touch the quota.
func (c *Coordinator) DownloadURL(ctx context.Context, userID uuid.UUID, objectKey string) (string, error) {
	file, err := c.files.GetFileByObjectKey(ctx, userID, objectKey)
	if err != nil {
		return "", err
	}

	bucket, err := c.files.UserBucket(ctx, userID)
	if err != nil {
		return "", err
	}

	u, err := c.store.PresignedGetURL(ctx, bucket, file.ObjectKey, c.ttl)
	if err != nil {
		return "", err
	}
	metrics.PresignedURLIssued("download")
	return u, nil
}

// CommonUploadURL issues a presigned PUT into the shared bucket (avatars and
// similar assets outside any user's quota).
func (c *Coordinator) CommonUploadURL(ctx context.Context, commonBucket, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", namespace.ErrInvalidPath
	}

	u, err := c.store.PresignedPutURL(ctx, commonBucket, objectKey, c.ttl)
	if err != nil {
		return "", err
	}
	metrics.PresignedURLIssued("upload")
	return u, nil
}
