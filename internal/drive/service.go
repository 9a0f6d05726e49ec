package drive

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghostdrive/api/internal/namespace"
	"github.com/ghostdrive/api/internal/pagination"
	"github.com/ghostdrive/api/internal/quota"
	"github.com/ghostdrive/api/internal/upload"
)

// Service is the composition root for storage use cases: the namespace tree,
// the quota ledger, and the upload coordinator. Every controller-level call
// is routed through here.
type Service struct {
	tree         *namespace.Tree
	ledger       *quota.Ledger
	uploads      *upload.Coordinator
	commonBucket string
}

// NewService wires the storage service from its three engines.
func NewService(tree *namespace.Tree, ledger *quota.Ledger, uploads *upload.Coordinator, commonBucket string) *Service {
	return &Service{
		tree:         tree,
		ledger:       ledger,
		uploads:      uploads,
		commonBucket: commonBucket,
	}
}

// --- folders ---

func (s *Service) CreateFolder(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID) (namespace.Folder, error) {
	return s.tree.CreateFolder(ctx, userID, name, parentID)
}

func (s *Service) UpdateFolder(ctx context.Context, userID, folderID uuid.UUID, newName string, newParentID *uuid.UUID) (namespace.Folder, error) {
	return s.tree.UpdateFolder(ctx, userID, folderID, newName, newParentID)
}

func (s *Service) DeleteFolder(ctx context.Context, userID, folderID uuid.UUID) error {
	return s.tree.DeleteFolder(ctx, userID, folderID)
}

func (s *Service) AncestryPath(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) ([]namespace.Folder, error) {
	return s.tree.AncestryPath(ctx, userID, folderID)
}

func (s *Service) ListChildren(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) ([]namespace.Folder, error) {
	return s.tree.ListChildren(ctx, userID, folderID)
}

func (s *Service) ListDestinations(ctx context.Context, userID uuid.UUID, itemType namespace.ItemType, sourceFolderID *uuid.UUID) ([]namespace.Destination, error) {
	return s.tree.ListDestinations(ctx, userID, itemType, sourceFolderID)
}

func (s *Service) ListContents(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID, page, limit int) (pagination.Page[namespace.Entry], error) {
	return s.tree.ListContents(ctx, userID, folderID, page, limit)
}

// --- files ---

// CreateFile authorizes the declared size against the user's quota, then
// records the file. The two steps are not one transaction; see the ledger.
func (s *Service) CreateFile(ctx context.Context, userID uuid.UUID, name, objectKey string, size int64, folderID *uuid.UUID, mimeType string) (namespace.File, error) {
	if err := s.ledger.Authorize(ctx, userID, size); err != nil {
		return namespace.File{}, err
	}
	return s.tree.CreateFile(ctx, userID, name, objectKey, size, folderID, mimeType)
}

func (s *Service) GetFile(ctx context.Context, userID, fileID uuid.UUID) (namespace.File, error) {
	return s.tree.GetFile(ctx, userID, fileID)
}

func (s *Service) UpdateFile(ctx context.Context, userID, fileID uuid.UUID, newName *string, newFolderID *uuid.UUID) (namespace.File, error) {
	return s.tree.UpdateFile(ctx, userID, fileID, newName, newFolderID)
}

func (s *Service) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	return s.tree.DeleteFile(ctx, userID, fileID)
}

// ListFiles lists files under a folder addressed either by id or by
// materialized path; path takes precedence when both are given.
func (s *Service) ListFiles(ctx context.Context, userID uuid.UUID, path *string, folderID *uuid.UUID, page, limit int) (pagination.Page[namespace.File], error) {
	if path != nil {
		folder, err := s.tree.ResolveFolderByPath(ctx, userID, *path)
		if err != nil {
			return pagination.Page[namespace.File]{}, err
		}
		folderID = &folder.ID
	}
	return s.tree.ListFiles(ctx, userID, folderID, page, limit)
}

func (s *Service) SearchFiles(ctx context.Context, userID uuid.UUID, query string, page, limit int) (pagination.Page[namespace.File], error) {
	return s.tree.Search(ctx, userID, query, page, limit)
}

// --- uploads ---

func (s *Service) InitMultipartUpload(ctx context.Context, userID uuid.UUID, objectKey string, totalChunks int) (upload.Session, error) {
	return s.uploads.Initiate(ctx, userID, objectKey, totalChunks)
}

func (s *Service) CompleteMultipartUpload(ctx context.Context, userID uuid.UUID, objectKey, uploadID string, parts []upload.Part) (upload.Receipt, error) {
	return s.uploads.Complete(ctx, userID, objectKey, uploadID, parts)
}

func (s *Service) AbortMultipartUpload(ctx context.Context, userID uuid.UUID, objectKey, uploadID string) error {
	return s.uploads.Abort(ctx, userID, objectKey, uploadID)
}

func (s *Service) ListIncompleteUploads(ctx context.Context, userID uuid.UUID, prefix string) ([]upload.IncompleteUpload, error) {
	return s.uploads.ListIncomplete(ctx, userID, prefix)
}

func (s *Service) UploadURL(ctx context.Context, userID uuid.UUID, objectKey string) (string, error) {
	return s.uploads.UploadURL(ctx, userID, objectKey)
}

func (s *Service) DownloadURL(ctx context.Context, userID uuid.UUID, objectKey string) (string, error) {
	return s.uploads.DownloadURL(ctx, userID, objectKey)
}

func (s *Service) CommonUploadURL(ctx context.Context, objectKey string) (string, error) {
	return s.uploads.CommonUploadURL(ctx, s.commonBucket, objectKey)
}

// --- usage ---

func (s *Service) UsageReport(ctx context.Context, userID uuid.UUID) (quota.Usage, error) {
	return s.ledger.UsageReport(ctx, userID)
}
