package namespace

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ghostdrive/api/internal/pagination"
)

// folderStore abstracts the persistence layer for tree operations.
type folderStore interface {
	CreateFolder(ctx context.Context, folder Folder) (Folder, error)
	GetFolder(ctx context.Context, userID, folderID uuid.UUID) (Folder, error)
	RootFolder(ctx context.Context, userID uuid.UUID) (Folder, error)
	ListChildFolders(ctx context.Context, userID, parentID uuid.UUID) ([]Folder, error)
	ListAllFolders(ctx context.Context, userID uuid.UUID) ([]Folder, error)
	UpdateFolder(ctx context.Context, userID, folderID uuid.UUID, name string, parentID *uuid.UUID) (Folder, error)
	DeleteFolder(ctx context.Context, userID, folderID uuid.UUID) error

	CreateFile(ctx context.Context, file File) (File, error)
	GetFile(ctx context.Context, userID, fileID uuid.UUID) (File, error)
	UpdateFile(ctx context.Context, userID, fileID uuid.UUID, name string, folderID uuid.UUID) (File, error)
	DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error
	ListFilesInFolder(ctx context.Context, userID, folderID uuid.UUID) ([]File, error)
	SearchFiles(ctx context.Context, filter FileFilter, offset, limit int) ([]File, int64, error)

	UserBucket(ctx context.Context, userID uuid.UUID) (string, error)
}

// objectStore is the slice of the object-store gateway the tree needs:
// deleting objects that back removed file records.
type objectStore interface {
	RemoveObject(ctx context.Context, bucket, objectKey string) error
}

// Tree owns the per-user folder/file hierarchy invariants: single root,
// acyclic parent links, name constraints.
type Tree struct {
	store   folderStore
	objects objectStore
	log     *zap.Logger
}

// NewTree constructs the namespace tree service.
func NewTree(store folderStore, objects objectStore, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{store: store, objects: objects, log: log}
}

// ValidateName rejects empty names, the reserved root name, and names
// containing the path separator.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == RootFolderName || strings.Contains(name, Separator) {
		return ErrInvalidName
	}
	return nil
}

// ValidatePath checks a path-style identifier: it must start with the
// separator and must not contain ".." or a doubled separator.
func ValidatePath(path string) error {
	if !strings.HasPrefix(path, Separator) {
		return ErrInvalidPath
	}
	if strings.Contains(path, "..") || strings.Contains(path, Separator+Separator) {
		return ErrInvalidPath
	}
	return nil
}

// CreateFolder creates a folder under the given parent, defaulting to the
// user's root when parentID is nil.
func (t *Tree) CreateFolder(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID) (Folder, error) {
	if err := ValidateName(name); err != nil {
		return Folder{}, err
	}

	parent, err := t.resolveFolder(ctx, userID, parentID)
	if err != nil {
		return Folder{}, err
	}

	folder := Folder{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(name),
		ParentID: &parent.ID,
		UserID:   userID,
	}
	return t.store.CreateFolder(ctx, folder)
}

// UpdateFolder renames and/or moves a folder. The root folder is immutable
// and reported as absent. Re-parenting onto itself is rejected, and moving
// under any of its own descendants is a cycle.
func (t *Tree) UpdateFolder(ctx context.Context, userID, folderID uuid.UUID, newName string, newParentID *uuid.UUID) (Folder, error) {
	folder, err := t.store.GetFolder(ctx, userID, folderID)
	if err != nil {
		return Folder{}, err
	}
	if folder.IsRoot() {
		return Folder{}, ErrNotFound
	}

	if err := ValidateName(newName); err != nil {
		return Folder{}, err
	}

	parentID := folder.ParentID
	if newParentID != nil {
		if *newParentID == folderID {
			return Folder{}, ErrInvalidOperation
		}
		if _, err := t.store.GetFolder(ctx, userID, *newParentID); err != nil {
			return Folder{}, err
		}
		// Enumerate every descendant rather than trusting a depth bound:
		// the tree can be arbitrarily deep.
		descendants, err := t.descendantSet(ctx, userID, folderID)
		if err != nil {
			return Folder{}, err
		}
		if _, ok := descendants[*newParentID]; ok {
			return Folder{}, ErrCycleDetected
		}
		parentID = newParentID
	}

	return t.store.UpdateFolder(ctx, userID, folderID, strings.TrimSpace(newName), parentID)
}

// DeleteFolder recursively deletes a folder: files first (their backing
// objects removed best-effort), then descendant folders depth-first, then the
// folder itself. A partial failure is surfaced as a *CascadeError rather than
// rolled back.
func (t *Tree) DeleteFolder(ctx context.Context, userID, folderID uuid.UUID) error {
	folder, err := t.store.GetFolder(ctx, userID, folderID)
	if err != nil {
		return err
	}
	if folder.IsRoot() {
		return ErrInvalidOperation
	}

	bucket, err := t.store.UserBucket(ctx, userID)
	if err != nil {
		return err
	}

	report := &CascadeError{}
	t.deleteRecursive(ctx, userID, bucket, folder, report)
	if report.hasFailures() {
		return report
	}
	return nil
}

func (t *Tree) deleteRecursive(ctx context.Context, userID uuid.UUID, bucket string, folder Folder, report *CascadeError) bool {
	ok := true

	files, err := t.store.ListFilesInFolder(ctx, userID, folder.ID)
	if err != nil {
		report.Failed = append(report.Failed, "folder:"+folder.ID.String())
		return false
	}
	for _, file := range files {
		// Object removal is best-effort: log and continue so metadata
		// cleanup is maximized.
		if err := t.objects.RemoveObject(ctx, bucket, file.ObjectKey); err != nil {
			t.log.Warn("remove object during cascade delete",
				zap.String("object_key", file.ObjectKey),
				zap.Error(err))
		}
		if err := t.store.DeleteFile(ctx, userID, file.ID); err != nil {
			report.Failed = append(report.Failed, "file:"+file.ID.String())
			ok = false
			continue
		}
		report.Deleted = append(report.Deleted, "file:"+file.ID.String())
	}

	children, err := t.store.ListChildFolders(ctx, userID, folder.ID)
	if err != nil {
		report.Failed = append(report.Failed, "folder:"+folder.ID.String())
		return false
	}
	for _, child := range children {
		if !t.deleteRecursive(ctx, userID, bucket, child, report) {
			ok = false
		}
	}

	if !ok {
		// Children remain, the folder row must stay.
		report.Failed = append(report.Failed, "folder:"+folder.ID.String())
		return false
	}

	if err := t.store.DeleteFolder(ctx, userID, folder.ID); err != nil {
		report.Failed = append(report.Failed, "folder:"+folder.ID.String())
		return false
	}
	report.Deleted = append(report.Deleted, "folder:"+folder.ID.String())
	return true
}

// AncestryPath returns the folder's ancestors ordered root to leaf. The root
// folder has no ancestors by convention.
func (t *Tree) AncestryPath(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) ([]Folder, error) {
	if folderID == nil {
		return []Folder{}, nil
	}

	folder, err := t.store.GetFolder(ctx, userID, *folderID)
	if err != nil {
		return nil, err
	}

	var ancestors []Folder
	for folder.ParentID != nil {
		parent, err := t.store.GetFolder(ctx, userID, *folder.ParentID)
		if err != nil {
			return nil, err
		}
		ancestors = append(ancestors, parent)
		folder = parent
	}

	// Walked leaf to root; reverse into root-to-leaf order.
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}
	if ancestors == nil {
		ancestors = []Folder{}
	}
	return ancestors, nil
}

// ListChildren returns the direct child folders, defaulting to the root.
func (t *Tree) ListChildren(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) ([]Folder, error) {
	folder, err := t.resolveFolder(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	return t.store.ListChildFolders(ctx, userID, folder.ID)
}

// ListDestinations returns candidate move targets with materialized paths,
// sorted lexicographically by path. For folder moves the source folder and
// its entire subtree are excluded; the same invariant is still enforced at
// move time, this listing only improves the picker.
func (t *Tree) ListDestinations(ctx context.Context, userID uuid.UUID, itemType ItemType, sourceFolderID *uuid.UUID) ([]Destination, error) {
	if itemType != ItemFile && itemType != ItemFolder {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidOperation, itemType)
	}

	folders, err := t.store.ListAllFolders(ctx, userID)
	if err != nil {
		return nil, err
	}

	excluded := map[uuid.UUID]struct{}{}
	if itemType == ItemFolder && sourceFolderID != nil {
		excluded[*sourceFolderID] = struct{}{}
		for _, id := range descendantsOf(folders, *sourceFolderID) {
			excluded[id] = struct{}{}
		}
	}

	paths := materializePaths(folders)

	destinations := make([]Destination, 0, len(folders))
	for _, folder := range folders {
		if _, skip := excluded[folder.ID]; skip {
			continue
		}
		destinations = append(destinations, Destination{Folder: folder, Path: paths[folder.ID]})
	}

	sort.Slice(destinations, func(i, j int) bool {
		return destinations[i].Path < destinations[j].Path
	})
	return destinations, nil
}

// ResolveFolderByPath resolves a materialized path to a folder by walking
// name segments from the root.
func (t *Tree) ResolveFolderByPath(ctx context.Context, userID uuid.UUID, path string) (Folder, error) {
	if err := ValidatePath(path); err != nil {
		return Folder{}, err
	}

	folder, err := t.store.RootFolder(ctx, userID)
	if err != nil {
		return Folder{}, err
	}

	trimmed := strings.Trim(path, Separator)
	if trimmed == "" {
		return folder, nil
	}

	for _, segment := range strings.Split(trimmed, Separator) {
		children, err := t.store.ListChildFolders(ctx, userID, folder.ID)
		if err != nil {
			return Folder{}, err
		}
		found := false
		for _, child := range children {
			if child.Name == segment {
				folder = child
				found = true
				break
			}
		}
		if !found {
			return Folder{}, ErrNotFound
		}
	}
	return folder, nil
}

// CreateFile records file metadata in the given folder, defaulting to the
// user's root. The declared size is caller-trusted and never reconciled.
func (t *Tree) CreateFile(ctx context.Context, userID uuid.UUID, name, objectKey string, size int64, folderID *uuid.UUID, mimeType string) (File, error) {
	if err := ValidateName(name); err != nil {
		return File{}, err
	}
	if strings.TrimSpace(objectKey) == "" {
		return File{}, fmt.Errorf("%w: object key required", ErrInvalidOperation)
	}
	if size < 0 {
		return File{}, fmt.Errorf("%w: negative size", ErrInvalidOperation)
	}

	folder, err := t.resolveFolder(ctx, userID, folderID)
	if err != nil {
		return File{}, err
	}

	file := File{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		ObjectKey: objectKey,
		FolderID:  folder.ID,
		Size:      size,
		MimeType:  mimeType,
		UserID:    userID,
	}
	return t.store.CreateFile(ctx, file)
}

// GetFile fetches a single file ensuring ownership.
func (t *Tree) GetFile(ctx context.Context, userID, fileID uuid.UUID) (File, error) {
	return t.store.GetFile(ctx, userID, fileID)
}

// UpdateFile renames and/or moves a file. Files are leaves, so moves need
// ownership validation but no cycle detection.
func (t *Tree) UpdateFile(ctx context.Context, userID, fileID uuid.UUID, newName *string, newFolderID *uuid.UUID) (File, error) {
	file, err := t.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return File{}, err
	}

	name := file.Name
	if newName != nil {
		if err := ValidateName(*newName); err != nil {
			return File{}, err
		}
		name = strings.TrimSpace(*newName)
	}

	folderID := file.FolderID
	if newFolderID != nil {
		if _, err := t.store.GetFolder(ctx, userID, *newFolderID); err != nil {
			return File{}, err
		}
		folderID = *newFolderID
	}

	return t.store.UpdateFile(ctx, userID, fileID, name, folderID)
}

// DeleteFile removes the backing object and then the metadata row.
func (t *Tree) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	file, err := t.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return err
	}

	bucket, err := t.store.UserBucket(ctx, userID)
	if err != nil {
		return err
	}

	if err := t.objects.RemoveObject(ctx, bucket, file.ObjectKey); err != nil {
		return fmt.Errorf("%w: remove object %s: %v", ErrStorageIO, file.ObjectKey, err)
	}

	return t.store.DeleteFile(ctx, userID, fileID)
}

// ListContents returns a paginated mixed listing of a folder's direct child
// folders and files, newest first. Both child sets are loaded and merged in
// memory, so a call costs O(children); directory fan-out is bounded by normal
// use and this is a deliberate non-scalable choice, not an oversight.
func (t *Tree) ListContents(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID, page, limit int) (pagination.Page[Entry], error) {
	page, limit = pagination.Clamp(page, limit)

	folder, err := t.resolveFolder(ctx, userID, folderID)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}

	folders, err := t.store.ListChildFolders(ctx, userID, folder.ID)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}
	files, err := t.store.ListFilesInFolder(ctx, userID, folder.ID)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}

	entries := make([]Entry, 0, len(folders)+len(files))
	for i := range folders {
		entries = append(entries, Entry{Type: EntryFolder, Folder: &folders[i]})
	}
	for i := range files {
		entries = append(entries, Entry{Type: EntryFile, File: &files[i]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].createdAt().After(entries[j].createdAt())
	})

	total := int64(len(entries))
	start := (page - 1) * limit
	if start > len(entries) {
		start = len(entries)
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}

	return pagination.New(entries[start:end], total, page, limit), nil
}

// ListFiles returns a paginated listing of the files directly inside a
// folder, defaulting to the root, ordered by last update descending.
func (t *Tree) ListFiles(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID, page, limit int) (pagination.Page[File], error) {
	page, limit = pagination.Clamp(page, limit)

	folder, err := t.resolveFolder(ctx, userID, folderID)
	if err != nil {
		return pagination.Page[File]{}, err
	}

	files, total, err := t.store.SearchFiles(ctx, FileFilter{
		UserID:   userID,
		FolderID: &folder.ID,
	}, (page-1)*limit, limit)
	if err != nil {
		return pagination.Page[File]{}, err
	}
	return pagination.New(files, total, page, limit), nil
}

// Search returns files whose name contains the query, case-insensitively,
// ordered by last update descending.
func (t *Tree) Search(ctx context.Context, userID uuid.UUID, query string, page, limit int) (pagination.Page[File], error) {
	page, limit = pagination.Clamp(page, limit)

	files, total, err := t.store.SearchFiles(ctx, FileFilter{
		UserID:       userID,
		NameContains: strings.TrimSpace(query),
	}, (page-1)*limit, limit)
	if err != nil {
		return pagination.Page[File]{}, err
	}
	return pagination.New(files, total, page, limit), nil
}

func (t *Tree) resolveFolder(ctx context.Context, userID uuid.UUID, folderID *uuid.UUID) (Folder, error) {
	if folderID == nil {
		return t.store.RootFolder(ctx, userID)
	}
	return t.store.GetFolder(ctx, userID, *folderID)
}

// descendantSet enumerates every descendant of the folder, batch-loading the
// user's folders once instead of issuing one query per level.
func (t *Tree) descendantSet(ctx context.Context, userID, folderID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	folders, err := t.store.ListAllFolders(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := map[uuid.UUID]struct{}{}
	for _, id := range descendantsOf(folders, folderID) {
		set[id] = struct{}{}
	}
	return set, nil
}

func descendantsOf(folders []Folder, rootID uuid.UUID) []uuid.UUID {
	children := map[uuid.UUID][]uuid.UUID{}
	for _, folder := range folders {
		if folder.ParentID != nil {
			children[*folder.ParentID] = append(children[*folder.ParentID], folder.ID)
		}
	}

	var result []uuid.UUID
	queue := []uuid.UUID{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// materializePaths computes the separator-joined root-to-folder path for
// every folder, the root rendered as "/".
func materializePaths(folders []Folder) map[uuid.UUID]string {
	byID := map[uuid.UUID]Folder{}
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	paths := map[uuid.UUID]string{}
	var pathOf func(id uuid.UUID) string
	pathOf = func(id uuid.UUID) string {
		if cached, ok := paths[id]; ok {
			return cached
		}
		folder, ok := byID[id]
		if !ok {
			return ""
		}
		var path string
		if folder.ParentID == nil {
			path = RootFolderName
		} else {
			parentPath := pathOf(*folder.ParentID)
			if parentPath == RootFolderName {
				path = Separator + folder.Name
			} else {
				path = parentPath + Separator + folder.Name
			}
		}
		paths[id] = path
		return path
	}

	for _, folder := range folders {
		pathOf(folder.ID)
	}
	return paths
}
