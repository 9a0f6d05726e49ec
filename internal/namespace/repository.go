package namespace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const folderColumns = "id, name, parent_id, user_id, created_at, updated_at"
const fileColumns = "id, name, object_key, folder_id, size, mime_type, user_id, created_at, updated_at"

// Repository provides access to folder and file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new namespace repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateFolder inserts a new folder row.
func (r *Repository) CreateFolder(ctx context.Context, folder Folder) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO folders (id, name, parent_id, user_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + folderColumns + `;`

	row := r.pool.QueryRow(ctx, query, folder.ID, folder.Name, folder.ParentID, folder.UserID)
	stored, err := scanFolder(row)
	if err != nil {
		return Folder{}, fmt.Errorf("create folder: %w", err)
	}
	return stored, nil
}

// GetFolder fetches a folder ensuring ownership.
func (r *Repository) GetFolder(ctx context.Context, userID, folderID uuid.UUID) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1 AND user_id = $2;`

	folder, err := scanFolder(r.pool.QueryRow(ctx, query, folderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrNotFound
		}
		return Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

// RootFolder fetches the user's root folder.
func (r *Repository) RootFolder(ctx context.Context, userID uuid.UUID) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id = $1 AND parent_id IS NULL;`

	folder, err := scanFolder(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrNotFound
		}
		return Folder{}, fmt.Errorf("root folder: %w", err)
	}
	return folder, nil
}

// ListChildFolders returns the direct child folders of a parent.
func (r *Repository) ListChildFolders(ctx context.Context, userID, parentID uuid.UUID) ([]Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + folderColumns + `
FROM folders
WHERE user_id = $1 AND parent_id = $2
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// ListAllFolders returns every folder owned by the user. Descendant sets and
// materialized paths are computed in memory from this single load.
func (r *Repository) ListAllFolders(ctx context.Context, userID uuid.UUID) ([]Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id = $1;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// UpdateFolder atomically updates name and parent of a folder.
func (r *Repository) UpdateFolder(ctx context.Context, userID, folderID uuid.UUID, name string, parentID *uuid.UUID) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE folders
SET name = $3, parent_id = $4, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + folderColumns + `;`

	folder, err := scanFolder(r.pool.QueryRow(ctx, query, folderID, userID, name, parentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrNotFound
		}
		return Folder{}, fmt.Errorf("update folder: %w", err)
	}
	return folder, nil
}

// DeleteFolder removes a single folder row. Children must be gone first.
func (r *Repository) DeleteFolder(ctx context.Context, userID, folderID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM folders WHERE id = $1 AND user_id = $2;`, folderID, userID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFile inserts metadata for a new file.
func (r *Repository) CreateFile(ctx context.Context, file File) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, name, object_key, folder_id, size, mime_type, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		file.ID,
		file.Name,
		file.ObjectKey,
		file.FolderID,
		file.Size,
		file.MimeType,
		file.UserID,
	)

	stored, err := scanFile(row)
	if err != nil {
		return File{}, fmt.Errorf("create file: %w", err)
	}
	return stored, nil
}

// GetFile fetches file metadata ensuring ownership.
func (r *Repository) GetFile(ctx context.Context, userID, fileID uuid.UUID) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2;`

	file, err := scanFile(r.pool.QueryRow(ctx, query, fileID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// GetFileByObjectKey fetches file metadata by its storage key, ensuring ownership.
func (r *Repository) GetFileByObjectKey(ctx context.Context, userID uuid.UUID, objectKey string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE object_key = $1 AND user_id = $2;`

	file, err := scanFile(r.pool.QueryRow(ctx, query, objectKey, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("get file by object key: %w", err)
	}
	return file, nil
}

// UpdateFile updates the user-mutable fields: name and folder.
func (r *Repository) UpdateFile(ctx context.Context, userID, fileID uuid.UUID, name string, folderID uuid.UUID) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET name = $3, folder_id = $4, updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + fileColumns + `;`

	file, err := scanFile(r.pool.QueryRow(ctx, query, fileID, userID, name, folderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("update file: %w", err)
	}
	return file, nil
}

// DeleteFile removes a file row.
func (r *Repository) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1 AND user_id = $2;`, fileID, userID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFilesInFolder returns the direct file children of a folder.
func (r *Repository) ListFilesInFolder(ctx context.Context, userID, folderID uuid.UUID) ([]File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE user_id = $1 AND folder_id = $2
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// SearchFiles runs a paginated case-insensitive substring search ordered by
// last update descending, returning the page and the total match count.
func (r *Repository) SearchFiles(ctx context.Context, filter FileFilter, offset, limit int) ([]File, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	where := `WHERE user_id = $1 AND name ILIKE '%' || $2 || '%'`
	args := []any{filter.UserID, filter.NameContains}
	if filter.FolderID != nil {
		where += ` AND folder_id = $3`
		args = append(args, *filter.FolderID)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM files ` + where + `;`
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	query := fmt.Sprintf(`
SELECT %s
FROM files
%s
ORDER BY updated_at DESC
OFFSET $%d LIMIT $%d;`, fileColumns, where, len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search files: %w", err)
	}
	defer rows.Close()

	files, err := collectFiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// UserBucket resolves the owning user's bucket name.
func (r *Repository) UserBucket(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var bucket string
	err := r.pool.QueryRow(ctx, `SELECT bucket_name FROM users WHERE id = $1;`, userID).Scan(&bucket)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("user bucket: %w", err)
	}
	return bucket, nil
}

func scanFolder(row pgx.Row) (Folder, error) {
	var folder Folder
	err := row.Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.UserID, &folder.CreatedAt, &folder.UpdatedAt)
	return folder, err
}

func collectFolders(rows pgx.Rows) ([]Folder, error) {
	var folders []Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func scanFile(row pgx.Row) (File, error) {
	var file File
	err := row.Scan(&file.ID, &file.Name, &file.ObjectKey, &file.FolderID, &file.Size, &file.MimeType, &file.UserID, &file.CreatedAt, &file.UpdatedAt)
	return file, err
}

func collectFiles(rows pgx.Rows) ([]File, error) {
	var files []File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}
