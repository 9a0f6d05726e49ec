package namespace

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Separator is the path separator for materialized paths. Names must
	// never contain it.
	Separator = "/"
	// RootFolderName is the reserved name of every user's root folder.
	RootFolderName = "/"
)

// Folder is a node in a user's namespace tree. Exactly one folder per user
// has a nil ParentID: the root, created at registration.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsRoot reports whether the folder is the user's root.
func (f Folder) IsRoot() bool {
	return f.ParentID == nil
}

// File is a leaf record pointing at an object in the user's bucket.
// ObjectKey is immutable after creation; Size is the caller-declared byte
// count used for quota accounting and is never reconciled against the bytes
// actually stored.
type File struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ObjectKey string    `json:"object_key"`
	FolderID  uuid.UUID `json:"folder_id"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type,omitempty"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryType discriminates mixed folder/file listings.
type EntryType string

const (
	EntryFolder EntryType = "folder"
	EntryFile   EntryType = "file"
)

// Entry is one element of a mixed directory listing.
type Entry struct {
	Type   EntryType `json:"type"`
	Folder *Folder   `json:"folder,omitempty"`
	File   *File     `json:"file,omitempty"`
}

func (e Entry) createdAt() time.Time {
	if e.Folder != nil {
		return e.Folder.CreatedAt
	}
	if e.File != nil {
		return e.File.CreatedAt
	}
	return time.Time{}
}

// ItemType names what is being moved when listing destinations.
type ItemType string

const (
	ItemFile   ItemType = "file"
	ItemFolder ItemType = "folder"
)

// Destination is a candidate move target with its materialized path.
type Destination struct {
	Folder Folder `json:"folder"`
	Path   string `json:"path"`
}

// FileFilter is the typed query specification for file lookups. Repositories
// translate it into SQL; services stay free of query vocabulary.
type FileFilter struct {
	UserID       uuid.UUID
	NameContains string
	FolderID     *uuid.UUID
}
