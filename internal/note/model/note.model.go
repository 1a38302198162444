package model

import "time"

const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

// ValidPermission reports whether p is a grantable permission level.
func ValidPermission(p string) bool {
	return p == PermissionRead || p == PermissionWrite
}

// Note is the unit of collaboration. Collaborators maps user id to permission
// level; the owner is never listed there and implicitly holds full rights.
type Note struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	OwnerID       string            `json:"owner_id"`
	Collaborators map[string]string `json:"collaborators"`
	LastUpdated   time.Time         `json:"last_updated"`
	IsArchived    bool              `json:"is_archived"`
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ShareRequest struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type NoteList struct {
	Notes      []Note     `json:"notes"`
	Pagination Pagination `json:"pagination"`
}
