package access

import (
	"errors"

	"notesync/internal/note/model"
)

// Action is something a user can attempt against a note.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionShare  Action = "share"
	ActionDelete Action = "delete"
)

// ErrForbidden means the user is known but lacks the required permission.
var ErrForbidden = errors.New("forbidden")

// Authorize decides whether userID may perform action on n. It is a pure
// predicate over the supplied note snapshot: no I/O, so callers must evaluate
// it against the same snapshot they are about to mutate.
//
// The owner may do everything. A write grant covers write and read. A read
// grant covers read only. Share and delete are owner-only.
func Authorize(n *model.Note, userID string, action Action) error {
	if n.OwnerID == userID {
		return nil
	}

	permission, ok := n.Collaborators[userID]
	if !ok {
		return ErrForbidden
	}

	switch action {
	case ActionWrite:
		if permission == model.PermissionWrite {
			return nil
		}
	case ActionRead:
		return nil
	}
	return ErrForbidden
}
