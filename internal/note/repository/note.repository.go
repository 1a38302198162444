package repository

import (
	"database/sql"
	"time"

	"notesync/internal/note/model"
	"notesync/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

func (r *NoteRepository) Create(n *model.Note) error {
	_, err := r.DB.Exec(`INSERT INTO notes (id, title, content, owner_id, last_updated, is_archived) VALUES ($1, $2, $3, $4, NOW(), FALSE)`,
		n.ID, n.Title, n.Content, n.OwnerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note: %v", err)
	}
	return err
}

// GetByID fetches the note row together with its collaborator grants.
// Returns sql.ErrNoRows when the note does not exist.
func (r *NoteRepository) GetByID(noteID string) (*model.Note, error) {
	var n model.Note
	err := r.DB.QueryRow("SELECT id, title, content, owner_id, last_updated, is_archived FROM notes WHERE id = $1", noteID).
		Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.LastUpdated, &n.IsArchived)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get note %s: %v", noteID, err)
		}
		return nil, err
	}

	n.Collaborators, err = r.GetCollaborators(noteID)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetCollaborators returns the grant map (user id -> permission) for a note.
// A note with no grants yields an empty, non-nil map.
func (r *NoteRepository) GetCollaborators(noteID string) (map[string]string, error) {
	rows, err := r.DB.Query("SELECT user_id, permission FROM collaborators WHERE note_id = $1", noteID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get collaborators for note %s: %v", noteID, err)
		return nil, err
	}
	defer rows.Close()

	grants := make(map[string]string)
	for rows.Next() {
		var userID, permission string
		if err := rows.Scan(&userID, &permission); err != nil {
			return nil, err
		}
		grants[userID] = permission
	}
	return grants, rows.Err()
}

func (r *NoteRepository) Update(noteID, title, content string) error {
	_, err := r.DB.Exec(`UPDATE notes SET title = $1, content = $2, last_updated = NOW() WHERE id = $3`,
		title, content, noteID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", noteID, err)
	}
	return err
}

func (r *NoteRepository) Delete(noteID string) error {
	_, err := r.DB.Exec("DELETE FROM notes WHERE id = $1", noteID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", noteID, err)
	}
	return err
}

const accessibleNotes = `
	SELECT id, title, content, owner_id, last_updated, is_archived FROM notes WHERE owner_id = $1 AND is_archived = FALSE
	UNION
	SELECT n.id, n.title, n.content, n.owner_id, n.last_updated, n.is_archived
	FROM notes n JOIN collaborators c ON n.id = c.note_id
	WHERE c.user_id = $1 AND n.is_archived = FALSE`

// ListByUser returns the user's owned and shared non-archived notes, newest
// first, without their collaborator maps.
func (r *NoteRepository) ListByUser(userID string, limit, offset int) ([]model.Note, error) {
	rows, err := r.DB.Query(accessibleNotes+` ORDER BY last_updated DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.LastUpdated, &n.IsArchived); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) CountByUser(userID string) (int, error) {
	var total int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM (`+accessibleNotes+`) accessible`, userID).Scan(&total)
	if err != nil {
		logger.Sugar.Errorf("Failed to count notes for user %s: %v", userID, err)
	}
	return total, err
}

// UpsertCollaborator adds a grant or overwrites the permission of an
// existing one, so re-sharing never duplicates an entry.
func (r *NoteRepository) UpsertCollaborator(noteID, userID, permission string) error {
	_, err := r.DB.Exec(`INSERT INTO collaborators (note_id, user_id, permission) VALUES ($1, $2, $3)
		ON CONFLICT (note_id, user_id) DO UPDATE SET permission = $3`, noteID, userID, permission)
	if err != nil {
		logger.Sugar.Errorf("Failed to add collaborator %s to note %s: %v", userID, noteID, err)
	}
	return err
}

func (r *NoteRepository) RemoveCollaborator(noteID, userID string) (int64, error) {
	result, err := r.DB.Exec("DELETE FROM collaborators WHERE note_id = $1 AND user_id = $2", noteID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to remove collaborator %s from note %s: %v", userID, noteID, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NoteRepository) GetUserIDByEmail(email string) (string, error) {
	var userID string
	err := r.DB.QueryRow("SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
	}
	return userID, err
}

// ArchiveStale flips is_archived on every active note whose last update is
// strictly older than cutoff, in one batch. Re-running with the same cutoff
// finds nothing left to change.
func (r *NoteRepository) ArchiveStale(cutoff time.Time) (int64, error) {
	result, err := r.DB.Exec(`UPDATE notes SET is_archived = TRUE WHERE is_archived = FALSE AND last_updated < $1`, cutoff)
	if err != nil {
		logger.Sugar.Errorf("Failed to archive stale notes: %v", err)
		return 0, err
	}
	return result.RowsAffected()
}
