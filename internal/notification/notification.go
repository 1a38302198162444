package notification

import (
	"database/sql"
	"time"

	"notesync/pkg/logger"

	"github.com/google/uuid"
)

// Notification is one append-only share record. Entries are never mutated
// and survive the deletion of the note they reference.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NoteID    string    `json:"note_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Record appends one notification and returns its id.
func (r *Repository) Record(userID, noteID, message string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(`INSERT INTO notifications (id, user_id, note_id, message, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		id, userID, noteID, message)
	if err != nil {
		logger.Sugar.Errorf("Failed to record notification for user %s: %v", userID, err)
		return "", err
	}
	return id, nil
}

func (r *Repository) ListByUser(userID string) ([]Notification, error) {
	rows, err := r.DB.Query("SELECT id, user_id, note_id, message, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notifications for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.NoteID, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
