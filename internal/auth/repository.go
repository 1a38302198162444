package auth

import (
	"database/sql"
	"time"

	"notesync/pkg/logger"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) CreateUser(u *User) error {
	_, err := r.DB.Exec(`INSERT INTO users (id, name, email, password_hash, created_at) VALUES ($1, $2, $3, $4, NOW())`,
		u.ID, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		logger.Sugar.Errorf("Failed to create user: %v", err)
	}
	return err
}

// GetUserByEmail returns sql.ErrNoRows when no account uses the email.
func (r *Repository) GetUserByEmail(email string) (*User, error) {
	var u User
	err := r.DB.QueryRow("SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1", email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
		}
		return nil, err
	}
	return &u, nil
}
