package auth

import (
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

type Service struct {
	Repo     *Repository
	Secret   []byte
	TokenTTL time.Duration
}

func NewService(repo *Repository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{Repo: repo, Secret: secret, TokenTTL: tokenTTL}
}

func (s *Service) Signup(name, email, password string) (*User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if len(password) < 8 {
		return nil, ErrInvalidInput
	}

	if _, err := s.Repo.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.Repo.CreateUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the password and issues an HS256 token whose sub claim is
// the user id, the identity every downstream check keys on.
func (s *Service) Login(email, password string) (*User, string, error) {
	u, err := s.Repo.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.ID,
		"iat": now.Unix(),
		"exp": now.Add(s.TokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return nil, "", err
	}
	return u, signed, nil
}
