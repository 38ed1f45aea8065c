package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        sql.NullString
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

// GetByUsername returns (nil, nil) when the user does not exist.
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT user_id, username, password_hash, email, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
INSERT INTO users (username, password_hash, email, created_at)
VALUES (?, ?, ?, ?)
`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Email, u.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}
