package auth

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	clock  Clock
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{
		store:  NewStore(db),
		secret: secret,
		ttl:    ttl,
		clock:  realClock{},
	}
}

// Register creates a user with a bcrypt-hashed password. Plaintext is never
// stored. Duplicate usernames report CONFLICT.
func (s *Service) Register(ctx context.Context, username, password string, email *string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.ErrInvalid("username and password required")
	}

	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.ErrConflict("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if email != nil && *email != "" {
		u.Email = sql.NullString{String: *email, Valid: true}
	}

	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and returns a signed token plus the user.
// The same UNAUTHORIZED comes back for unknown users and wrong passwords.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	if username == "" || password == "" {
		return "", nil, apierr.ErrInvalid("username and password required")
	}

	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, apierr.ErrUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apierr.ErrUnauthorized("invalid credentials")
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatInt(u.ID, 10),
		"username": u.Username,
		"exp":      now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, u, nil
}

func (s *Service) Secret() []byte { return s.secret }
