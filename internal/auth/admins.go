package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Admin is a stored administrator account.
type Admin struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminStore loads administrator accounts.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*Admin, error)
}

// PostgresAdminStore reads admins from Postgres.
type PostgresAdminStore struct {
	db *sql.DB
}

// NewPostgresAdminStore constructs a Postgres-backed admin store.
func NewPostgresAdminStore(db *sql.DB) *PostgresAdminStore {
	return &PostgresAdminStore{db: db}
}

// GetByUsername returns the admin with the given username, or nil when absent.
func (s *PostgresAdminStore) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("auth: admin store is not initialized")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admins
		WHERE username = $1
	`, username)

	admin := &Admin{}
	if err := row.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	admin.CreatedAt = admin.CreatedAt.UTC()
	return admin, nil
}

// Service authenticates admins and issues tokens.
type Service struct {
	store    AdminStore
	secret   []byte
	tokenTTL time.Duration
}

// NewService constructs an auth service.
func NewService(store AdminStore, secret []byte, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{store: store, secret: secret, tokenTTL: tokenTTL}
}

// Authenticate verifies credentials and returns a signed token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	if s == nil || s.store == nil {
		return "", errors.New("auth: service is not initialized")
	}
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	admin, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if admin == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return IssueJWT(admin.Username, s.secret, s.tokenTTL)
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
