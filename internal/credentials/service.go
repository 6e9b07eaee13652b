package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"crm-gateway/internal/db"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service checks username/password pairs for the login use case.
type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Authenticate returns the user id for a valid username (email) and
// password. Unknown users, disabled users and wrong passwords all report
// ErrInvalidCredentials; only database failures are returned as-is.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	var (
		userID uuid.UUID
		c      Credential
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, c.password_hash, c.hash_version
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
		  AND u.status = 'active'
	`, username).Scan(&userID, &c.PasswordHash, &c.HashVersion)

	if errors.Is(err, sql.ErrNoRows) {
		// hide whether user exists or not
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("credentials: lookup: %w", err)
	}
	c.UserID = userID.String()

	if err := VerifyPassword(&c, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return c.UserID, nil
}
