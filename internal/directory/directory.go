// Package directory loads principals from the users table.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crm-gateway/internal/db"
	"crm-gateway/internal/identity"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrUserNotFound is returned when no active user has the requested id.
var ErrUserNotFound = errors.New("directory: user not found")

// Loader resolves user ids to principals. Concurrent loads of the same id
// share one query.
type Loader struct {
	db    *db.DB
	group singleflight.Group
}

func NewLoader(db *db.DB) *Loader {
	return &Loader{db: db}
}

// Principal returns the principal for id. Malformed ids and disabled users
// report ErrUserNotFound.
func (l *Loader) Principal(ctx context.Context, id string) (*identity.Principal, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	v, err, _ := l.group.Do(userID.String(), func() (any, error) {
		return l.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	// callers of a shared load must not see each other's mutations
	p := *v.(*identity.Principal)
	return &p, nil
}

func (l *Loader) load(ctx context.Context, userID uuid.UUID) (*identity.Principal, error) {
	var (
		id    uuid.UUID
		p     identity.Principal
		email string
	)

	err := l.db.QueryRowContext(ctx, `
		SELECT id, name, email, organization_id
		FROM users
		WHERE id = $1
		  AND status = 'active'
	`, userID).Scan(&id, &p.Name, &email, &p.OrganizationID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("directory: load user: %w", err)
	}

	p.ID = id.String()
	p.Email = email
	return &p, nil
}
