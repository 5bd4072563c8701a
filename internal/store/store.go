// Package store is the Record Store: per-collection create/read/update over
// accounts, incidents and incident updates.
package store

import (
	"context"

	"github.com/secdesk/backend/internal/models"
)

// Store failures are reported as *apperr.NotFoundError when an identifier does
// not resolve and *apperr.StorageError for everything else.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) error
	ListUsers(ctx context.Context) ([]models.User, error)
	// GetUsersByIDs resolves a set of accounts in one round trip. Unknown ids
	// are silently absent from the result.
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)

	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uint) (*models.Incident, error)
	// ListIncidents returns every incident, newest first.
	ListIncidents(ctx context.Context) ([]models.Incident, error)
	UpdateIncident(ctx context.Context, id uint, fields map[string]interface{}) error

	CreateIncidentUpdate(ctx context.Context, update *models.IncidentUpdate) error
	// ListIncidentUpdates returns the timeline of one incident, newest first.
	ListIncidentUpdates(ctx context.Context, incidentID uint) ([]models.IncidentUpdate, error)

	// Transaction runs fn against a Store bound to a single database
	// transaction. A non-nil return from fn rolls back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
