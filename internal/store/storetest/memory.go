// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/store"
)

// Memory is an in-memory store.Store. Transactions snapshot state and
// restore it when fn fails. Timestamps advance one minute per write.
type Memory struct {
	mu sync.Mutex

	users     map[uint]models.User
	incidents map[uint]models.Incident
	updates   []models.IncidentUpdate
	nextID    uint
	clock     time.Time

	// Failure injection.
	CreateUpdateErr  error
	ListIncidentsErr error

	UsersByIDsCalls   int
	TransactionsBegun int
}

func NewMemory() *Memory {
	return &Memory{
		users:     map[uint]models.User{},
		incidents: map[uint]models.Incident{},
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *Memory) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	f.nextID++
	return f.clock
}

var _ store.Store = (*Memory)(nil)

func (f *Memory) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &apperr.StorageError{
				Op:         "create user",
				Code:       "23505",
				Constraint: "users_email_key",
				Err:        errors.New("duplicate key value violates unique constraint"),
			}
		}
	}
	now := f.tick()
	user.ID, user.CreatedAt, user.UpdatedAt = f.nextID, now, now
	f.users[user.ID] = *user
	return nil
}

func (f *Memory) GetUser(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return &u, nil
}

func (f *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, &apperr.NotFoundError{Entity: "user"}
}

func (f *Memory) UpdateUser(ctx context.Context, id uint, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	if v, ok := fields["full_name"].(string); ok {
		u.FullName = v
	}
	if v, ok := fields["password"].(string); ok {
		u.Password = v
	}
	if v, ok := fields["avatar_url"]; ok {
		if s, ok := v.(*string); ok {
			u.AvatarURL = s
		} else {
			u.AvatarURL = nil
		}
	}
	u.UpdatedAt = f.tick()
	f.users[id] = u
	return nil
}

func (f *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *Memory) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UsersByIDsCalls++
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *Memory) CreateIncident(ctx context.Context, incident *models.Incident) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	incident.ID, incident.CreatedAt, incident.UpdatedAt = f.nextID, now, now
	f.incidents[incident.ID] = *incident
	return nil
}

func (f *Memory) GetIncident(ctx context.Context, id uint) (*models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc, ok := f.incidents[id]
	if !ok {
		return nil, apperr.NotFound("incident", id)
	}
	return &inc, nil
}

func (f *Memory) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListIncidentsErr != nil {
		return nil, f.ListIncidentsErr
	}
	out := make([]models.Incident, 0, len(f.incidents))
	for _, inc := range f.incidents {
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Memory) UpdateIncident(ctx context.Context, id uint, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inc, ok := f.incidents[id]
	if !ok {
		return apperr.NotFound("incident", id)
	}
	for k, v := range fields {
		switch k {
		case "status":
			inc.Status = v.(models.IncidentStatus)
		case "resolved_at":
			if t, ok := v.(*time.Time); ok {
				inc.ResolvedAt = t
			} else {
				inc.ResolvedAt = nil
			}
		case "assignee_id":
			if aid, ok := v.(uint); ok {
				inc.AssigneeID = &aid
			} else {
				inc.AssigneeID = nil
			}
		}
	}
	inc.UpdatedAt = f.tick()
	f.incidents[id] = inc
	return nil
}

func (f *Memory) CreateIncidentUpdate(ctx context.Context, update *models.IncidentUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateUpdateErr != nil {
		return f.CreateUpdateErr
	}
	now := f.tick()
	update.ID, update.CreatedAt = f.nextID, now
	f.updates = append(f.updates, *update)
	return nil
}

func (f *Memory) ListIncidentUpdates(ctx context.Context, incidentID uint) ([]models.IncidentUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IncidentUpdate
	for i := len(f.updates) - 1; i >= 0; i-- {
		if f.updates[i].IncidentID == incidentID {
			out = append(out, f.updates[i])
		}
	}
	return out, nil
}

func (f *Memory) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	f.mu.Lock()
	f.TransactionsBegun++
	incidents := make(map[uint]models.Incident, len(f.incidents))
	for k, v := range f.incidents {
		incidents[k] = v
	}
	updates := append([]models.IncidentUpdate(nil), f.updates...)
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.incidents, f.updates = incidents, updates
		f.mu.Unlock()
		return err
	}
	return nil
}

// UpdatesFor returns the timeline of one incident in insertion order.
func (f *Memory) UpdatesFor(incidentID uint) []models.IncidentUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.IncidentUpdate
	for _, u := range f.updates {
		if u.IncidentID == incidentID {
			out = append(out, u)
		}
	}
	return out
}

// AddUser seeds an account and returns it with its assigned id.
func (f *Memory) AddUser(name, email string) models.User {
	u := models.User{FullName: name, Email: email, Password: "hash", Role: models.DefaultRole}
	_ = f.CreateUser(context.Background(), &u)
	return u
}
