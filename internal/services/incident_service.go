package services

import (
	"context"
	"strings"
	"time"

	"github.com/secdesk/backend/internal/analytics"
	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/logger"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/store"
	"golang.org/x/sync/errgroup"
)

// CategorySuggestions is offered to the incident form. Category stays free
// text; nothing validates against this list.
var CategorySuggestions = []string{
	"unauthorized_access",
	"theft",
	"vandalism",
	"suspicious_activity",
	"fire",
	"medical",
	"safety_hazard",
	"cyber",
	"other",
}

// CreateIncidentInput carries the reporter-supplied fields of a new incident.
type CreateIncidentInput struct {
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Category     string                  `json:"category"`
	Location     string                  `json:"location"`
	Priority     models.IncidentPriority `json:"priority"`
	EvidenceURLs []string                `json:"evidenceUrls"`

	// Status is accepted for wire compatibility and ignored.
	Status models.IncidentStatus `json:"status,omitempty"`
}

// IncidentFilter narrows ListIncidents. Zero fields are not applied.
type IncidentFilter struct {
	Search   string
	Status   models.IncidentStatus
	Priority models.IncidentPriority
}

// Matches reports whether inc satisfies every set predicate.
func (f IncidentFilter) Matches(inc models.Incident) bool {
	if f.Status != "" && inc.Status != f.Status {
		return false
	}
	if f.Priority != "" && inc.Priority != f.Priority {
		return false
	}
	if strings.TrimSpace(f.Search) != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(inc.Title), q) &&
			!strings.Contains(strings.ToLower(inc.Description), q) {
			return false
		}
	}
	return true
}

func (f IncidentFilter) validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return apperr.Invalid("status", "unknown status "+string(f.Status))
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return apperr.Invalid("priority", "unknown priority "+string(f.Priority))
	}
	return nil
}

// EnrichedIncident is an incident with its reporter and assignee resolved.
// Either summary is nil when the account cannot be resolved.
type EnrichedIncident struct {
	models.Incident
	Reporter *models.AccountSummary `json:"reporter"`
	Assignee *models.AccountSummary `json:"assignee"`
}

// EnrichedUpdate is a timeline entry with its author resolved.
type EnrichedUpdate struct {
	models.IncidentUpdate
	Author *models.AccountSummary `json:"author"`
}

// IncidentDetail bundles an incident with its timeline.
type IncidentDetail struct {
	Incident EnrichedIncident `json:"incident"`
	Updates  []EnrichedUpdate `json:"updates"`
}

type IncidentService struct {
	store store.Store
	now   func() time.Time
}

// NewIncidentService creates the incident service. A nil clock defaults to
// time.Now in UTC.
func NewIncidentService(s store.Store, now func() time.Time) *IncidentService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &IncidentService{store: s, now: now}
}

// CreateIncident persists a new open incident reported by authorID.
func (s *IncidentService) CreateIncident(ctx context.Context, in CreateIncidentInput, authorID uint) (*models.Incident, error) {
	if authorID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	incident := &models.Incident{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Location:     strings.TrimSpace(in.Location),
		Status:       models.StatusOpen,
		Priority:     in.Priority,
		ReporterID:   authorID,
		EvidenceURLs: []string{},
	}

	required := []struct{ field, value string }{
		{"title", incident.Title},
		{"description", incident.Description},
		{"category", incident.Category},
		{"location", incident.Location},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, apperr.Invalid(r.field, "must not be empty")
		}
	}

	if incident.Priority == "" {
		incident.Priority = models.PriorityMedium
	}
	if !incident.Priority.Valid() {
		return nil, apperr.Invalid("priority", "unknown priority "+string(incident.Priority))
	}

	for _, url := range in.EvidenceURLs {
		if strings.TrimSpace(url) == "" {
			return nil, apperr.Invalid("evidenceUrls", "must not contain blank entries")
		}
		incident.EvidenceURLs = append(incident.EvidenceURLs, url)
	}

	if err := s.store.CreateIncident(ctx, incident); err != nil {
		return nil, err
	}

	logger.WithIncident(incident.ID, authorID).WithField("priority", incident.Priority).Info("Incident created")
	return incident, nil
}

// TransitionStatus moves an incident to newStatus and records the change on
// its timeline in one transaction. Any status may follow any other, including
// itself.
func (s *IncidentService) TransitionStatus(ctx context.Context, incidentID uint, newStatus models.IncidentStatus, actorID uint) error {
	if actorID == 0 {
		return apperr.ErrUnauthenticated
	}
	if !newStatus.Valid() {
		return apperr.Invalid("status", "unknown status "+string(newStatus))
	}

	fields := map[string]interface{}{
		"status":      newStatus,
		"resolved_at": nil,
	}
	if newStatus == models.StatusResolved {
		resolvedAt := s.now()
		fields["resolved_at"] = &resolvedAt
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.UpdateIncident(ctx, incidentID, fields); err != nil {
			return err
		}
		return tx.CreateIncidentUpdate(ctx, &models.IncidentUpdate{
			IncidentID: incidentID,
			UserID:     actorID,
			Type:       models.UpdateTypeStatusChange,
			Content:    models.StatusChangePrefix + string(newStatus),
		})
	})
	if err != nil {
		return err
	}

	logger.WithIncident(incidentID, actorID).WithField("status", newStatus).Info("Incident status changed")
	return nil
}

// AddComment appends a comment to the incident's timeline. The incident
// itself is not modified.
func (s *IncidentService) AddComment(ctx context.Context, incidentID uint, content string, authorID uint) (*models.IncidentUpdate, error) {
	if authorID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Invalid("content", "must not be empty")
	}
	if _, err := s.store.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}

	update := &models.IncidentUpdate{
		IncidentID: incidentID,
		UserID:     authorID,
		Type:       models.UpdateTypeComment,
		Content:    content,
	}
	if err := s.store.CreateIncidentUpdate(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// AssignIncident sets or, with a nil assigneeID, clears the assignee.
func (s *IncidentService) AssignIncident(ctx context.Context, incidentID uint, assigneeID *uint, actorID uint) error {
	if actorID == 0 {
		return apperr.ErrUnauthenticated
	}

	var value interface{}
	if assigneeID != nil {
		if _, err := s.store.GetUser(ctx, *assigneeID); err != nil {
			return err
		}
		value = *assigneeID
	}

	if err := s.store.UpdateIncident(ctx, incidentID, map[string]interface{}{"assignee_id": value}); err != nil {
		return err
	}

	logger.WithIncident(incidentID, actorID).WithField("assignee_id", value).Info("Incident assignee changed")
	return nil
}

func (s *IncidentService) GetIncidentWithContext(ctx context.Context, incidentID uint) (*EnrichedIncident, error) {
	incident, err := s.store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	enriched, err := s.enrichIncidents(ctx, []models.Incident{*incident})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// ListIncidents returns the incidents matching filter, newest first.
func (s *IncidentService) ListIncidents(ctx context.Context, filter IncidentFilter) ([]EnrichedIncident, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	all, err := s.store.ListIncidents(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Incident, 0, len(all))
	for _, inc := range all {
		if filter.Matches(inc) {
			matched = append(matched, inc)
		}
	}
	return s.enrichIncidents(ctx, matched)
}

// ListUpdates returns the incident's timeline, newest first.
func (s *IncidentService) ListUpdates(ctx context.Context, incidentID uint) ([]EnrichedUpdate, error) {
	updates, err := s.store.ListIncidentUpdates(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.UserID)
	}
	accounts, err := s.resolveAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedUpdate, len(updates))
	for i, u := range updates {
		enriched[i] = EnrichedUpdate{IncidentUpdate: u, Author: accounts[u.UserID]}
	}
	return enriched, nil
}

// GetIncidentDetail fetches the enriched incident and its timeline
// concurrently.
func (s *IncidentService) GetIncidentDetail(ctx context.Context, incidentID uint) (*IncidentDetail, error) {
	var (
		incident *EnrichedIncident
		updates  []EnrichedUpdate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incident, err = s.GetIncidentWithContext(gctx, incidentID)
		return err
	})
	g.Go(func() error {
		var err error
		updates, err = s.ListUpdates(gctx, incidentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &IncidentDetail{Incident: *incident, Updates: updates}, nil
}

// Summary computes dashboard statistics over the current incident set.
func (s *IncidentService) Summary(ctx context.Context) (analytics.Summary, error) {
	incidents, err := s.store.ListIncidents(ctx)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(incidents), nil
}

func (s *IncidentService) enrichIncidents(ctx context.Context, incidents []models.Incident) ([]EnrichedIncident, error) {
	ids := make([]uint, 0, len(incidents)*2)
	for _, inc := range incidents {
		ids = append(ids, inc.ReporterID)
		if inc.AssigneeID != nil {
			ids = append(ids, *inc.AssigneeID)
		}
	}
	accounts, err := s.resolveAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedIncident, len(incidents))
	for i, inc := range incidents {
		enriched[i] = EnrichedIncident{Incident: inc, Reporter: accounts[inc.ReporterID]}
		if inc.AssigneeID != nil {
			enriched[i].Assignee = accounts[*inc.AssigneeID]
		}
	}
	return enriched, nil
}

// resolveAccounts looks up every distinct id with a single store call.
func (s *IncidentService) resolveAccounts(ctx context.Context, ids []uint) (map[uint]*models.AccountSummary, error) {
	seen := make(map[uint]struct{}, len(ids))
	distinct := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	out := make(map[uint]*models.AccountSummary, len(distinct))
	if len(distinct) == 0 {
		return out, nil
	}

	users, err := s.store.GetUsersByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		summary := u.Summary()
		out[u.ID] = &summary
	}
	return out, nil
}
