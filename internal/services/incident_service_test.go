package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/secdesk/backend/internal/apperr"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*IncidentService, *storetest.Memory, models.User) {
	t.Helper()
	mem := storetest.NewMemory()
	reporter := mem.AddUser("Dana Reyes", "dana@example.com")
	return NewIncidentService(mem, func() time.Time { return fixedNow }), mem, reporter
}

func validInput() CreateIncidentInput {
	return CreateIncidentInput{
		Title:       "Door forced open",
		Description: "Rear door of the warehouse was found forced",
		Category:    "unauthorized_access",
		Location:    "Warehouse B",
	}
}

func TestCreateIncidentForcesOpenStatus(t *testing.T) {
	svc, _, reporter := newTestService(t)
	ctx := context.Background()

	for _, status := range models.Statuses {
		in := validInput()
		in.Status = status
		in.Priority = models.PriorityHigh

		incident, err := svc.CreateIncident(ctx, in, reporter.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, incident.Status)
		assert.Nil(t, incident.ResolvedAt)
		assert.Equal(t, reporter.ID, incident.ReporterID)
		assert.NotZero(t, incident.ID)
		assert.False(t, incident.CreatedAt.IsZero())
	}
}

func TestCreateIncidentDefaultsAndValidation(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	incident, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, incident.Priority)
	assert.Empty(t, incident.EvidenceURLs)

	tests := []struct {
		name  string
		mut   func(*CreateIncidentInput)
		field string
	}{
		{"empty title", func(in *CreateIncidentInput) { in.Title = "" }, "title"},
		{"whitespace description", func(in *CreateIncidentInput) { in.Description = "  \n" }, "description"},
		{"empty category", func(in *CreateIncidentInput) { in.Category = "" }, "category"},
		{"empty location", func(in *CreateIncidentInput) { in.Location = " " }, "location"},
		{"unknown priority", func(in *CreateIncidentInput) { in.Priority = "urgent" }, "priority"},
		{"blank evidence", func(in *CreateIncidentInput) { in.EvidenceURLs = []string{"http://x/a.png", ""} }, "evidenceUrls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mut(&in)
			_, err := svc.CreateIncident(ctx, in, reporter.ID)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	all, err := mem.ListIncidents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected input must not persist anything")
}

func TestCreateIncidentKeepsEvidenceOrder(t *testing.T) {
	svc, _, reporter := newTestService(t)

	in := validInput()
	in.EvidenceURLs = []string{"http://cdn/b.jpg", "http://cdn/a.jpg", "http://cdn/c.mp4"}
	incident, err := svc.CreateIncident(context.Background(), in, reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, in.EvidenceURLs, []string(incident.EvidenceURLs))
}

func TestMutationsRequireActor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateIncident(ctx, validInput(), 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	err = svc.TransitionStatus(ctx, 1, models.StatusClosed, 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.AddComment(ctx, 1, "hello", 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	err = svc.AssignIncident(ctx, 1, nil, 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTransitionStatusRecordsTimeline(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	incident, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)

	for i, status := range []models.IncidentStatus{
		models.StatusInProgress,
		models.StatusResolved,
		models.StatusResolved,
		models.StatusClosed,
		models.StatusOpen,
	} {
		require.NoError(t, svc.TransitionStatus(ctx, incident.ID, status, reporter.ID))

		got, err := mem.GetIncident(ctx, incident.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		if status == models.StatusResolved {
			require.NotNil(t, got.ResolvedAt)
			assert.Equal(t, fixedNow, *got.ResolvedAt)
		} else {
			assert.Nil(t, got.ResolvedAt)
		}

		timeline := mem.UpdatesFor(incident.ID)
		require.Len(t, timeline, i+1)
		last := timeline[len(timeline)-1]
		assert.Equal(t, models.UpdateTypeStatusChange, last.Type)
		assert.Equal(t, "Status changed to: "+string(status), last.Content)
		assert.Equal(t, reporter.ID, last.UserID)
	}
}

func TestTransitionResolvedThenOpen(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)

	require.NoError(t, svc.TransitionStatus(ctx, a.ID, models.StatusResolved, reporter.ID))
	require.NoError(t, svc.TransitionStatus(ctx, a.ID, models.StatusOpen, reporter.ID))

	got, err := mem.GetIncident(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)
	assert.Len(t, mem.UpdatesFor(a.ID), 2)
}

func TestTransitionStatusErrors(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	incident, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)

	err = svc.TransitionStatus(ctx, incident.ID, "archived", reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = svc.TransitionStatus(ctx, 4242, models.StatusClosed, reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mem.CreateUpdateErr = apperr.Storage("create incident update", errors.New("connection reset"))
	err = svc.TransitionStatus(ctx, incident.ID, models.StatusResolved, reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	got, err := mem.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, got.Status, "status write must roll back with the timeline append")
	assert.Nil(t, got.ResolvedAt)
	assert.Empty(t, mem.UpdatesFor(incident.ID))
}

func TestAddCommentLeavesIncidentUntouched(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Priority = models.PriorityCritical
	incident, err := svc.CreateIncident(ctx, in, reporter.ID)
	require.NoError(t, err)
	before, err := mem.GetIncident(ctx, incident.ID)
	require.NoError(t, err)

	update, err := svc.AddComment(ctx, incident.ID, "  Guard dispatched  ", reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateTypeComment, update.Type)
	assert.Equal(t, "  Guard dispatched  ", update.Content)
	assert.Equal(t, incident.ID, update.IncidentID)
	assert.NotZero(t, update.ID)

	after, err := mem.GetIncident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	_, err = svc.AddComment(ctx, incident.ID, " \t ", reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.AddComment(ctx, 999, "hello", reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListIncidentsFilters(t *testing.T) {
	svc, _, reporter := newTestService(t)
	ctx := context.Background()

	create := func(title, desc string, p models.IncidentPriority) *models.Incident {
		in := validInput()
		in.Title, in.Description, in.Priority = title, desc, p
		inc, err := svc.CreateIncident(ctx, in, reporter.ID)
		require.NoError(t, err)
		return inc
	}
	first := create("Laptop stolen", "From the second floor", models.PriorityHigh)
	second := create("Smoke alarm", "Kitchen sensor tripped", models.PriorityCritical)
	third := create("Badge lost", "Visitor reported a STOLEN badge", models.PriorityHigh)
	require.NoError(t, svc.TransitionStatus(ctx, second.ID, models.StatusInProgress, reporter.ID))

	all, err := svc.ListIncidents(ctx, IncidentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, ids(all))

	got, err := svc.ListIncidents(ctx, IncidentFilter{Search: "stolen"})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, ids(got))

	got, err = svc.ListIncidents(ctx, IncidentFilter{Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID, first.ID}, ids(got))

	got, err = svc.ListIncidents(ctx, IncidentFilter{Status: models.StatusOpen, Priority: models.PriorityCritical})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.ListIncidents(ctx, IncidentFilter{Search: "SENSOR", Priority: models.PriorityCritical})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, ids(got))

	_, err = svc.ListIncidents(ctx, IncidentFilter{Status: "pending"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListIncidentsSearchIsPlainSubstring(t *testing.T) {
	svc, _, reporter := newTestService(t)
	ctx := context.Background()

	in := validInput()
	in.Title, in.Description = "Back door", "Propped open overnight"
	door, err := svc.CreateIncident(ctx, in, reporter.ID)
	require.NoError(t, err)

	got, err := svc.ListIncidents(ctx, IncidentFilter{Search: "door "})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.ListIncidents(ctx, IncidentFilter{Search: "back d"})
	require.NoError(t, err)
	assert.Equal(t, []uint{door.ID}, ids(got))

	got, err = svc.ListIncidents(ctx, IncidentFilter{Search: "   "})
	require.NoError(t, err)
	assert.Equal(t, []uint{door.ID}, ids(got))
}

func TestEnrichmentIsBatched(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()
	officer := mem.AddUser("Sam Ortiz", "sam@example.com")

	for i := 0; i < 5; i++ {
		inc, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
		require.NoError(t, err)
		require.NoError(t, svc.AssignIncident(ctx, inc.ID, &officer.ID, reporter.ID))
	}

	mem.UsersByIDsCalls = 0
	list, err := svc.ListIncidents(ctx, IncidentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.UsersByIDsCalls)
	for _, inc := range list {
		require.NotNil(t, inc.Reporter)
		require.NotNil(t, inc.Assignee)
		assert.Equal(t, models.AccountSummary{FullName: "Dana Reyes", Email: "dana@example.com"}, *inc.Reporter)
		assert.Equal(t, "Sam Ortiz", inc.Assignee.FullName)
	}
}

func TestGetIncidentWithContext(t *testing.T) {
	svc, _, reporter := newTestService(t)
	ctx := context.Background()

	inc, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)

	got, err := svc.GetIncidentWithContext(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, inc.ID, got.ID)
	require.NotNil(t, got.Reporter)
	assert.Equal(t, "dana@example.com", got.Reporter.Email)
	assert.Nil(t, got.Assignee)

	_, err = svc.GetIncidentWithContext(ctx, 31337)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAssignIncident(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()
	officer := mem.AddUser("Sam Ortiz", "sam@example.com")

	inc, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)

	require.NoError(t, svc.AssignIncident(ctx, inc.ID, &officer.ID, reporter.ID))
	got, err := mem.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, officer.ID, *got.AssigneeID)

	require.NoError(t, svc.AssignIncident(ctx, inc.ID, nil, reporter.ID))
	got, err = mem.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
	assert.Empty(t, mem.UpdatesFor(inc.ID))

	missing := uint(777)
	err = svc.AssignIncident(ctx, inc.ID, &missing, reporter.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetIncidentDetail(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()
	officer := mem.AddUser("Sam Ortiz", "sam@example.com")

	inc, err := svc.CreateIncident(ctx, validInput(), reporter.ID)
	require.NoError(t, err)
	require.NoError(t, svc.TransitionStatus(ctx, inc.ID, models.StatusInProgress, officer.ID))
	_, err = svc.AddComment(ctx, inc.ID, "Reviewing footage", reporter.ID)
	require.NoError(t, err)

	detail, err := svc.GetIncidentDetail(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, detail.Incident.Status)
	require.Len(t, detail.Updates, 2)
	assert.Equal(t, "Reviewing footage", detail.Updates[0].Content)
	require.NotNil(t, detail.Updates[0].Author)
	assert.Equal(t, "Dana Reyes", detail.Updates[0].Author.FullName)
	assert.Equal(t, "Sam Ortiz", detail.Updates[1].Author.FullName)

	_, err = svc.GetIncidentDetail(ctx, 555)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSummary(t *testing.T) {
	svc, mem, reporter := newTestService(t)
	ctx := context.Background()

	a := validInput()
	a.Priority, a.Category, a.Location = models.PriorityCritical, "fire", "Building 1"
	b := validInput()
	b.Priority, b.Category, b.Location = models.PriorityLow, "theft", "Building 2"
	_, err := svc.CreateIncident(ctx, a, reporter.ID)
	require.NoError(t, err)
	_, err = svc.CreateIncident(ctx, b, reporter.ID)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 0, summary.High)
	assert.Equal(t, map[string]int{"fire": 1, "theft": 1}, summary.CategoryCounts)

	mem.ListIncidentsErr = apperr.Storage("list incidents", errors.New("timeout"))
	_, err = svc.Summary(ctx)
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func ids(list []EnrichedIncident) []uint {
	out := make([]uint, len(list))
	for i, inc := range list {
		out[i] = inc.ID
	}
	return out
}
