package analytics

import (
	"testing"

	"github.com/secdesk/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incident(status models.IncidentStatus, priority models.IncidentPriority, category, location string) models.Incident {
	return models.Incident{Status: status, Priority: priority, Category: category, Location: location}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0, s.Critical)
	assert.Equal(t, 0, s.High)
	assert.Empty(t, s.CategoryCounts)
	assert.Empty(t, s.LocationCounts)
	require.Len(t, s.ByStatus, 4)
	for _, status := range models.Statuses {
		count, ok := s.ByStatus[status]
		assert.True(t, ok, "status %s must be present", status)
		assert.Equal(t, 0, count)
	}

	assert.Empty(t, s.TopCategories(3))
	assert.NotNil(t, s.TopCategories(3))
	assert.Empty(t, s.TopLocations(3))

	assert.Equal(t, "0%", s.Percent(0))
	_, ok := s.Ratio(0)
	assert.False(t, ok)
}

func TestSummarizeTwoIncidents(t *testing.T) {
	a := incident(models.StatusOpen, models.PriorityCritical, "fire", "Building 1")
	b := incident(models.StatusOpen, models.PriorityLow, "theft", "Building 2")

	s := Summarize([]models.Incident{a, b})

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Critical)
	assert.Equal(t, 0, s.High)
	assert.Equal(t, map[string]int{"fire": 1, "theft": 1}, s.CategoryCounts)
	assert.Equal(t, map[string]int{"Building 1": 1, "Building 2": 1}, s.LocationCounts)
	assert.Equal(t, 2, s.ByStatus[models.StatusOpen])
	assert.Equal(t, 0, s.ByStatus[models.StatusClosed])

	assert.Equal(t, []LabelCount{{Label: "fire", Count: 1}}, s.TopCategories(1))
	assert.Equal(t, []LabelCount{{Label: "Building 1", Count: 1}}, s.TopLocations(1))
}

func TestTopCategoriesOrdering(t *testing.T) {
	incidents := []models.Incident{
		incident(models.StatusOpen, models.PriorityHigh, "phishing", "HQ"),
		incident(models.StatusOpen, models.PriorityHigh, "malware", "HQ"),
		incident(models.StatusResolved, models.PriorityLow, "theft", "Lab"),
		incident(models.StatusClosed, models.PriorityMedium, "malware", "Lab"),
		incident(models.StatusInProgress, models.PriorityCritical, "theft", "Annex"),
		incident(models.StatusOpen, models.PriorityMedium, "fire", "Annex"),
	}

	s := Summarize(incidents)

	assert.Equal(t, 2, s.High)
	assert.Equal(t, 1, s.Critical)
	assert.Equal(t, []LabelCount{
		{Label: "malware", Count: 2},
		{Label: "theft", Count: 2},
		{Label: "phishing", Count: 1},
	}, s.TopCategories(3))

	assert.Len(t, s.TopCategories(10), 4)
	assert.Empty(t, s.TopCategories(0))
	assert.Empty(t, s.TopCategories(-1))

	// HQ, Lab and Annex all have 2; first-seen order wins.
	assert.Equal(t, []LabelCount{
		{Label: "HQ", Count: 2},
		{Label: "Lab", Count: 2},
	}, s.TopLocations(2))
}

func TestSummarizeTotalMatchesLength(t *testing.T) {
	for n := 0; n < 25; n++ {
		incidents := make([]models.Incident, n)
		for i := range incidents {
			incidents[i] = incident(models.Statuses[i%4], models.Priorities[i%4], "cat", "loc")
		}
		s := Summarize(incidents)
		assert.Equal(t, n, s.Total)

		sum := 0
		for _, c := range s.ByStatus {
			sum += c
		}
		assert.Equal(t, n, sum)
	}
}

func TestPercent(t *testing.T) {
	s := Summarize([]models.Incident{
		incident(models.StatusOpen, models.PriorityCritical, "a", "x"),
		incident(models.StatusOpen, models.PriorityLow, "a", "x"),
		incident(models.StatusClosed, models.PriorityLow, "b", "y"),
	})

	assert.Equal(t, "33%", s.Percent(s.Critical))
	assert.Equal(t, "67%", s.Percent(s.ByStatus[models.StatusOpen]))
	assert.Equal(t, "100%", s.Percent(s.Total))

	ratio, ok := s.Ratio(3)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, ratio, 1e-9)
}
