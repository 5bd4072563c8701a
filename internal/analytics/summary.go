// Package analytics derives dashboard statistics from an incident snapshot.
// Everything here is pure: no I/O, no shared state.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/secdesk/backend/internal/models"
)

// LabelCount is one entry of a category or location ranking.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds the counts computed by Summarize.
type Summary struct {
	Total          int                           `json:"total"`
	ByStatus       map[models.IncidentStatus]int `json:"byStatus"`
	Critical       int                           `json:"critical"`
	High           int                           `json:"high"`
	CategoryCounts map[string]int                `json:"categoryCounts"`
	LocationCounts map[string]int                `json:"locationCounts"`

	// first-seen order of labels, used for tie-breaking
	categoryOrder []string
	locationOrder []string
}

// Summarize computes summary statistics over incidents. Every status key is
// present in ByStatus, zero-filled.
func Summarize(incidents []models.Incident) Summary {
	s := Summary{
		Total:          len(incidents),
		ByStatus:       make(map[models.IncidentStatus]int, len(models.Statuses)),
		CategoryCounts: make(map[string]int),
		LocationCounts: make(map[string]int),
	}
	for _, status := range models.Statuses {
		s.ByStatus[status] = 0
	}

	for _, inc := range incidents {
		s.ByStatus[inc.Status]++

		switch inc.Priority {
		case models.PriorityCritical:
			s.Critical++
		case models.PriorityHigh:
			s.High++
		}

		if _, seen := s.CategoryCounts[inc.Category]; !seen {
			s.categoryOrder = append(s.categoryOrder, inc.Category)
		}
		s.CategoryCounts[inc.Category]++

		if _, seen := s.LocationCounts[inc.Location]; !seen {
			s.locationOrder = append(s.locationOrder, inc.Location)
		}
		s.LocationCounts[inc.Location]++
	}

	return s
}

// TopCategories returns up to n categories by descending count. Ties keep the
// order in which the category first appeared in the input.
func (s Summary) TopCategories(n int) []LabelCount {
	return top(s.categoryOrder, s.CategoryCounts, n)
}

// TopLocations is TopCategories for locations.
func (s Summary) TopLocations(n int) []LabelCount {
	return top(s.locationOrder, s.LocationCounts, n)
}

func top(order []string, counts map[string]int, n int) []LabelCount {
	if n <= 0 || len(order) == 0 {
		return []LabelCount{}
	}

	ranked := make([]LabelCount, 0, len(order))
	for _, label := range order {
		ranked = append(ranked, LabelCount{Label: label, Count: counts[label]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Ratio returns count/Total. ok is false when Total is zero.
func (s Summary) Ratio(count int) (ratio float64, ok bool) {
	if s.Total == 0 {
		return 0, false
	}
	return float64(count) / float64(s.Total), true
}

// Percent formats count as a whole-number share of Total. An empty snapshot
// yields "0%".
func (s Summary) Percent(count int) string {
	ratio, ok := s.Ratio(count)
	if !ok {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}
