package models

import (
	"time"

	"github.com/lib/pq"
)

type IncidentStatus string
type IncidentPriority string

const (
	StatusOpen       IncidentStatus = "open"
	StatusInProgress IncidentStatus = "in_progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusClosed     IncidentStatus = "closed"
)

const (
	PriorityLow      IncidentPriority = "low"
	PriorityMedium   IncidentPriority = "medium"
	PriorityHigh     IncidentPriority = "high"
	PriorityCritical IncidentPriority = "critical"
)

// Statuses lists every status in lifecycle order.
var Statuses = []IncidentStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// Priorities lists every priority from lowest to highest.
var Priorities = []IncidentPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (s IncidentStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (p IncidentPriority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Incident is a reported security event. Category and Location are open
// string sets; the store does not constrain them.
type Incident struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	Title        string           `json:"title" gorm:"not null"`
	Description  string           `json:"description" gorm:"type:text;not null"`
	Status       IncidentStatus   `json:"status" gorm:"not null;default:'open'"`
	Priority     IncidentPriority `json:"priority" gorm:"not null;default:'medium'"`
	Category     string           `json:"category" gorm:"not null"`
	Location     string           `json:"location" gorm:"not null"`
	ReporterID   uint             `json:"reporterId" gorm:"not null;index"`
	AssigneeID   *uint            `json:"assigneeId" gorm:"index"`
	EvidenceURLs pq.StringArray   `json:"evidenceUrls" gorm:"type:text[];not null;default:'{}'"`
	ResolvedAt   *time.Time       `json:"resolvedAt"`
	CreatedAt    time.Time        `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (Incident) TableName() string {
	return "incidents"
}
