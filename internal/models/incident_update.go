package models

import (
	"time"
)

type UpdateType string

const (
	UpdateTypeStatusChange UpdateType = "status_change"
	UpdateTypeComment      UpdateType = "comment"
)

// StatusChangePrefix starts the content of every status_change entry.
const StatusChangePrefix = "Status changed to: "

// IncidentUpdate is an immutable timeline entry.
type IncidentUpdate struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	IncidentID uint       `json:"incidentId" gorm:"not null;index"`
	UserID     uint       `json:"userId" gorm:"not null"`
	Type       UpdateType `json:"type" gorm:"not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"index"`
}

func (IncidentUpdate) TableName() string {
	return "incident_updates"
}
