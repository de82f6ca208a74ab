package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses are free text; these are the values the UI writes.
const (
	EventStatusDraft     = "Draft"
	EventStatusPublished = "Published"
	EventStatusCancelled = "Cancelled"
)

// Event represents a managed event. MaxParticipants of nil or 0 means
// unlimited capacity.
type Event struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"size:255;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	Location        string          `json:"location" gorm:"size:255"`
	StartTime       time.Time       `json:"start_time" gorm:"not null;index"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	CreatedBy       uint            `json:"created_by" gorm:"not null;index"`
	MaxParticipants *int            `json:"max_participants,omitempty"`
	Status          string          `json:"status" gorm:"size:50;default:'Draft'"`
	Cost            decimal.Decimal `json:"cost" gorm:"type:decimal(20,2);default:0"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Participants []EventParticipant `json:"participants,omitempty" gorm:"foreignKey:EventID"`
}

// IsUpcoming reports whether the event has not started yet.
func (e *Event) IsUpcoming() bool {
	return e.StartTime.After(time.Now().UTC())
}
