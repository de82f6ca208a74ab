package model

import "time"

// Feedback is a participant's rating and comment for an event.
type Feedback struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EventID     uint      `json:"event_id" gorm:"not null;index"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Rating      *int      `json:"rating,omitempty"`
	Comment     string    `json:"comment,omitempty" gorm:"type:text"`
	SubmittedAt time.Time `json:"submitted_at"`
}
