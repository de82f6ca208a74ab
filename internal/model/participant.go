package model

import "time"

// ParticipantStatusRegistered marks an active registration. A nil Status is
// treated the same way; any other value means the registration is inactive.
const ParticipantStatusRegistered = "registered"

// EventParticipant links a user to an event. Rows are hard-deleted on
// unregistration, never soft-deleted.
type EventParticipant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	EventID      uint      `json:"event_id" gorm:"not null;index:idx_event_user"`
	UserID       uint      `json:"user_id" gorm:"not null;index:idx_event_user"`
	RegisteredAt time.Time `json:"registered_at"`
	Status       *string   `json:"status,omitempty" gorm:"size:50"`
}

// IsActiveRegistration reports whether the row counts toward capacity.
func (p *EventParticipant) IsActiveRegistration() bool {
	return p.Status == nil || *p.Status == ParticipantStatusRegistered
}
