package model

import "time"

// Notification is an in-app message shown to a user, typically written as a
// side effect of event registration.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	EventID   *uint     `json:"event_id,omitempty" gorm:"index"`
	Message   string    `json:"message" gorm:"size:500;not null"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// IsNew reports whether the notification is unread and less than a day old.
func (n *Notification) IsNew() bool {
	return !n.IsRead && time.Since(n.CreatedAt) < 24*time.Hour
}
