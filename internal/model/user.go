package model

import (
	"strings"
	"time"
)

// User represents an account in the relational store, the authoritative
// record for a logical user. PasswordHash is empty while authentication is
// delegated to the external identity provider.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	FullName     string    `json:"full_name" gorm:"size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"` // Never expose in JSON
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	IsAdmin      bool      `json:"is_admin" gorm:"default:false"`
	DepartmentID *uint     `json:"department_id,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
}

// NormalizeEmail returns the canonical form used for all email comparisons.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// CanonicalEmail is the storage form of an address: trimmed and lowercased,
// so the unique index on users.email enforces one row per mailbox even under
// a case-sensitive collation.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
