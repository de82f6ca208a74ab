package repository

import (
	"context"

	"gorm.io/gorm"

	"eventhub/internal/model"
)

// activeCondition matches rows that count as active registrations.
const activeCondition = "(status IS NULL OR status = ?)"

// ParticipantRepository defines persistence operations for event registrations.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *model.EventParticipant) error
	CountActive(ctx context.Context, eventID uint) (int64, error)
	ExistsActive(ctx context.Context, eventID, userID uint) (bool, error)
	CountForEvent(ctx context.Context, eventID uint) (int64, error)
	DeleteActive(ctx context.Context, eventID, userID uint) (int64, error)
	DeleteForEvent(ctx context.Context, eventID uint) error
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(ctx context.Context, participant *model.EventParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

// CountActive counts the rows that occupy capacity for an event.
func (r *participantRepository) CountActive(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.EventParticipant{}).
		Where("event_id = ?", eventID).
		Where(activeCondition, model.ParticipantStatusRegistered).
		Count(&count).Error
	return count, err
}

// ExistsActive reports whether the user holds an active registration.
func (r *participantRepository) ExistsActive(ctx context.Context, eventID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Where(activeCondition, model.ParticipantStatusRegistered).
		Count(&count).Error
	return count > 0, err
}

// CountForEvent counts every participant row for an event, active or not.
func (r *participantRepository) CountForEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.EventParticipant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// DeleteActive removes all active rows for the (event, user) pair and returns
// how many were removed.
func (r *participantRepository) DeleteActive(ctx context.Context, eventID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Where(activeCondition, model.ParticipantStatusRegistered).
		Delete(&model.EventParticipant{})
	return res.RowsAffected, res.Error
}

// DeleteForEvent removes every participant row for an event.
func (r *participantRepository) DeleteForEvent(ctx context.Context, eventID uint) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&model.EventParticipant{}).Error
}
