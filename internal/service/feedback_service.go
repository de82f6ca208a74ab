package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/model"
	"eventhub/internal/repository"
)

// FeedbackService records and lists participant feedback for events.
type FeedbackService interface {
	Submit(ctx context.Context, eventID, userID uint, rating *int, comment string) (*model.Feedback, error)
	ListForEvent(ctx context.Context, eventID uint) ([]model.Feedback, error)
}

type feedbackService struct {
	feedback repository.FeedbackRepository
	events   repository.EventRepository
}

// NewFeedbackService builds a FeedbackService.
func NewFeedbackService(feedback repository.FeedbackRepository, events repository.EventRepository) FeedbackService {
	return &feedbackService{feedback: feedback, events: events}
}

func (s *feedbackService) Submit(ctx context.Context, eventID, userID uint, rating *int, comment string) (*model.Feedback, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	fb := &model.Feedback{
		EventID:     eventID,
		UserID:      userID,
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return fb, nil
}

func (s *feedbackService) ListForEvent(ctx context.Context, eventID uint) ([]model.Feedback, error) {
	return s.feedback.ListByEvent(ctx, eventID)
}
