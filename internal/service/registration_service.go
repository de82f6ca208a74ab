package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/repository"
)

// RegistrationService enforces event capacity and keeps registration
// idempotent. Register and Unregister run inside a database transaction with
// the event row locked, so a concurrent burst against the same event cannot
// oversell it.
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID uint) (bool, error)
	IsRegistered(ctx context.Context, eventID, userID uint) (bool, error)
	GetRegisteredCount(ctx context.Context, eventID uint) (int, error)
	Unregister(ctx context.Context, eventID, userID uint) (bool, error)
}

type registrationService struct {
	events        repository.EventRepository
	participants  repository.ParticipantRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	tickets       notify.TicketIssuer
}

// NewRegistrationService creates a registration service. tickets may be nil
// when ticket delivery is not configured.
func NewRegistrationService(
	events repository.EventRepository,
	participants repository.ParticipantRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	tickets notify.TicketIssuer,
) RegistrationService {
	return &registrationService{
		events:        events,
		participants:  participants,
		users:         users,
		notifications: notifications,
		tickets:       tickets,
	}
}

// Register returns false with ErrEventNotFound or ErrEventFull when the
// registration is rejected, so callers know which case they hit without a
// second lookup. A user who is already actively registered gets true without
// a duplicate row; the ticket is re-sent in that case.
func (s *registrationService) Register(ctx context.Context, eventID, userID uint) (bool, error) {
	var (
		registered bool
		event      *model.Event
	)

	err := s.events.WithTransaction(ctx, func(ctx context.Context, events repository.EventRepository, participants repository.ParticipantRepository) error {
		ev, err := events.FindByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrEventNotFound
			}
			return fmt.Errorf("load event: %w", err)
		}
		event = ev

		already, err := participants.ExistsActive(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if already {
			registered = true // idempotent success, no new row
			return nil
		}

		if ev.MaxParticipants != nil && *ev.MaxParticipants > 0 {
			count, err := participants.CountActive(ctx, eventID)
			if err != nil {
				return fmt.Errorf("count registrations: %w", err)
			}
			if count >= int64(*ev.MaxParticipants) {
				return apperrors.ErrEventFull
			}
		}

		status := model.ParticipantStatusRegistered
		row := &model.EventParticipant{
			EventID:      eventID,
			UserID:       userID,
			RegisteredAt: time.Now().UTC(),
			Status:       &status,
		}
		if err := participants.Create(ctx, row); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		registered = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if registered && event != nil {
		s.dispatchTicket(ctx, event, userID)
	}
	return registered, nil
}

// dispatchTicket issues the ticket email and writes an in-app notification.
// Failures here are logged and never fail the registration.
func (s *registrationService) dispatchTicket(ctx context.Context, event *model.Event, userID uint) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("registration: could not load user %d for ticket: %v", userID, err)
		return
	}

	if s.tickets != nil {
		if err := s.tickets.IssueTicket(ctx, user, event); err != nil {
			log.Printf("registration: ticket delivery for user %d event %d failed: %v", userID, event.ID, err)
		}
	}

	if s.notifications != nil {
		n := &model.Notification{
			UserID:    userID,
			EventID:   &event.ID,
			Message:   fmt.Sprintf("You are registered for %q.", event.Title),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			log.Printf("registration: notification write for user %d failed: %v", userID, err)
		}
	}
}

// IsRegistered reports whether an active registration exists.
func (s *registrationService) IsRegistered(ctx context.Context, eventID, userID uint) (bool, error) {
	return s.participants.ExistsActive(ctx, eventID, userID)
}

// GetRegisteredCount returns the number of active registrations for an event.
func (s *registrationService) GetRegisteredCount(ctx context.Context, eventID uint) (int, error) {
	count, err := s.participants.CountActive(ctx, eventID)
	return int(count), err
}

// Unregister removes all active rows for the pair and reports whether any
// existed.
func (s *registrationService) Unregister(ctx context.Context, eventID, userID uint) (bool, error) {
	var removed int64
	err := s.events.WithTransaction(ctx, func(ctx context.Context, _ repository.EventRepository, participants repository.ParticipantRepository) error {
		n, err := participants.DeleteActive(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}
