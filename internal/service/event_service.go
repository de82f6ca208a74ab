package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"eventhub/internal/cache"
	apperrors "eventhub/internal/errors"
	"eventhub/internal/model"
	"eventhub/internal/repository"
)

const eventCacheTTL = 5 * time.Minute

// EventService exposes event management operations.
type EventService interface {
	GetEvent(ctx context.Context, id uint) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	DeleteEvent(ctx context.Context, id uint, force bool) error
}

type eventService struct {
	events       repository.EventRepository
	participants repository.ParticipantRepository
	cache        *cache.Client
}

// NewEventService builds an EventService with repositories and cache.
func NewEventService(events repository.EventRepository, participants repository.ParticipantRepository, cache *cache.Client) EventService {
	return &eventService{events: events, participants: participants, cache: cache}
}

func (s *eventService) cacheKey(id uint) string {
	return fmt.Sprintf("event:%d", id)
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*model.Event, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Event
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(event); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, eventCacheTTL)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

func (s *eventService) CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	now := time.Now().UTC()
	event.ID = 0
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = model.EventStatusDraft
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	existing, err := s.events.FindByID(ctx, event.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	event.CreatedAt = existing.CreatedAt
	event.CreatedBy = existing.CreatedBy
	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(event.ID))
	return event, nil
}

// DeleteEvent refuses to delete an event that still has participants unless
// force is set; a forced delete removes the participant rows first. Callers
// gate force behind the admin role.
func (s *eventService) DeleteEvent(ctx context.Context, id uint, force bool) error {
	err := s.events.WithTransaction(ctx, func(ctx context.Context, events repository.EventRepository, participants repository.ParticipantRepository) error {
		if _, err := events.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrEventNotFound
			}
			return err
		}

		count, err := participants.CountForEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count > 0 {
			if !force {
				return apperrors.ErrEventHasParticipants
			}
			if err := participants.DeleteForEvent(ctx, id); err != nil {
				return fmt.Errorf("delete participants: %w", err)
			}
		}

		return events.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
