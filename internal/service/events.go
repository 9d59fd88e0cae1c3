package service

import (
	"context"
	"fmt"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/logger"
	"expohall/internal/models"
	"expohall/internal/repository"
	"expohall/internal/search"
)

// EventService handles event authoring and the public listing. Postgres
// is the source of truth; published events are mirrored into
// Elasticsearch for full-text search, and the listing falls back to
// Postgres when the index is unreachable.
type EventService struct {
	eventRepo *repository.EventRepository
	search    *search.ElasticsearchClient
}

func NewEventService(eventRepo *repository.EventRepository, es *search.ElasticsearchClient) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		search:    es,
	}
}

// Create registers a Draft event owned by the calling organizer.
func (s *EventService) Create(ctx context.Context, p Principal, req *models.CreateEventRequest) (*models.Event, error) {
	if err := requireRole(p, models.RoleOrganizer); err != nil {
		return nil, err
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", apperrors.ErrValidation)
	}
	deadline, err := parseDate(req.RegistrationDeadline)
	if err != nil {
		return nil, fmt.Errorf("invalid registration_deadline: %w", apperrors.ErrValidation)
	}
	if !deadline.Before(startDate) {
		return nil, fmt.Errorf("registration deadline must precede the event start: %w", apperrors.ErrValidation)
	}

	event := &models.Event{
		OrganizerID:          p.UserID,
		Title:                req.Title,
		Description:          req.Description,
		Status:               models.EventDraft,
		StartDate:            startDate,
		RegistrationDeadline: deadline,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	logger.WithContext(ctx).Info("Event created",
		"event_id", event.ID,
		"organizer_id", event.OrganizerID)

	return event, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", id, apperrors.ErrNotFound)
	}
	return event, nil
}

// Publish opens a Draft event for registration and indexes it for
// search. An indexing failure is logged, not returned: the event is
// published either way and the index catches up on the next write.
func (s *EventService) Publish(ctx context.Context, p Principal, eventID int64) (*models.Event, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
		return nil, err
	}
	if event.Status != models.EventDraft {
		return nil, fmt.Errorf("event %d is %s: %w", event.ID, event.Status, apperrors.ErrInvalidState)
	}

	if err := s.eventRepo.UpdateStatus(ctx, event.ID, models.EventPublished); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}
	event.Status = models.EventPublished

	s.index(ctx, event)

	return event, nil
}

// Close ends registration for a published event and drops it from the
// search index.
func (s *EventService) Close(ctx context.Context, p Principal, eventID int64) (*models.Event, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
		return nil, err
	}
	if event.Status != models.EventPublished {
		return nil, fmt.Errorf("event %d is %s: %w", event.ID, event.Status, apperrors.ErrInvalidState)
	}

	if err := s.eventRepo.UpdateStatus(ctx, event.ID, models.EventClosed); err != nil {
		return nil, fmt.Errorf("failed to close event: %w", err)
	}
	event.Status = models.EventClosed

	if s.search != nil {
		if err := s.search.DeleteEvent(ctx, event.ID); err != nil {
			logger.WithContext(ctx).Error("Failed to remove event from search index",
				"error", err,
				"event_id", event.ID)
		}
	}

	return event, nil
}

// List returns published events. With a text query or date filter the
// lookup goes through Elasticsearch; otherwise, or when the index is
// unavailable, it reads straight from Postgres.
func (s *EventService) List(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error) {
	if s.search != nil && (query != "" || date != "") {
		events, err := s.search.Search(ctx, query, date, page, pageSize)
		if err == nil {
			return events, nil
		}
		logger.WithContext(ctx).Error("Search failed, falling back to database",
			"error", err)
	}

	events, err := s.eventRepo.List(ctx, models.EventPublished, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *EventService) index(ctx context.Context, event *models.Event) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexEvent(ctx, event); err != nil {
		logger.WithContext(ctx).Error("Failed to index event",
			"error", err,
			"event_id", event.ID)
	}
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
