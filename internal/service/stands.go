package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/cache"
	"expohall/internal/logger"
	"expohall/internal/metrics"
	"expohall/internal/models"
	"expohall/internal/repository"
)

// StandService covers floor plan and stand authoring for organizers,
// the public availability read path, and the administrative
// reserve/free operations that bypass the selection workflow.
type StandService struct {
	standRepo *repository.StandRepository
	planRepo  *repository.PlanRepository
	eventRepo *repository.EventRepository
	cache     *cache.ValkeyClient
	publisher Publisher
	metrics   *metrics.Metrics
}

func NewStandService(standRepo *repository.StandRepository, planRepo *repository.PlanRepository,
	eventRepo *repository.EventRepository, valkey *cache.ValkeyClient,
	publisher Publisher, m *metrics.Metrics) *StandService {
	return &StandService{
		standRepo: standRepo,
		planRepo:  planRepo,
		eventRepo: eventRepo,
		cache:     valkey,
		publisher: publisher,
		metrics:   m,
	}
}

// CreatePlan adds a floor plan to an event owned by the caller.
func (s *StandService) CreatePlan(ctx context.Context, p Principal, req *models.CreatePlanRequest) (*models.Plan, error) {
	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", req.EventID, apperrors.ErrNotFound)
	}
	if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
		return nil, err
	}

	plan := &models.Plan{
		EventID: req.EventID,
		Name:    req.Name,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return plan, nil
}

// ListPlans returns the floor plans of an event.
func (s *StandService) ListPlans(ctx context.Context, eventID int64) ([]models.Plan, error) {
	plans, err := s.planRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// CreateStand adds a numbered stand to a plan owned by the caller.
func (s *StandService) CreateStand(ctx context.Context, p Principal, req *models.CreateStandRequest) (*models.Stand, error) {
	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %d: %w", req.PlanID, apperrors.ErrNotFound)
	}
	if err := s.requirePlanOwner(ctx, p, plan); err != nil {
		return nil, err
	}

	standType := req.Type
	if standType == "" {
		standType = "standard"
	}

	stand := &models.Stand{
		PlanID: req.PlanID,
		Number: req.Number,
		Type:   standType,
		Price:  req.Price,
		Status: models.StandAvailable,
	}
	if err := s.standRepo.Create(ctx, stand); err != nil {
		return nil, fmt.Errorf("failed to create stand: %w", err)
	}

	s.invalidatePlan(ctx, req.PlanID)

	return stand, nil
}

// ListByPlanCached returns the plan's stand listing as raw JSON, served
// from Valkey when fresh. The short TTL bounds staleness between
// invalidations.
func (s *StandService) ListByPlanCached(ctx context.Context, planID int64) ([]byte, error) {
	if s.cache != nil {
		if data, err := s.cache.GetPlanStandsRaw(ctx, planID); err == nil {
			return data, nil
		}
	}

	stands, err := s.standRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stands: %w", err)
	}

	items := toStandItems(stands)
	if s.cache != nil {
		if err := s.cache.SetPlanStands(ctx, planID, items); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache stand listing",
				"error", err,
				"plan_id", planID)
		}
	}

	return marshalStandItems(items)
}

// ListAvailableByEvent returns every free stand across the event's plans.
func (s *StandService) ListAvailableByEvent(ctx context.Context, eventID int64) ([]models.ListStandsResponseItem, error) {
	stands, err := s.standRepo.ListAvailableByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available stands: %w", err)
	}
	return toStandItems(stands), nil
}

// Reserve places a direct hold on one stand for a registration. Admin
// escape hatch; exhibitors go through the selection workflow.
func (s *StandService) Reserve(ctx context.Context, p Principal, standID, registrationID int64) error {
	if !p.IsAdmin() {
		return fmt.Errorf("user %d (role %s) may not reserve stands directly: %w",
			p.UserID, p.Role, apperrors.ErrForbidden)
	}

	stand, err := s.standRepo.GetByID(ctx, standID)
	if err != nil {
		return fmt.Errorf("failed to get stand: %w", err)
	}
	if stand == nil {
		return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotFound)
	}

	if err := s.standRepo.Reserve(ctx, standID, registrationID); err != nil {
		return fmt.Errorf("failed to reserve stand: %w", err)
	}

	if s.metrics != nil {
		s.metrics.StandsReserved.Inc()
	}
	s.invalidatePlan(ctx, stand.PlanID)

	if err := s.publisher.Publish(models.EventStandReserved, models.StandReservedEvent{
		StandID:        standID,
		RegistrationID: registrationID,
		Timestamp:      time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish stand reserved event",
			"error", err,
			"stand_id", standID)
	}

	return nil
}

// Free releases a stand regardless of who holds it. Admin only.
func (s *StandService) Free(ctx context.Context, p Principal, standID int64) error {
	if !p.IsAdmin() {
		return fmt.Errorf("user %d (role %s) may not free stands directly: %w",
			p.UserID, p.Role, apperrors.ErrForbidden)
	}

	stand, err := s.standRepo.GetByID(ctx, standID)
	if err != nil {
		return fmt.Errorf("failed to get stand: %w", err)
	}
	if stand == nil {
		return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotFound)
	}

	if err := s.standRepo.Free(ctx, standID); err != nil {
		return fmt.Errorf("failed to free stand: %w", err)
	}

	s.invalidatePlan(ctx, stand.PlanID)

	if err := s.publisher.Publish(models.EventStandReleased, models.StandReleasedEvent{
		StandID:   standID,
		Timestamp: time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish stand released event",
			"error", err,
			"stand_id", standID)
	}

	return nil
}

func (s *StandService) requirePlanOwner(ctx context.Context, p Principal, plan *models.Plan) error {
	event, err := s.eventRepo.GetByID(ctx, plan.EventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return fmt.Errorf("event %d: %w", plan.EventID, apperrors.ErrNotFound)
	}
	return requireOwner(p, event.OrganizerID, models.RoleOrganizer)
}

func (s *StandService) invalidatePlan(ctx context.Context, planID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePlanStands(ctx, planID); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate stand cache",
			"error", err,
			"plan_id", planID)
	}
}

func toStandItems(stands []models.Stand) []models.ListStandsResponseItem {
	items := make([]models.ListStandsResponseItem, len(stands))
	for i, stand := range stands {
		items[i] = models.ListStandsResponseItem{
			ID:     stand.ID,
			PlanID: stand.PlanID,
			Number: stand.Number,
			Type:   stand.Type,
			Status: stand.Status,
			Price:  fmt.Sprintf("%.2f", float64(stand.Price)/100.0),
		}
	}
	return items
}

func marshalStandItems(items []models.ListStandsResponseItem) ([]byte, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stands: %w", err)
	}
	return data, nil
}
