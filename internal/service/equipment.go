package service

import (
	"context"
	"fmt"

	"expohall/internal/apperrors"
	"expohall/internal/models"
	"expohall/internal/repository"
)

// EquipmentService manages the rental catalog and its per-event
// offerings. The catalog is global; the quantity cap and price override
// live on the event association.
type EquipmentService struct {
	equipmentRepo *repository.EquipmentRepository
	eventRepo     *repository.EventRepository
}

func NewEquipmentService(equipmentRepo *repository.EquipmentRepository, eventRepo *repository.EventRepository) *EquipmentService {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		eventRepo:     eventRepo,
	}
}

// CreateEquipment adds a catalog SKU. Organizers and admins only.
func (s *EquipmentService) CreateEquipment(ctx context.Context, p Principal, req *models.CreateEquipmentRequest) (*models.Equipment, error) {
	if err := requireRole(p, models.RoleOrganizer); err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("price must not be negative: %w", apperrors.ErrValidation)
	}

	equipment := &models.Equipment{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, fmt.Errorf("failed to create equipment: %w", err)
	}

	return equipment, nil
}

// Associate offers a SKU at an event with a quantity cap and optional
// price override. Only the event's organizer may change its offering.
func (s *EquipmentService) Associate(ctx context.Context, p Principal, req *models.AssociateEquipmentRequest) error {
	if err := s.requireEventOwner(ctx, p, req.EventID); err != nil {
		return err
	}
	if req.TotalQuantity < 0 {
		return fmt.Errorf("total quantity must not be negative: %w", apperrors.ErrValidation)
	}

	equipment, err := s.equipmentRepo.GetByID(ctx, req.EquipmentID)
	if err != nil {
		return fmt.Errorf("failed to get equipment: %w", err)
	}
	if equipment == nil {
		return fmt.Errorf("equipment %d: %w", req.EquipmentID, apperrors.ErrNotFound)
	}

	assoc := &models.EventEquipment{
		EventID:       req.EventID,
		EquipmentID:   req.EquipmentID,
		TotalQuantity: req.TotalQuantity,
		Price:         req.Price,
	}
	if err := s.equipmentRepo.Associate(ctx, assoc); err != nil {
		return fmt.Errorf("failed to associate equipment: %w", err)
	}

	return nil
}

// Dissociate withdraws a SKU from an event's offering. Existing
// allocations keep their rows; they simply stop counting against a cap.
func (s *EquipmentService) Dissociate(ctx context.Context, p Principal, eventID, equipmentID int64) error {
	if err := s.requireEventOwner(ctx, p, eventID); err != nil {
		return err
	}

	if err := s.equipmentRepo.Dissociate(ctx, eventID, equipmentID); err != nil {
		return fmt.Errorf("failed to dissociate equipment: %w", err)
	}

	return nil
}

// ListAvailability returns the event's offering with remaining
// quantities. Public read path.
func (s *EquipmentService) ListAvailability(ctx context.Context, eventID int64) ([]models.EquipmentAvailabilityResponseItem, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}

	items, err := s.equipmentRepo.ListAvailabilityByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment availability: %w", err)
	}
	return items, nil
}

// AvailableQuantity returns the remaining capacity of one SKU at an event.
func (s *EquipmentService) AvailableQuantity(ctx context.Context, eventID, equipmentID int64) (int, error) {
	available, err := s.equipmentRepo.AvailableQuantity(ctx, equipmentID, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute available quantity: %w", err)
	}
	return available, nil
}

func (s *EquipmentService) requireEventOwner(ctx context.Context, p Principal, eventID int64) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return requireOwner(p, event.OrganizerID, models.RoleOrganizer)
}
