package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/logger"
	"expohall/internal/metrics"
	"expohall/internal/models"
)

// Exhibitors may cancel on their own only up to this long before the
// event opens; closer than that, cancellation needs the organizer.
const exhibitorCancelWindow = 10 * 24 * time.Hour

// InvoiceGenerator produces the invoice for a Completed registration.
type InvoiceGenerator interface {
	Generate(ctx context.Context, registrationID int64) (*models.Invoice, error)
}

// RegistrationService owns the registration lifecycle:
// Pending -> Approved -> Completed, with Rejected and Cancelled as the
// terminal branches. All resource allocation flows through here so the
// state guards cannot be bypassed.
type RegistrationService struct {
	regRepo       RegistrationStore
	standRepo     StandStore
	equipmentRepo EquipmentStore
	eventRepo     EventStore
	invoices      InvoiceGenerator
	publisher     Publisher
	metrics       *metrics.Metrics
}

func NewRegistrationService(regRepo RegistrationStore, standRepo StandStore, equipmentRepo EquipmentStore,
	eventRepo EventStore, invoices InvoiceGenerator,
	publisher Publisher, m *metrics.Metrics) *RegistrationService {
	return &RegistrationService{
		regRepo:       regRepo,
		standRepo:     standRepo,
		equipmentRepo: equipmentRepo,
		eventRepo:     eventRepo,
		invoices:      invoices,
		publisher:     publisher,
		metrics:       m,
	}
}

// Create files a new Pending registration for the calling exhibitor.
// The event must be published and its registration deadline still open.
func (s *RegistrationService) Create(ctx context.Context, p Principal, req *models.CreateRegistrationRequest) (*models.Registration, error) {
	if err := requireRole(p, models.RoleExhibitor); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", req.EventID, apperrors.ErrNotFound)
	}
	if event.Status != models.EventPublished {
		return nil, fmt.Errorf("event %d is %s, not open for registration: %w",
			event.ID, event.Status, apperrors.ErrInvalidState)
	}
	if time.Now().After(event.RegistrationDeadline) {
		return nil, fmt.Errorf("registration deadline for event %d has passed: %w",
			event.ID, apperrors.ErrInvalidState)
	}

	reg := &models.Registration{
		ExhibitorID: p.UserID,
		EventID:     req.EventID,
		Status:      models.RegistrationPending,
		Note:        req.Note,
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}

	s.publish(ctx, models.EventRegistrationCreated, models.RegistrationCreatedEvent{
		RegistrationID: reg.ID,
		ExhibitorID:    reg.ExhibitorID,
		EventID:        reg.EventID,
		Timestamp:      time.Now(),
	})

	logger.WithContext(ctx).Info("Registration created",
		"registration_id", reg.ID,
		"exhibitor_id", reg.ExhibitorID,
		"event_id", reg.EventID)

	return reg, nil
}

// Review applies the organizer's decision to a Pending registration.
// Rejection requires a reason; the decision is final either way.
func (s *RegistrationService) Review(ctx context.Context, p Principal, req *models.ReviewRegistrationRequest) (*models.Registration, error) {
	reg, err := s.getRegistration(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", reg.EventID, apperrors.ErrNotFound)
	}
	if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
		return nil, err
	}

	if reg.Status != models.RegistrationPending {
		return nil, fmt.Errorf("registration %d has status %s, only pending registrations can be reviewed: %w",
			reg.ID, reg.Status, apperrors.ErrInvalidState)
	}

	decision := strings.ToUpper(req.Decision)
	switch decision {
	case models.RegistrationApproved, "APPROVE":
		if err := s.regRepo.MarkApproved(ctx, reg.ID, p.UserID); err != nil {
			return nil, fmt.Errorf("failed to approve registration: %w", err)
		}
		decision = models.RegistrationApproved

	case models.RegistrationRejected, "REJECT":
		if req.Reason == nil || strings.TrimSpace(*req.Reason) == "" {
			return nil, fmt.Errorf("rejection requires a reason: %w", apperrors.ErrValidation)
		}
		if err := s.regRepo.MarkRejected(ctx, reg.ID, p.UserID, *req.Reason); err != nil {
			return nil, fmt.Errorf("failed to reject registration: %w", err)
		}
		decision = models.RegistrationRejected

	default:
		return nil, fmt.Errorf("unknown decision %q: %w", req.Decision, apperrors.ErrValidation)
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	subject := models.EventRegistrationApproved
	if decision == models.RegistrationRejected {
		subject = models.EventRegistrationRejected
	}
	s.publish(ctx, subject, models.RegistrationReviewedEvent{
		RegistrationID: reg.ID,
		ExhibitorID:    reg.ExhibitorID,
		EventID:        reg.EventID,
		Decision:       decision,
		Reason:         reason,
		ReviewedBy:     p.UserID,
		Timestamp:      time.Now(),
	})

	logger.WithContext(ctx).Info("Registration reviewed",
		"registration_id", reg.ID,
		"decision", decision,
		"reviewed_by", p.UserID)

	return s.getRegistration(ctx, reg.ID)
}

// SelectStands replaces the registration's stand set wholesale. Stands
// dropped from the set keep their reservation until the reconciliation
// job or a cancellation releases them. When the exhibitor marks the
// selection complete and equipment is already done, the registration
// completes and its invoice is generated.
func (s *RegistrationService) SelectStands(ctx context.Context, p Principal, req *models.SelectStandsRequest) (*models.Registration, error) {
	reg, err := s.getRegistration(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, reg.ExhibitorID, models.RoleExhibitor); err != nil {
		return nil, err
	}
	if reg.Status != models.RegistrationApproved {
		return nil, fmt.Errorf("registration %d has status %s, stands can only be selected while approved: %w",
			reg.ID, reg.Status, apperrors.ErrInvalidState)
	}

	if err := s.standRepo.ReplaceSelection(ctx, reg.ID, req.StandIDs); err != nil {
		return nil, fmt.Errorf("failed to replace stand selection: %w", err)
	}

	if s.metrics != nil {
		s.metrics.StandsReserved.Add(float64(len(req.StandIDs)))
	}
	for _, standID := range req.StandIDs {
		s.publish(ctx, models.EventStandReserved, models.StandReservedEvent{
			StandID:        standID,
			RegistrationID: reg.ID,
			Timestamp:      time.Now(),
		})
	}

	if req.Completed != nil {
		if err := s.regRepo.SetSelectionFlags(ctx, reg.ID, req.Completed, nil); err != nil {
			return nil, fmt.Errorf("failed to update selection flags: %w", err)
		}
	}

	if err := s.maybeComplete(ctx, reg.ID); err != nil {
		return nil, err
	}

	return s.Get(ctx, p, reg.ID)
}

// SelectEquipment replaces the registration's equipment allocations.
// Allowed while Approved and also after completion; the invoice is
// never regenerated for a later change.
func (s *RegistrationService) SelectEquipment(ctx context.Context, p Principal, req *models.SelectEquipmentRequest) (*models.Registration, error) {
	reg, err := s.getRegistration(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, reg.ExhibitorID, models.RoleExhibitor); err != nil {
		return nil, err
	}
	if reg.Status != models.RegistrationApproved && reg.Status != models.RegistrationCompleted {
		return nil, fmt.Errorf("registration %d has status %s, equipment can only be selected while approved or completed: %w",
			reg.ID, reg.Status, apperrors.ErrInvalidState)
	}

	allocations := make([]models.RegistrationEquipment, 0, len(req.Allocations))
	seen := make(map[int64]bool, len(req.Allocations))
	for _, a := range req.Allocations {
		if a.Quantity < 1 {
			return nil, fmt.Errorf("equipment %d: quantity must be at least 1: %w",
				a.EquipmentID, apperrors.ErrValidation)
		}
		if seen[a.EquipmentID] {
			return nil, fmt.Errorf("equipment %d listed more than once: %w",
				a.EquipmentID, apperrors.ErrValidation)
		}
		seen[a.EquipmentID] = true
		allocations = append(allocations, models.RegistrationEquipment{
			RegistrationID: reg.ID,
			EquipmentID:    a.EquipmentID,
			Quantity:       a.Quantity,
		})
	}

	if err := s.equipmentRepo.ReplaceAllocations(ctx, reg.ID, reg.EventID, allocations); err != nil {
		return nil, fmt.Errorf("failed to replace equipment allocations: %w", err)
	}

	if req.Completed != nil {
		if err := s.regRepo.SetSelectionFlags(ctx, reg.ID, nil, req.Completed); err != nil {
			return nil, fmt.Errorf("failed to update selection flags: %w", err)
		}
	}

	if err := s.maybeComplete(ctx, reg.ID); err != nil {
		return nil, err
	}

	return s.Get(ctx, p, reg.ID)
}

// maybeComplete transitions an Approved registration to Completed once
// both selection flags are set, then generates the invoice. The status
// change is committed before generation, so an invoice failure leaves a
// Completed registration whose invoice a retry will produce.
func (s *RegistrationService) maybeComplete(ctx context.Context, registrationID int64) error {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if reg.Status != models.RegistrationApproved ||
		!reg.StandSelectionComplete || !reg.EquipmentSelectionComplete {
		return nil
	}

	if err := s.regRepo.MarkCompleted(ctx, reg.ID); err != nil {
		return fmt.Errorf("failed to complete registration: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCompleted.Inc()
	}

	invoice, err := s.invoices.Generate(ctx, reg.ID)
	if err != nil {
		logger.WithContext(ctx).Error("Invoice generation failed after completion",
			"error", err,
			"registration_id", reg.ID)
		return fmt.Errorf("registration completed but invoice generation failed: %w", err)
	}

	s.publish(ctx, models.EventRegistrationCompleted, models.RegistrationCompletedEvent{
		RegistrationID: reg.ID,
		ExhibitorID:    reg.ExhibitorID,
		EventID:        reg.EventID,
		InvoiceNumber:  invoice.Number,
		Timestamp:      time.Now(),
	})

	logger.WithContext(ctx).Info("Registration completed",
		"registration_id", reg.ID,
		"invoice_number", invoice.Number)

	return nil
}

// Cancel moves a registration to Cancelled from any non-terminal state
// and releases its stands. Exhibitors may only cancel while the event
// start is at least the cancellation window away; organizers of the
// event and admins may cancel at any time.
func (s *RegistrationService) Cancel(ctx context.Context, p Principal, req *models.CancelRegistrationRequest) (*models.Registration, error) {
	reg, err := s.getRegistration(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}
	if reg.IsTerminal() {
		return nil, fmt.Errorf("registration %d has status %s: %w",
			reg.ID, reg.Status, apperrors.ErrInvalidState)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", reg.EventID, apperrors.ErrNotFound)
	}

	switch {
	case p.IsAdmin():
	case p.Role == models.RoleOrganizer:
		if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
			return nil, err
		}
	case p.Role == models.RoleExhibitor:
		if err := requireOwner(p, reg.ExhibitorID, models.RoleExhibitor); err != nil {
			return nil, err
		}
		if time.Until(event.StartDate) < exhibitorCancelWindow {
			return nil, fmt.Errorf("event %d starts in less than %s: %w",
				event.ID, exhibitorCancelWindow, apperrors.ErrTooLateToCancel)
		}
	default:
		return nil, fmt.Errorf("role %s may not cancel registrations: %w", p.Role, apperrors.ErrForbidden)
	}

	s.freeStands(ctx, reg.ID)

	if err := s.regRepo.MarkCancelled(ctx, reg.ID, p.UserID, p.Role, req.Reason); err != nil {
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCancelled.Inc()
	}

	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}
	s.publish(ctx, models.EventRegistrationCancelled, models.RegistrationCancelledEvent{
		RegistrationID: reg.ID,
		ExhibitorID:    reg.ExhibitorID,
		EventID:        reg.EventID,
		CancelledBy:    p.UserID,
		Role:           p.Role,
		Reason:         reason,
		Timestamp:      time.Now(),
	})

	logger.WithContext(ctx).Info("Registration cancelled",
		"registration_id", reg.ID,
		"cancelled_by", p.UserID,
		"role", p.Role)

	return s.getRegistration(ctx, reg.ID)
}

// Remove deletes a registration outright. Admin only; cancellation is
// the normal path, removal exists for data cleanup.
func (s *RegistrationService) Remove(ctx context.Context, p Principal, registrationID int64) error {
	if !p.IsAdmin() {
		return fmt.Errorf("user %d (role %s) may not remove registrations: %w",
			p.UserID, p.Role, apperrors.ErrForbidden)
	}

	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return err
	}

	s.freeStands(ctx, reg.ID)

	if err := s.regRepo.Delete(ctx, reg.ID); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	logger.WithContext(ctx).Info("Registration removed",
		"registration_id", reg.ID,
		"removed_by", p.UserID)

	return nil
}

// freeStands releases every stand the registration still holds. A
// failure on one stand is logged and the rest are still released; the
// reconciliation job picks up any that slipped through.
func (s *RegistrationService) freeStands(ctx context.Context, registrationID int64) {
	stands, err := s.standRepo.ListByRegistration(ctx, registrationID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to list stands for release",
			"error", err,
			"registration_id", registrationID)
		return
	}

	for _, stand := range stands {
		if err := s.standRepo.Free(ctx, stand.ID); err != nil {
			logger.WithContext(ctx).Error("Failed to release stand",
				"error", err,
				"stand_id", stand.ID,
				"registration_id", registrationID)
			continue
		}
		s.publish(ctx, models.EventStandReleased, models.StandReleasedEvent{
			StandID:   stand.ID,
			Timestamp: time.Now(),
		})
	}
}

// Get returns the registration with its allocated resources, visible to
// the owning exhibitor, the event's organizer and admins.
func (s *RegistrationService) Get(ctx context.Context, p Principal, registrationID int64) (*models.Registration, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	if !p.IsAdmin() && !(p.Role == models.RoleExhibitor && p.UserID == reg.ExhibitorID) {
		event, err := s.eventRepo.GetByID(ctx, reg.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil || requireOwner(p, event.OrganizerID, models.RoleOrganizer) != nil {
			return nil, fmt.Errorf("registration %d: %w", registrationID, apperrors.ErrForbidden)
		}
	}

	if err := s.fillResources(ctx, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// ListByEvent returns an event's registrations for its organizer.
func (s *RegistrationService) ListByEvent(ctx context.Context, p Principal, eventID int64, status string) ([]models.Registration, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if err := requireOwner(p, event.OrganizerID, models.RoleOrganizer); err != nil {
		return nil, err
	}

	regs, err := s.regRepo.ListByEvent(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// ListOwn returns the calling exhibitor's registrations.
func (s *RegistrationService) ListOwn(ctx context.Context, p Principal, status string) ([]models.Registration, error) {
	regs, err := s.regRepo.ListByExhibitor(ctx, p.UserID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) getRegistration(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, fmt.Errorf("registration %d: %w", id, apperrors.ErrNotFound)
	}
	return reg, nil
}

func (s *RegistrationService) fillResources(ctx context.Context, reg *models.Registration) error {
	stands, err := s.standRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to list registration stands: %w", err)
	}
	reg.Stands = stands

	equipment, err := s.equipmentRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return fmt.Errorf("failed to list registration equipment: %w", err)
	}
	reg.Equipment = equipment

	return nil
}

func (s *RegistrationService) publish(ctx context.Context, subject string, payload interface{}) {
	if err := s.publisher.Publish(subject, payload); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
