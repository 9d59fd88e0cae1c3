package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"expohall/internal/apperrors"
	"expohall/internal/logger"
	"expohall/internal/metrics"
	"expohall/internal/models"
)

// TaxRate is the fixed policy tax applied to every invoice.
const TaxRate = 0.20

// InvoiceService derives the billing document from a Completed
// registration's allocated resources. Generation is idempotent: one
// invoice per registration, ever.
type InvoiceService struct {
	invoiceRepo   InvoiceStore
	regRepo       RegistrationStore
	standRepo     StandStore
	equipmentRepo EquipmentStore
	eventRepo     EventStore
	userRepo      UserStore
	publisher     Publisher
	metrics       *metrics.Metrics
}

func NewInvoiceService(invoiceRepo InvoiceStore, regRepo RegistrationStore, standRepo StandStore,
	equipmentRepo EquipmentStore, eventRepo EventStore, userRepo UserStore,
	publisher Publisher, m *metrics.Metrics) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		regRepo:       regRepo,
		standRepo:     standRepo,
		equipmentRepo: equipmentRepo,
		eventRepo:     eventRepo,
		userRepo:      userRepo,
		publisher:     publisher,
		metrics:       m,
	}
}

// Generate builds and persists the invoice for a Completed
// registration. If one already exists it is returned unchanged.
func (s *InvoiceService) Generate(ctx context.Context, registrationID int64) (*models.Invoice, error) {
	existing, err := s.invoiceRepo.GetByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing invoice: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, fmt.Errorf("registration %d: %w", registrationID, apperrors.ErrNotFound)
	}
	if reg.Status != models.RegistrationCompleted {
		return nil, fmt.Errorf("registration %d has status %s: %w",
			registrationID, reg.Status, apperrors.ErrInvalidState)
	}

	items, subtotal, err := s.buildItems(ctx, reg)
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

	organizer, err := s.userRepo.GetByID(ctx, event.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	if organizer == nil {
		return nil, fmt.Errorf("organizer %d: %w", event.OrganizerID, apperrors.ErrNotFound)
	}

	taxAmount := int64(math.Round(float64(subtotal) * TaxRate))

	invoice := &models.Invoice{
		Number:         NewInvoiceNumber(organizer.FullName, time.Now()),
		RegistrationID: reg.ID,
		Subtotal:       subtotal,
		TaxRate:        TaxRate,
		TaxAmount:      taxAmount,
		Total:          subtotal + taxAmount,
		Status:         models.InvoicePending,
		Items:          items,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	if s.metrics != nil {
		s.metrics.InvoicesGenerated.Inc()
	}

	if err := s.publisher.Publish(models.EventInvoiceGenerated, models.InvoiceGeneratedEvent{
		InvoiceID:      invoice.ID,
		InvoiceNumber:  invoice.Number,
		RegistrationID: invoice.RegistrationID,
		Total:          invoice.Total,
		Timestamp:      time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish invoice generated event",
			"error", err,
			"invoice_id", invoice.ID,
			"event_type", models.EventInvoiceGenerated)
	}

	return invoice, nil
}

// buildItems snapshots one line per held stand and one per equipment
// allocation at today's prices; the stored lines never change afterwards.
func (s *InvoiceService) buildItems(ctx context.Context, reg *models.Registration) ([]models.InvoiceItem, int64, error) {
	var items []models.InvoiceItem
	var subtotal int64

	stands, err := s.standRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registration stands: %w", err)
	}

	for _, stand := range stands {
		items = append(items, models.InvoiceItem{
			ItemType:  "stand",
			Name:      fmt.Sprintf("%s %d", stand.Type, stand.Number),
			UnitPrice: stand.Price,
			Quantity:  1,
		})
		subtotal += stand.Price
	}

	allocations, err := s.equipmentRepo.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list registration equipment: %w", err)
	}

	for _, alloc := range allocations {
		equipment, err := s.equipmentRepo.GetByID(ctx, alloc.EquipmentID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get equipment %d: %w", alloc.EquipmentID, err)
		}
		if equipment == nil {
			return nil, 0, fmt.Errorf("equipment %d: %w", alloc.EquipmentID, apperrors.ErrNotFound)
		}

		price := equipment.Price
		assoc, err := s.equipmentRepo.GetAssociation(ctx, reg.EventID, alloc.EquipmentID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to get equipment association: %w", err)
		}
		if assoc != nil && assoc.Price != nil {
			price = *assoc.Price
		}

		items = append(items, models.InvoiceItem{
			ItemType:  "equipment",
			Name:      equipment.Name,
			UnitPrice: price,
			Quantity:  alloc.Quantity,
		})
		subtotal += price * int64(alloc.Quantity)
	}

	return items, subtotal, nil
}

// GetByRegistration returns the invoice for a registration, if any.
func (s *InvoiceService) GetByRegistration(ctx context.Context, registrationID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice for registration %d: %w", registrationID, apperrors.ErrNotFound)
	}
	return invoice, nil
}

// GetByID returns an invoice by its primary key.
func (s *InvoiceService) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, apperrors.ErrNotFound)
	}
	return invoice, nil
}

// HandlePaymentNotification applies the payment provider's verdict to
// the referenced invoice. Unknown statuses are ignored.
func (s *InvoiceService) HandlePaymentNotification(ctx context.Context, notification *models.PaymentNotificationPayload) error {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, notification.InvoiceNumber)
	if err != nil {
		return fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice == nil {
		return fmt.Errorf("invoice %s: %w", notification.InvoiceNumber, apperrors.ErrNotFound)
	}

	switch strings.ToUpper(notification.Status) {
	case "COMPLETED", "PAID", "CONFIRMED":
		return s.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoicePaid)
	case "FAILED", "REJECTED", "CANCELLED":
		return s.invoiceRepo.UpdateStatus(ctx, invoice.ID, models.InvoiceCancelled)
	default:
		logger.WithContext(ctx).Info("Ignoring payment notification with unknown status",
			"invoice_number", notification.InvoiceNumber,
			"status", notification.Status)
		return nil
	}
}

// OrganizerPrefix derives the deterministic 3-letter uppercase slug
// used in invoice numbers from the organizer's display name.
func OrganizerPrefix(name string) string {
	var letters []rune
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
		}
		if len(letters) == 3 {
			break
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}

// NewInvoiceNumber builds "{prefix}-{YYYYMMDD}-{4-digit random}".
func NewInvoiceNumber(organizerName string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d",
		OrganizerPrefix(organizerName),
		now.Format("20060102"),
		rand.Intn(10000))
}
