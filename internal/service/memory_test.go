package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/models"
)

// In-memory store doubles mirroring the repository semantics, so the
// workflow rules can be exercised without Postgres.

type memRegistrations struct {
	mu     sync.Mutex
	nextID int64
	regs   map[int64]*models.Registration
}

func newMemRegistrations() *memRegistrations {
	return &memRegistrations{regs: make(map[int64]*models.Registration)}
}

func (m *memRegistrations) Create(_ context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.regs {
		if existing.ExhibitorID == reg.ExhibitorID && existing.EventID == reg.EventID &&
			existing.Status != models.RegistrationCancelled {
			return fmt.Errorf("duplicate registration: %w", apperrors.ErrConflict)
		}
	}

	m.nextID++
	reg.ID = m.nextID
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	stored := *reg
	m.regs[reg.ID] = &stored
	return nil
}

func (m *memRegistrations) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[id]
	if !ok {
		return nil, nil
	}
	copied := *reg
	return &copied, nil
}

func (m *memRegistrations) ListByEvent(_ context.Context, eventID int64, status string) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Registration
	for _, reg := range m.regs {
		if reg.EventID == eventID && (status == "" || reg.Status == status) {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *memRegistrations) ListByExhibitor(_ context.Context, exhibitorID int64, status string) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Registration
	for _, reg := range m.regs {
		if reg.ExhibitorID == exhibitorID && (status == "" || reg.Status == status) {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *memRegistrations) MarkApproved(_ context.Context, id, reviewerID int64) error {
	return m.guarded(id, []string{models.RegistrationPending}, func(reg *models.Registration) {
		now := time.Now()
		reg.Status = models.RegistrationApproved
		reg.ApprovalDate = &now
		reg.ReviewedBy = &reviewerID
	})
}

func (m *memRegistrations) MarkRejected(_ context.Context, id, reviewerID int64, reason string) error {
	return m.guarded(id, []string{models.RegistrationPending}, func(reg *models.Registration) {
		now := time.Now()
		reg.Status = models.RegistrationRejected
		reg.RejectionDate = &now
		reg.RejectionReason = &reason
		reg.ReviewedBy = &reviewerID
	})
}

func (m *memRegistrations) MarkCancelled(_ context.Context, id, actorID int64, role string, reason *string) error {
	allowed := []string{models.RegistrationPending, models.RegistrationApproved, models.RegistrationCompleted}
	return m.guarded(id, allowed, func(reg *models.Registration) {
		now := time.Now()
		reg.Status = models.RegistrationCancelled
		reg.CancelledBy = &actorID
		reg.CancelledRole = &role
		reg.CancellationReason = reason
		reg.CancellationDate = &now
		reg.StandSelectionComplete = false
		reg.EquipmentSelectionComplete = false
	})
}

func (m *memRegistrations) MarkCompleted(_ context.Context, id int64) error {
	return m.guarded(id, []string{models.RegistrationApproved}, func(reg *models.Registration) {
		reg.Status = models.RegistrationCompleted
	})
}

func (m *memRegistrations) guarded(id int64, allowed []string, mutate func(*models.Registration)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[id]
	if !ok {
		return fmt.Errorf("registration %d: %w", id, apperrors.ErrInvalidState)
	}
	for _, status := range allowed {
		if reg.Status == status {
			mutate(reg)
			reg.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("registration %d: %w", id, apperrors.ErrInvalidState)
}

func (m *memRegistrations) SetSelectionFlags(_ context.Context, id int64, standComplete, equipmentComplete *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[id]
	if !ok {
		return fmt.Errorf("registration %d: %w", id, apperrors.ErrNotFound)
	}
	if standComplete != nil {
		reg.StandSelectionComplete = *standComplete
	}
	if equipmentComplete != nil {
		reg.EquipmentSelectionComplete = *equipmentComplete
	}
	return nil
}

func (m *memRegistrations) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.regs[id]; !ok {
		return fmt.Errorf("registration %d: %w", id, apperrors.ErrNotFound)
	}
	delete(m.regs, id)
	return nil
}

type memStands struct {
	mu     sync.Mutex
	stands map[int64]*models.Stand
	links  map[int64]map[int64]bool // registration -> stand set
}

func newMemStands() *memStands {
	return &memStands{
		stands: make(map[int64]*models.Stand),
		links:  make(map[int64]map[int64]bool),
	}
}

func (m *memStands) add(stand models.Stand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := stand
	m.stands[stand.ID] = &stored
}

func (m *memStands) GetByID(_ context.Context, id int64) (*models.Stand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stand, ok := m.stands[id]
	if !ok {
		return nil, nil
	}
	copied := *stand
	return &copied, nil
}

func (m *memStands) ListByRegistration(_ context.Context, registrationID int64) ([]models.Stand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Stand
	for standID := range m.links[registrationID] {
		if stand, ok := m.stands[standID]; ok {
			out = append(out, *stand)
		}
	}
	return out, nil
}

func (m *memStands) ReplaceSelection(_ context.Context, registrationID int64, standIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.links[registrationID]
	if held == nil {
		held = make(map[int64]bool)
	}

	for _, standID := range standIDs {
		stand, ok := m.stands[standID]
		if !ok {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotFound)
		}
		if held[standID] {
			continue
		}
		if stand.Status != models.StandAvailable {
			return fmt.Errorf("stand %d: %w", standID, apperrors.ErrNotAvailable)
		}
	}

	newSet := make(map[int64]bool, len(standIDs))
	for _, standID := range standIDs {
		newSet[standID] = true
		if !held[standID] {
			stand := m.stands[standID]
			stand.Status = models.StandReserved
			regID := registrationID
			stand.RegistrationID = &regID
		}
	}
	// Dropped stands keep RESERVED and their back-reference.
	m.links[registrationID] = newSet
	return nil
}

func (m *memStands) Free(_ context.Context, standID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stand, ok := m.stands[standID]; ok {
		stand.Status = models.StandAvailable
		stand.RegistrationID = nil
	}
	for _, set := range m.links {
		delete(set, standID)
	}
	return nil
}

type assocKey struct {
	eventID     int64
	equipmentID int64
}

type memEquipment struct {
	mu          sync.Mutex
	catalog     map[int64]*models.Equipment
	assocs      map[assocKey]*models.EventEquipment
	allocations map[int64][]models.RegistrationEquipment
	eventOf     map[int64]int64 // registration -> event, for cap accounting
}

func newMemEquipment() *memEquipment {
	return &memEquipment{
		catalog:     make(map[int64]*models.Equipment),
		assocs:      make(map[assocKey]*models.EventEquipment),
		allocations: make(map[int64][]models.RegistrationEquipment),
		eventOf:     make(map[int64]int64),
	}
}

func (m *memEquipment) add(equipment models.Equipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := equipment
	m.catalog[equipment.ID] = &stored
}

func (m *memEquipment) associate(assoc models.EventEquipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := assoc
	m.assocs[assocKey{assoc.EventID, assoc.EquipmentID}] = &stored
}

func (m *memEquipment) GetByID(_ context.Context, id int64) (*models.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	equipment, ok := m.catalog[id]
	if !ok {
		return nil, nil
	}
	copied := *equipment
	return &copied, nil
}

func (m *memEquipment) GetAssociation(_ context.Context, eventID, equipmentID int64) (*models.EventEquipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assoc, ok := m.assocs[assocKey{eventID, equipmentID}]
	if !ok {
		return nil, nil
	}
	copied := *assoc
	return &copied, nil
}

func (m *memEquipment) ListByRegistration(_ context.Context, registrationID int64) ([]models.RegistrationEquipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.RegistrationEquipment(nil), m.allocations[registrationID]...), nil
}

func (m *memEquipment) ReplaceAllocations(_ context.Context, registrationID, eventID int64, allocations []models.RegistrationEquipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, alloc := range allocations {
		assoc, ok := m.assocs[assocKey{eventID, alloc.EquipmentID}]
		if !ok {
			return fmt.Errorf("equipment %d is not offered at event %d: %w",
				alloc.EquipmentID, eventID, apperrors.ErrNotFound)
		}

		allocated := 0
		for otherReg, otherAllocs := range m.allocations {
			if otherReg == registrationID || m.eventOf[otherReg] != eventID {
				continue
			}
			for _, other := range otherAllocs {
				if other.EquipmentID == alloc.EquipmentID {
					allocated += other.Quantity
				}
			}
		}

		if available := assoc.TotalQuantity - allocated; alloc.Quantity > available {
			return &apperrors.InsufficientInventoryError{
				EquipmentID: alloc.EquipmentID,
				Requested:   alloc.Quantity,
				Available:   available,
			}
		}
	}

	m.allocations[registrationID] = append([]models.RegistrationEquipment(nil), allocations...)
	m.eventOf[registrationID] = eventID
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events map[int64]*models.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: make(map[int64]*models.Event)}
}

func (m *memEvents) add(event models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := event
	m.events[event.ID] = &stored
}

func (m *memEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*models.User)}
}

func (m *memUsers) add(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := user
	m.users[user.ID] = &stored
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

type memInvoices struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Invoice
}

func newMemInvoices() *memInvoices {
	return &memInvoices{byID: make(map[int64]*models.Invoice)}
}

func (m *memInvoices) Create(_ context.Context, invoice *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.RegistrationID == invoice.RegistrationID {
			return fmt.Errorf("invoice exists for registration %d: %w",
				invoice.RegistrationID, apperrors.ErrConflict)
		}
	}

	m.nextID++
	invoice.ID = m.nextID
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt
	stored := *invoice
	m.byID[invoice.ID] = &stored
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id int64) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	invoice, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *invoice
	return &copied, nil
}

func (m *memInvoices) GetByRegistrationID(_ context.Context, registrationID int64) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, invoice := range m.byID {
		if invoice.RegistrationID == registrationID {
			copied := *invoice
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memInvoices) GetByNumber(_ context.Context, number string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, invoice := range m.byID {
		if invoice.Number == number {
			copied := *invoice
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memInvoices) UpdateStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	invoice, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, apperrors.ErrNotFound)
	}
	invoice.Status = status
	return nil
}

type stubPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *stubPublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *stubPublisher) published(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}
