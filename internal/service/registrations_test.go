package service

import (
	"context"
	"testing"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	organizerID = int64(1)
	exhibitorID = int64(2)
	eventID     = int64(10)
)

var (
	organizer = Principal{UserID: organizerID, Role: models.RoleOrganizer}
	exhibitor = Principal{UserID: exhibitorID, Role: models.RoleExhibitor}
	admin     = Principal{UserID: 99, Role: models.RoleAdmin}
)

type fixture struct {
	regs      *memRegistrations
	stands    *memStands
	equipment *memEquipment
	events    *memEvents
	users     *memUsers
	invoices  *memInvoices
	publisher *stubPublisher

	svc        *RegistrationService
	invoiceSvc *InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		regs:      newMemRegistrations(),
		stands:    newMemStands(),
		equipment: newMemEquipment(),
		events:    newMemEvents(),
		users:     newMemUsers(),
		invoices:  newMemInvoices(),
		publisher: &stubPublisher{},
	}

	f.users.add(models.User{ID: organizerID, Email: "org@example.com", FullName: "Acme Expo Group", Role: models.RoleOrganizer, IsActive: true})
	f.users.add(models.User{ID: exhibitorID, Email: "exh@example.com", FullName: "Widget Makers", Role: models.RoleExhibitor, IsActive: true})

	f.events.add(models.Event{
		ID:                   eventID,
		OrganizerID:          organizerID,
		Title:                "Spring Expo",
		Status:               models.EventPublished,
		StartDate:            time.Now().Add(30 * 24 * time.Hour),
		RegistrationDeadline: time.Now().Add(20 * 24 * time.Hour),
	})

	f.stands.add(models.Stand{ID: 101, PlanID: 1, Number: 1, Type: "standard", Price: 50000, Status: models.StandAvailable})
	f.stands.add(models.Stand{ID: 102, PlanID: 1, Number: 2, Type: "premium", Price: 120000, Status: models.StandAvailable})
	f.stands.add(models.Stand{ID: 103, PlanID: 1, Number: 3, Type: "standard", Price: 50000, Status: models.StandAvailable})

	f.equipment.add(models.Equipment{ID: 201, Name: "Projector", Price: 1500, Quantity: 10})
	f.equipment.associate(models.EventEquipment{EventID: eventID, EquipmentID: 201, TotalQuantity: 5})

	f.invoiceSvc = NewInvoiceService(f.invoices, f.regs, f.stands, f.equipment, f.events, f.users, f.publisher, nil)
	f.svc = NewRegistrationService(f.regs, f.stands, f.equipment, f.events, f.invoiceSvc, f.publisher, nil)

	return f
}

func (f *fixture) createApproved(t *testing.T) *models.Registration {
	t.Helper()

	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)

	reg, err = f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID,
		Decision:       "APPROVE",
	})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationApproved, reg.Status)

	return reg
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestCreateRegistration(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.Equal(t, exhibitorID, reg.ExhibitorID)
	assert.True(t, f.publisher.published(models.EventRegistrationCreated))

	// A second live registration for the same event is rejected.
	_, err = f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateRegistrationEventNotOpen(t *testing.T) {
	f := newFixture(t)

	f.events.add(models.Event{
		ID:                   11,
		OrganizerID:          organizerID,
		Status:               models.EventDraft,
		StartDate:            time.Now().Add(30 * 24 * time.Hour),
		RegistrationDeadline: time.Now().Add(20 * 24 * time.Hour),
	})
	_, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: 11})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	f.events.add(models.Event{
		ID:                   12,
		OrganizerID:          organizerID,
		Status:               models.EventPublished,
		StartDate:            time.Now().Add(24 * time.Hour),
		RegistrationDeadline: time.Now().Add(-time.Hour),
	})
	_, err = f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: 12})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = f.svc.Create(context.Background(), organizer, &models.CreateRegistrationRequest{EventID: eventID})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestReviewRegistration(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)

	// Only the event's organizer may review.
	other := Principal{UserID: 55, Role: models.RoleOrganizer}
	_, err = f.svc.Review(context.Background(), other, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID, Decision: "APPROVE",
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Rejection without a reason is refused.
	_, err = f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID, Decision: "REJECT",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	reviewed, err := f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID, Decision: "APPROVE",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, reviewed.Status)
	assert.NotNil(t, reviewed.ApprovalDate)
	assert.True(t, f.publisher.published(models.EventRegistrationApproved))

	// The decision is final.
	_, err = f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID, Decision: "REJECT", Reason: strPtr("changed my mind"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestRejectRegistration(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)

	rejected, err := f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: reg.ID, Decision: "REJECT", Reason: strPtr("hall is full"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "hall is full", *rejected.RejectionReason)
	assert.True(t, f.publisher.published(models.EventRegistrationRejected))
}

func TestSelectStandsRequiresApproval(t *testing.T) {
	f := newFixture(t)

	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)

	_, err = f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestSelectStands(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	updated, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101, 102},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Stands, 2)

	stand, err := f.stands.GetByID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, models.StandReserved, stand.Status)
	require.NotNil(t, stand.RegistrationID)
	assert.Equal(t, reg.ID, *stand.RegistrationID)

	// Only the owning exhibitor may select.
	other := Principal{UserID: 77, Role: models.RoleExhibitor}
	_, err = f.svc.SelectStands(context.Background(), other, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{103},
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSelectStandsNoPartialReservation(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	// Stand 103 is already held by someone else.
	other := int64(555)
	f.stands.add(models.Stand{ID: 103, PlanID: 1, Number: 3, Type: "standard", Price: 50000,
		Status: models.StandReserved, RegistrationID: &other})

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101, 103},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)

	// The available stand was not reserved either.
	stand, err := f.stands.GetByID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, models.StandAvailable, stand.Status)
}

func TestEquipmentCapAcrossRegistrations(t *testing.T) {
	f := newFixture(t)

	f.equipment.associate(models.EventEquipment{EventID: eventID, EquipmentID: 201, TotalQuantity: 10})

	first := f.createApproved(t)
	_, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: first.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 6}},
	})
	require.NoError(t, err)

	secondExhibitor := Principal{UserID: 3, Role: models.RoleExhibitor}
	second, err := f.svc.Create(context.Background(), secondExhibitor, &models.CreateRegistrationRequest{EventID: eventID})
	require.NoError(t, err)
	_, err = f.svc.Review(context.Background(), organizer, &models.ReviewRegistrationRequest{
		RegistrationID: second.ID, Decision: "APPROVE",
	})
	require.NoError(t, err)

	_, err = f.svc.SelectEquipment(context.Background(), secondExhibitor, &models.SelectEquipmentRequest{
		RegistrationID: second.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 5}},
	})
	var inventoryErr *apperrors.InsufficientInventoryError
	require.ErrorAs(t, err, &inventoryErr)
	assert.Equal(t, 4, inventoryErr.Available)

	_, err = f.svc.SelectEquipment(context.Background(), secondExhibitor, &models.SelectEquipmentRequest{
		RegistrationID: second.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 4}},
	})
	require.NoError(t, err)
}

func TestSelectStandsDroppedStandStaysReserved(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101, 102},
	})
	require.NoError(t, err)

	updated, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Stands, 1)

	// The dropped stand keeps its reservation until reconciliation.
	stand, err := f.stands.GetByID(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, models.StandReserved, stand.Status)
}

func TestCompletionGeneratesInvoice(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101}, Completed: boolPtr(true),
	})
	require.NoError(t, err)

	// Still approved: equipment selection not confirmed yet.
	current, err := f.regs.GetByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, current.Status)

	updated, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 2}},
		Completed:      boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCompleted, updated.Status)
	assert.True(t, f.publisher.published(models.EventRegistrationCompleted))

	invoice, err := f.invoices.GetByRegistrationID(context.Background(), reg.ID)
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, int64(50000+2*1500), invoice.Subtotal)
	assert.Equal(t, models.InvoicePending, invoice.Status)

	// Re-selecting equipment after completion never regenerates the invoice.
	_, err = f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 1}},
	})
	require.NoError(t, err)

	again, err := f.invoices.GetByRegistrationID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, again.ID)
	assert.Equal(t, invoice.Subtotal, again.Subtotal)
}

func TestSelectEquipmentOverCap(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 6}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	var inventoryErr *apperrors.InsufficientInventoryError
	require.ErrorAs(t, err, &inventoryErr)
	assert.Equal(t, int64(201), inventoryErr.EquipmentID)
	assert.Equal(t, 6, inventoryErr.Requested)
	assert.Equal(t, 5, inventoryErr.Available)
}

func TestSelectEquipmentDuplicateEntries(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	// Two entries for the same equipment would slip 6 units past the
	// cap of 5 if each were checked on its own.
	_, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations: []models.EquipmentAllocationRequest{
			{EquipmentID: 201, Quantity: 3},
			{EquipmentID: 201, Quantity: 3},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Nothing was allocated: the full cap is still available.
	_, err = f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 5}},
	})
	require.NoError(t, err)
}

func TestSelectEquipmentNotOffered(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	f.equipment.add(models.Equipment{ID: 202, Name: "Spotlight", Price: 900})

	_, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 202, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelByExhibitor(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101},
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), exhibitor, &models.CancelRegistrationRequest{
		RegistrationID: reg.ID, Reason: strPtr("plans changed"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledRole)
	assert.Equal(t, models.RoleExhibitor, *cancelled.CancelledRole)
	assert.False(t, cancelled.StandSelectionComplete)
	assert.True(t, f.publisher.published(models.EventRegistrationCancelled))

	// The stand went back to inventory.
	stand, err := f.stands.GetByID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, models.StandAvailable, stand.Status)
	assert.Nil(t, stand.RegistrationID)

	// Terminal: cannot cancel twice.
	_, err = f.svc.Cancel(context.Background(), exhibitor, &models.CancelRegistrationRequest{RegistrationID: reg.ID})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelWindow(t *testing.T) {
	f := newFixture(t)

	f.events.add(models.Event{
		ID:                   13,
		OrganizerID:          organizerID,
		Status:               models.EventPublished,
		StartDate:            time.Now().Add(9 * 24 * time.Hour),
		RegistrationDeadline: time.Now().Add(5 * 24 * time.Hour),
	})
	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: 13})
	require.NoError(t, err)

	// Nine days out: the exhibitor can no longer cancel on their own.
	_, err = f.svc.Cancel(context.Background(), exhibitor, &models.CancelRegistrationRequest{RegistrationID: reg.ID})
	assert.ErrorIs(t, err, apperrors.ErrTooLateToCancel)

	// The organizer still can.
	cancelled, err := f.svc.Cancel(context.Background(), organizer, &models.CancelRegistrationRequest{
		RegistrationID: reg.ID, Reason: strPtr("exhibitor request"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledRole)
	assert.Equal(t, models.RoleOrganizer, *cancelled.CancelledRole)
}

func TestCancelPendingByExhibitorInsideWindowStillBlocked(t *testing.T) {
	f := newFixture(t)

	f.events.add(models.Event{
		ID:                   14,
		OrganizerID:          organizerID,
		Status:               models.EventPublished,
		StartDate:            time.Now().Add(11 * 24 * time.Hour),
		RegistrationDeadline: time.Now().Add(5 * 24 * time.Hour),
	})
	reg, err := f.svc.Create(context.Background(), exhibitor, &models.CreateRegistrationRequest{EventID: 14})
	require.NoError(t, err)

	// Eleven days out: still allowed.
	cancelled, err := f.svc.Cancel(context.Background(), exhibitor, &models.CancelRegistrationRequest{RegistrationID: reg.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, cancelled.Status)
}

func TestRemoveRegistration(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101},
	})
	require.NoError(t, err)

	err = f.svc.Remove(context.Background(), exhibitor, reg.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, f.svc.Remove(context.Background(), admin, reg.ID))

	gone, err := f.regs.GetByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	stand, err := f.stands.GetByID(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, models.StandAvailable, stand.Status)
}

func TestGetRegistrationVisibility(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.svc.Get(context.Background(), exhibitor, reg.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), organizer, reg.ID)
	require.NoError(t, err)

	stranger := Principal{UserID: 88, Role: models.RoleExhibitor}
	_, err = f.svc.Get(context.Background(), stranger, reg.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
