package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) completeWithResources(t *testing.T) *models.Registration {
	t.Helper()

	reg := f.createApproved(t)

	_, err := f.svc.SelectStands(context.Background(), exhibitor, &models.SelectStandsRequest{
		RegistrationID: reg.ID, StandIDs: []int64{101, 102}, Completed: boolPtr(true),
	})
	require.NoError(t, err)

	updated, err := f.svc.SelectEquipment(context.Background(), exhibitor, &models.SelectEquipmentRequest{
		RegistrationID: reg.ID,
		Allocations:    []models.EquipmentAllocationRequest{{EquipmentID: 201, Quantity: 3}},
		Completed:      boolPtr(true),
	})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationCompleted, updated.Status)

	return updated
}

func TestGenerateInvoiceAmounts(t *testing.T) {
	f := newFixture(t)
	reg := f.completeWithResources(t)

	invoice, err := f.invoiceSvc.GetByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)

	// Stands 50000 + 120000, equipment 3 x 1500.
	subtotal := int64(50000 + 120000 + 3*1500)
	assert.Equal(t, subtotal, invoice.Subtotal)
	assert.Equal(t, TaxRate, invoice.TaxRate)
	assert.Equal(t, int64(34900), invoice.TaxAmount)
	assert.Equal(t, invoice.Subtotal+invoice.TaxAmount, invoice.Total)
	assert.Equal(t, models.InvoicePending, invoice.Status)

	require.Len(t, invoice.Items, 3)
	assert.Equal(t, "stand", invoice.Items[0].ItemType)
	assert.Equal(t, "equipment", invoice.Items[2].ItemType)
	assert.Equal(t, "Projector", invoice.Items[2].Name)
	assert.Equal(t, 3, invoice.Items[2].Quantity)
}

func TestGenerateInvoiceUsesPriceOverride(t *testing.T) {
	f := newFixture(t)

	override := int64(2000)
	f.equipment.associate(models.EventEquipment{
		EventID: eventID, EquipmentID: 201, TotalQuantity: 5, Price: &override,
	})

	reg := f.completeWithResources(t)

	invoice, err := f.invoiceSvc.GetByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000+120000+3*2000), invoice.Subtotal)
}

func TestGenerateInvoiceIdempotent(t *testing.T) {
	f := newFixture(t)
	reg := f.completeWithResources(t)

	first, err := f.invoiceSvc.Generate(context.Background(), reg.ID)
	require.NoError(t, err)

	second, err := f.invoiceSvc.Generate(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)
}

func TestGenerateInvoiceRequiresCompleted(t *testing.T) {
	f := newFixture(t)
	reg := f.createApproved(t)

	_, err := f.invoiceSvc.Generate(context.Background(), reg.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = f.invoiceSvc.Generate(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInvoiceNumberFormat(t *testing.T) {
	f := newFixture(t)
	reg := f.completeWithResources(t)

	invoice, err := f.invoiceSvc.GetByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)

	pattern := fmt.Sprintf(`^ACM-%s-\d{4}$`, time.Now().Format("20060102"))
	assert.Regexp(t, regexp.MustCompile(pattern), invoice.Number)
}

func TestOrganizerPrefix(t *testing.T) {
	assert.Equal(t, "ACM", OrganizerPrefix("Acme Expo Group"))
	assert.Equal(t, "ALX", OrganizerPrefix("Al"))
	assert.Equal(t, "XXX", OrganizerPrefix("42"))
	assert.Equal(t, "BIG", OrganizerPrefix("b i g events ltd"))
}

func TestHandlePaymentNotification(t *testing.T) {
	f := newFixture(t)
	reg := f.completeWithResources(t)

	invoice, err := f.invoiceSvc.GetByRegistration(context.Background(), reg.ID)
	require.NoError(t, err)

	err = f.invoiceSvc.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		InvoiceNumber: invoice.Number,
		Status:        "COMPLETED",
	})
	require.NoError(t, err)

	paid, err := f.invoices.GetByID(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	// Unknown statuses are ignored, unknown numbers are not.
	require.NoError(t, f.invoiceSvc.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		InvoiceNumber: invoice.Number,
		Status:        "SOMETHING_ELSE",
	}))

	err = f.invoiceSvc.HandlePaymentNotification(context.Background(), &models.PaymentNotificationPayload{
		InvoiceNumber: "NOPE-00000000-0000",
		Status:        "COMPLETED",
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
