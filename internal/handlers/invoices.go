package handlers

import (
	"net/http"

	"expohall/internal/logger"
	"expohall/internal/models"

	"github.com/gin-gonic/gin"
)

// GetInvoice handles GET /api/invoices/:id.
func (h *Handlers) GetInvoice(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	invoice, err := h.services.Invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// GetRegistrationInvoice handles GET /api/registrations/:id/invoice.
func (h *Handlers) GetRegistrationInvoice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	registrationID, err := pathID(c, "id")
	if err != nil {
		return
	}

	// The registration lookup enforces visibility before the invoice
	// is exposed.
	if _, err := h.services.Registrations.Get(c.Request.Context(), p, registrationID); err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.services.Invoices.GetByRegistration(c.Request.Context(), registrationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// GenerateInvoice handles POST /api/registrations/:id/invoice, the
// retry path when generation failed at completion time.
func (h *Handlers) GenerateInvoice(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	registrationID, err := pathID(c, "id")
	if err != nil {
		return
	}

	if _, err := h.services.Registrations.Get(c.Request.Context(), p, registrationID); err != nil {
		respondError(c, err)
		return
	}

	invoice, err := h.services.Invoices.Generate(c.Request.Context(), registrationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

// PaymentNotification handles POST /webhooks/payments from the payment
// provider. Always answers 200 so the provider does not retry
// permanently broken payloads.
func (h *Handlers) PaymentNotification(c *gin.Context) {
	var payload models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Invoices.HandlePaymentNotification(c.Request.Context(), &payload); err != nil {
		logger.WithContext(c.Request.Context()).Error("Payment notification failed",
			"error", err,
			"invoice_number", payload.InvoiceNumber)
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
