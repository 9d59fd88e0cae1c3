package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"expohall/internal/apperrors"
	"expohall/internal/middleware"
	"expohall/internal/models"
	"expohall/internal/service"

	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP layer; all business rules live in the services.
type Handlers struct {
	services *service.Services
}

func New(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// principal aborts with 401 when BasicAuth did not run on this route.
func principal(c *gin.Context) (service.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return p, ok
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var inventoryErr *apperrors.InsufficientInventoryError
	if errors.As(err, &inventoryErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        inventoryErr.Error(),
			"equipment_id": inventoryErr.EquipmentID,
			"requested":    inventoryErr.Requested,
			"available":    inventoryErr.Available,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrNotAvailable),
		errors.Is(err, apperrors.ErrTooLateToCancel),
		errors.Is(err, apperrors.ErrInsufficientInventory):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func formatMoney(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100.0)
}

func toInvoiceResponse(invoice *models.Invoice) models.InvoiceResponse {
	items := make([]models.InvoiceItemResponse, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = models.InvoiceItemResponse{
			ItemType:  item.ItemType,
			Name:      item.Name,
			UnitPrice: formatMoney(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: formatMoney(item.UnitPrice * int64(item.Quantity)),
		}
	}

	return models.InvoiceResponse{
		ID:             invoice.ID,
		Number:         invoice.Number,
		RegistrationID: invoice.RegistrationID,
		Subtotal:       formatMoney(invoice.Subtotal),
		TaxRate:        invoice.TaxRate,
		TaxAmount:      formatMoney(invoice.TaxAmount),
		Total:          formatMoney(invoice.Total),
		Status:         invoice.Status,
		Items:          items,
	}
}
