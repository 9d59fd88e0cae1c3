package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expohall/internal/apperrors"
	"expohall/internal/models"
	"expohall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("bad input: %w", apperrors.ErrValidation), http.StatusBadRequest},
		{"forbidden", fmt.Errorf("nope: %w", apperrors.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("missing: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("dup: %w", apperrors.ErrConflict), http.StatusConflict},
		{"invalid state", fmt.Errorf("state: %w", apperrors.ErrInvalidState), http.StatusConflict},
		{"not available", fmt.Errorf("taken: %w", apperrors.ErrNotAvailable), http.StatusConflict},
		{"too late", fmt.Errorf("late: %w", apperrors.ErrTooLateToCancel), http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRespondErrorInsufficientInventory(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &apperrors.InsufficientInventoryError{
		EquipmentID: 201,
		Requested:   6,
		Available:   2,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"equipment_id":201`)
	assert.Contains(t, body, `"requested":6`)
	assert.Contains(t, body, `"available":2`)
}

func TestToInvoiceResponse(t *testing.T) {
	invoice := &models.Invoice{
		ID:             1,
		Number:         "ACM-20260315-0042",
		RegistrationID: 7,
		Subtotal:       174500,
		TaxRate:        0.20,
		TaxAmount:      34900,
		Total:          209400,
		Status:         models.InvoicePending,
		CreatedAt:      time.Now(),
		Items: []models.InvoiceItem{
			{ItemType: "stand", Name: "premium 2", UnitPrice: 120000, Quantity: 1},
			{ItemType: "equipment", Name: "Projector", UnitPrice: 1500, Quantity: 3},
		},
	}

	resp := toInvoiceResponse(invoice)

	assert.Equal(t, "1745.00", resp.Subtotal)
	assert.Equal(t, "349.00", resp.TaxAmount)
	assert.Equal(t, "2094.00", resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "1200.00", resp.Items[0].UnitPrice)
	assert.Equal(t, "1200.00", resp.Items[0].LineTotal)
	assert.Equal(t, "15.00", resp.Items[1].UnitPrice)
	assert.Equal(t, "45.00", resp.Items[1].LineTotal)
}

func testRouter(h *Handlers, p *service.Principal) *gin.Engine {
	router := gin.New()
	if p != nil {
		router.Use(func(c *gin.Context) {
			c.Set("principal", *p)
		})
	}
	router.POST("/api/registrations", h.CreateRegistration)
	router.GET("/api/registrations/:id", h.GetRegistration)
	router.POST("/webhooks/payments", h.PaymentNotification)
	return router
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	h := New(&service.Services{})
	router := testRouter(h, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/registrations",
		strings.NewReader(`{"event_id": 1}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvalidPathID(t *testing.T) {
	h := New(&service.Services{})
	p := service.Principal{UserID: 1, Role: models.RoleExhibitor}
	router := testRouter(h, &p)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/registrations/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRegistrationBadPayload(t *testing.T) {
	h := New(&service.Services{})
	p := service.Principal{UserID: 1, Role: models.RoleExhibitor}
	router := testRouter(h, &p)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/registrations",
		strings.NewReader(`{"note": "missing event id"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentNotificationBadPayload(t *testing.T) {
	h := New(&service.Services{})
	router := testRouter(h, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments",
		strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
