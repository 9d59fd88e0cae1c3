package handlers

import (
	"net/http"
	"strconv"

	"expohall/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateRegistration handles POST /api/registrations.
func (h *Handlers) CreateRegistration(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.services.Registrations.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateRegistrationResponse{
		ID:     reg.ID,
		Status: reg.Status,
	})
}

// GetRegistration handles GET /api/registrations/:id.
func (h *Handlers) GetRegistration(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	reg, err := h.services.Registrations.Get(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.RegistrationResponse{Registration: *reg}
	if invoice, err := h.services.Invoices.GetByRegistration(c.Request.Context(), reg.ID); err == nil {
		resp.InvoiceID = &invoice.ID
	}

	c.JSON(http.StatusOK, resp)
}

// ListRegistrations handles GET /api/registrations. Exhibitors see
// their own; organizers pass event_id to see an event's registrations.
func (h *Handlers) ListRegistrations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	status := c.Query("status")

	if eventIDStr := c.Query("event_id"); eventIDStr != "" {
		eventID, err := strconv.ParseInt(eventIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		regs, err := h.services.Registrations.ListByEvent(c.Request.Context(), p, eventID, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"registrations": regs})
		return
	}

	regs, err := h.services.Registrations.ListOwn(c.Request.Context(), p, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": regs})
}

// ReviewRegistration handles POST /api/registrations/review.
func (h *Handlers) ReviewRegistration(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.ReviewRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.services.Registrations.Review(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// SelectStands handles POST /api/registrations/stands.
func (h *Handlers) SelectStands(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.SelectStandsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.services.Registrations.SelectStands(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// SelectEquipment handles POST /api/registrations/equipment.
func (h *Handlers) SelectEquipment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.SelectEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.services.Registrations.SelectEquipment(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// CancelRegistration handles POST /api/registrations/cancel.
func (h *Handlers) CancelRegistration(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CancelRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.services.Registrations.Cancel(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// RemoveRegistration handles DELETE /api/registrations/:id.
func (h *Handlers) RemoveRegistration(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := h.services.Registrations.Remove(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// pathID parses an int64 path parameter, responding 400 on garbage.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, err
	}
	return id, nil
}
