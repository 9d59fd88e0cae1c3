package handlers

import (
	"net/http"

	"expohall/internal/models"

	"github.com/gin-gonic/gin"
)

// CreatePlan handles POST /api/plans.
func (h *Handlers) CreatePlan(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.services.Stands.CreatePlan(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /api/events/:id/plans.
func (h *Handlers) ListPlans(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		return
	}

	plans, err := h.services.Stands.ListPlans(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// CreateStand handles POST /api/stands.
func (h *Handlers) CreateStand(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateStandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stand, err := h.services.Stands.CreateStand(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, stand)
}

// ListPlanStands handles GET /api/plans/:id/stands, served from the
// cache when fresh.
func (h *Handlers) ListPlanStands(c *gin.Context) {
	planID, err := pathID(c, "id")
	if err != nil {
		return
	}

	data, err := h.services.Stands.ListByPlanCached(c.Request.Context(), planID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// ListAvailableStands handles GET /api/events/:id/stands/available.
func (h *Handlers) ListAvailableStands(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		return
	}

	items, err := h.services.Stands.ListAvailableByEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stands": items})
}

// ReserveStand handles POST /api/stands/:id/reserve (admin).
func (h *Handlers) ReserveStand(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	standID, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req struct {
		RegistrationID int64 `json:"registration_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Stands.Reserve(c.Request.Context(), p, standID, req.RegistrationID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FreeStand handles POST /api/stands/:id/free (admin).
func (h *Handlers) FreeStand(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	standID, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := h.services.Stands.Free(c.Request.Context(), p, standID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
