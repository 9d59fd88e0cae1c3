package handlers

import (
	"net/http"
	"strconv"

	"expohall/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEquipment handles POST /api/equipment.
func (h *Handlers) CreateEquipment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment, err := h.services.Equipment.CreateEquipment(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, equipment)
}

// AssociateEquipment handles POST /api/equipment/associate.
func (h *Handlers) AssociateEquipment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.AssociateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Equipment.Associate(c.Request.Context(), p, &req); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DissociateEquipment handles DELETE /api/events/:id/equipment/:equipmentId.
func (h *Handlers) DissociateEquipment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	eventID, err := pathID(c, "id")
	if err != nil {
		return
	}
	equipmentID, err := strconv.ParseInt(c.Param("equipmentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid equipmentId"})
		return
	}

	if err := h.services.Equipment.Dissociate(c.Request.Context(), p, eventID, equipmentID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEquipmentAvailability handles GET /api/events/:id/equipment.
func (h *Handlers) ListEquipmentAvailability(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		return
	}

	items, err := h.services.Equipment.ListAvailability(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"equipment": items})
}
