package handlers

import (
	"net/http"
	"strconv"
	"time"

	"expohall/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent handles POST /api/events.
func (h *Handlers) CreateEvent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateEventResponse{ID: event.ID})
}

// GetEvent handles GET /api/events/:id.
func (h *Handlers) GetEvent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents handles GET /api/events: the public listing with optional
// full-text query and start-date filter.
func (h *Handlers) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, err := h.services.Events.List(c.Request.Context(),
		c.Query("query"), c.Query("date"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]models.ListEventsResponseItem, len(events))
	for i, event := range events {
		items[i] = models.ListEventsResponseItem{
			ID:        event.ID,
			Title:     event.Title,
			Status:    event.Status,
			StartDate: event.StartDate.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"events": items})
}

// PublishEvent handles POST /api/events/:id/publish.
func (h *Handlers) PublishEvent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	event, err := h.services.Events.Publish(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// CloseEvent handles POST /api/events/:id/close.
func (h *Handlers) CloseEvent(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	event, err := h.services.Events.Close(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
