package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/pkg/response"
)

type announcementService interface {
	Latest(ctx context.Context) (*models.Announcement, error)
}

// AnnouncementHandler serves the dashboard banner.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// Latest godoc
// @Summary Latest active announcement
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements/latest [get]
func (h *AnnouncementHandler) Latest(c *gin.Context) {
	item, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if item == nil {
		response.Message(c, http.StatusOK, "No announcements", nil)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
