package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/response"
)

type notificationService interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64, read bool) (*models.Notification, error)
}

// NotificationHandler exposes the per-user notification feed.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary Notifications for a user, newest first
// @Tags Notifications
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/user/{userId} [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := int64Param(c, "userId")
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// MarkRead godoc
// @Summary Set the read flag
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param payload body dto.MarkReadRequest false "Read flag"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.MarkReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "read must be a boolean"))
			return
		}
	}
	item, err := h.service.MarkRead(c.Request.Context(), id, req.Value())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
