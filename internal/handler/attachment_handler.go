package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/service"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/response"
)

type attachmentOpener interface {
	Open(ctx context.Context, appointmentID int64, field models.AttachmentField, token string) (*service.AttachmentDownload, error)
}

// AttachmentHandler streams booking uploads behind signed links.
type AttachmentHandler struct {
	service attachmentOpener
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(service attachmentOpener) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Download godoc
// @Summary Download a booking attachment
// @Tags Attachments
// @Produce application/pdf,image/png
// @Param appointmentId path int true "Appointment ID"
// @Param field path string true "transcript|paymentProof"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attachments/{appointmentId}/{field} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, err := int64Param(c, "appointmentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	field := models.AttachmentField(c.Param("field"))
	if !field.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Invalid field"))
		return
	}
	download, err := h.service.Open(c.Request.Context(), id, field, c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	response.Attachment(c, download.Filename, download.ContentType, download.Size, download.File)
}
