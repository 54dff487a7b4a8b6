package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/service"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/response"
)

type exportService interface {
	Overview(ctx context.Context, query dto.ExportQuery) (*models.ExportResult, error)
	Resolve(token string) (*service.ExportDownload, error)
}

// ExportHandler renders staff overview exports and serves the results.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Overview godoc
// @Summary Export the staff overview as CSV or PDF
// @Tags Staff
// @Produce json
// @Param format query string false "csv|pdf"
// @Success 201 {object} response.Envelope
// @Router /staff/overview/export [get]
func (h *ExportHandler) Overview(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	result, err := h.service.Overview(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// Download godoc
// @Summary Download a rendered export
// @Tags Staff
// @Produce text/csv,application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.service.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	response.Attachment(c, download.Filename, download.ContentType, download.Size, download.File)
}
