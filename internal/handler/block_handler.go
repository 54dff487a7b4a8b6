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

type blockService interface {
	Block(ctx context.Context, req dto.BlockRequest) (*models.BlockedSlot, bool, error)
	List(ctx context.Context, query dto.BlockListQuery) ([]models.BlockedSlot, error)
	Unblock(ctx context.Context, req dto.BlockRequest) (bool, error)
}

// BlockHandler manages provider-blocked slots.
type BlockHandler struct {
	service blockService
}

// NewBlockHandler constructs the handler.
func NewBlockHandler(service blockService) *BlockHandler {
	return &BlockHandler{service: service}
}

// Create godoc
// @Summary Block a slot
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body dto.BlockRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /faculty/blocks [post]
func (h *BlockHandler) Create(c *gin.Context) {
	req, ok := bindBlockRequest(c)
	if !ok {
		return
	}
	slot, created, err := h.service.Block(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !created {
		response.Message(c, http.StatusOK, "Already blocked.", slot)
		return
	}
	response.Message(c, http.StatusCreated, "Time blocked.", slot)
}

// List godoc
// @Summary Blocked slots for a provider
// @Tags Blocks
// @Produce json
// @Param facultyId query int true "Provider ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /faculty/blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	var query dto.BlockListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facultyId required"))
		return
	}
	slots, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Unblock a slot
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body dto.BlockRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /faculty/blocks [delete]
func (h *BlockHandler) Delete(c *gin.Context) {
	req, ok := bindBlockRequest(c)
	if !ok {
		return
	}
	removed, err := h.service.Unblock(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "Unblocked."
	if !removed {
		message = "Nothing to unblock."
	}
	response.Message(c, http.StatusOK, message, gin.H{"removed": removed})
}

func bindBlockRequest(c *gin.Context) (dto.BlockRequest, bool) {
	var req dto.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facultyId, date, time are required."))
		return req, false
	}
	var err error
	if req.FacultyID, err = actingUser(c, req.FacultyID); err != nil {
		response.Error(c, err)
		return req, false
	}
	return req, true
}
