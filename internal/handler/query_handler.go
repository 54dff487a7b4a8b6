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

type appointmentQueries interface {
	Get(ctx context.Context, id int64) (*models.AppointmentView, error)
	Pending(ctx context.Context, facultyID int64, category string) ([]models.AppointmentView, error)
	ForStudent(ctx context.Context, studentID int64) ([]models.AppointmentView, error)
	Upcoming(ctx context.Context, facultyID int64, query dto.UpcomingQuery) ([]models.AppointmentView, error)
	Categories(ctx context.Context, facultyID int64) ([]string, error)
	StaffUpcoming(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error)
	StaffOverview(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error)
	Inbox(ctx context.Context) ([]models.AppointmentView, error)
	StudentHistory(ctx context.Context, q string) (*models.HistoryResult, error)
	QueueSummary(ctx context.Context, query dto.QueueSummaryQuery) (*models.QueueSummary, error)
	QueueStatus(ctx context.Context, studentID int64) (*models.QueueStatus, error)
}

// QueryHandler serves the read-only appointment projections.
type QueryHandler struct {
	service appointmentQueries
}

// NewQueryHandler constructs the handler.
func NewQueryHandler(service appointmentQueries) *QueryHandler {
	return &QueryHandler{service: service}
}

// Get godoc
// @Summary Appointment detail
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *QueryHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Pending godoc
// @Summary Waiting requests for a provider
// @Tags Appointments
// @Produce json
// @Param facultyId path int true "Provider ID"
// @Param category query string false "Category"
// @Success 200 {object} response.Envelope
// @Router /appointments/pending/{facultyId} [get]
func (h *QueryHandler) Pending(c *gin.Context) {
	facultyID, err := int64Param(c, "facultyId")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c)(h.service.Pending(c.Request.Context(), facultyID, c.Query("category")))
}

// Mine godoc
// @Summary A student's appointments
// @Tags Appointments
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/my/{studentId} [get]
func (h *QueryHandler) Mine(c *gin.Context) {
	studentID, err := int64Param(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c)(h.service.ForStudent(c.Request.Context(), studentID))
}

// Upcoming godoc
// @Summary Approved upcoming appointments for a provider
// @Tags Appointments
// @Produce json
// @Param facultyId path int true "Provider ID"
// @Param category query string false "Category"
// @Param onlyAcademic query bool false "Restrict to academic categories"
// @Success 200 {object} response.Envelope
// @Router /appointments/upcoming/{facultyId} [get]
func (h *QueryHandler) Upcoming(c *gin.Context) {
	facultyID, err := int64Param(c, "facultyId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.UpcomingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	h.list(c)(h.service.Upcoming(c.Request.Context(), facultyID, query))
}

// Categories godoc
// @Summary Distinct categories booked with a provider
// @Tags Appointments
// @Produce json
// @Param facultyId path int true "Provider ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/categories/{facultyId} [get]
func (h *QueryHandler) Categories(c *gin.Context) {
	facultyID, err := int64Param(c, "facultyId")
	if err != nil {
		response.Error(c, err)
		return
	}
	categories, err := h.service.Categories(c.Request.Context(), facultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// StaffUpcoming godoc
// @Summary Upcoming appointments across providers
// @Tags Staff
// @Produce json
// @Param from query string false "From date"
// @Param to query string false "To date"
// @Param category query string false "Category"
// @Param status query string false "Status or all"
// @Param q query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /staff/appointments/upcoming [get]
func (h *QueryHandler) StaffUpcoming(c *gin.Context) {
	query, ok := bindStaffQuery(c)
	if !ok {
		return
	}
	h.list(c)(h.service.StaffUpcoming(c.Request.Context(), query))
}

// StaffOverview godoc
// @Summary Every appointment, sorted
// @Tags Staff
// @Produce json
// @Param sortBy query string false "date|time|category|createdAt"
// @Param order query string false "ASC|DESC"
// @Success 200 {object} response.Envelope
// @Router /staff/overview [get]
func (h *QueryHandler) StaffOverview(c *gin.Context) {
	query, ok := bindStaffQuery(c)
	if !ok {
		return
	}
	h.list(c)(h.service.StaffOverview(c.Request.Context(), query))
}

// Inbox godoc
// @Summary Most recent requests
// @Tags Staff
// @Produce json
// @Param staffId path int true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/inbox/{staffId} [get]
func (h *QueryHandler) Inbox(c *gin.Context) {
	if _, err := int64Param(c, "staffId"); err != nil {
		response.Error(c, err)
		return
	}
	h.list(c)(h.service.Inbox(c.Request.Context()))
}

// StudentHistory godoc
// @Summary Search a student's history by id or name
// @Tags Staff
// @Produce json
// @Param q query string false "Student id or name fragment"
// @Success 200 {object} response.Envelope
// @Router /staff/student-history [get]
func (h *QueryHandler) StudentHistory(c *gin.Context) {
	result, err := h.service.StudentHistory(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// QueueSummary godoc
// @Summary Waiting line summary
// @Tags Queue
// @Produce json
// @Param category query string false "Category"
// @Param facultyId query int false "Provider ID"
// @Success 200 {object} response.Envelope
// @Router /queues/summary [get]
func (h *QueryHandler) QueueSummary(c *gin.Context) {
	var query dto.QueueSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	summary, err := h.service.QueueSummary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// QueueStatus godoc
// @Summary A student's place in line
// @Tags Queue
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /queue/status/{studentId} [get]
func (h *QueryHandler) QueueStatus(c *gin.Context) {
	studentID, err := int64Param(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.QueueStatus(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

func (h *QueryHandler) list(c *gin.Context) func([]models.AppointmentView, error) {
	return func(views []models.AppointmentView, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, views, nil)
	}
}

func bindStaffQuery(c *gin.Context) (dto.StaffQuery, bool) {
	var query dto.StaffQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return query, false
	}
	return query, true
}
