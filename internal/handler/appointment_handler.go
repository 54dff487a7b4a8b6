package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/response"
)

type appointmentService interface {
	Availability(ctx context.Context, facultyID int64, date string) ([]models.SlotAvailability, error)
	Book(ctx context.Context, req dto.BookAppointmentRequest) (*models.Appointment, error)
	Decide(ctx context.Context, id int64, req dto.DecisionRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, id int64, actorID int64) (*models.Appointment, error)
	Reschedule(ctx context.Context, id int64, req dto.RescheduleRequest) (*models.Appointment, error)
	GetNote(ctx context.Context, id int64) (string, error)
	SetNote(ctx context.Context, id int64, req dto.NoteRequest) (string, error)
	AppendComment(ctx context.Context, id int64, req dto.NoteRequest) (string, error)
}

type attachmentStore interface {
	Store(field models.AttachmentField, size int64, r io.Reader) (string, error)
	Discard(paths ...string)
}

// AppointmentHandler exposes booking, decision, cancel/reschedule and notes endpoints.
type AppointmentHandler struct {
	service     appointmentService
	attachments attachmentStore
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(service appointmentService, attachments attachmentStore) *AppointmentHandler {
	return &AppointmentHandler{service: service, attachments: attachments}
}

// Availability godoc
// @Summary Slot availability for a provider on a date
// @Tags Appointments
// @Produce json
// @Param facultyId path int true "Provider ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /appointments/available/{facultyId}/{date} [get]
func (h *AppointmentHandler) Availability(c *gin.Context) {
	facultyID, err := int64Param(c, "facultyId")
	if err != nil {
		response.Error(c, err)
		return
	}
	slots, err := h.service.Availability(c.Request.Context(), facultyID, c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Book godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json,mpfd
// @Produce json
// @Param studentId formData int true "Student ID"
// @Param personId formData int true "Provider ID"
// @Param date formData string true "Date (YYYY-MM-DD)"
// @Param time formData string true "Slot label"
// @Param category formData string false "Category"
// @Param reason formData string false "Reason"
// @Param transcripts formData file false "Transcript (PDF or PNG)"
// @Param paymentProof formData file false "Payment proof (PDF or PNG)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/book [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req dto.BookAppointmentRequest
	multipartBody := strings.HasPrefix(c.ContentType(), "multipart/")
	var bindErr error
	if multipartBody {
		bindErr = c.ShouldBind(&req)
	} else {
		bindErr = c.ShouldBindJSON(&req)
	}
	if bindErr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId, personId, date and time are required."))
		return
	}

	if multipartBody && h.attachments != nil {
		transcript, err := h.storeUpload(c, models.AttachmentTranscript, "transcripts", "transcript")
		if err != nil {
			response.Error(c, err)
			return
		}
		payment, err := h.storeUpload(c, models.AttachmentPaymentProof, "paymentProof")
		if err != nil {
			h.attachments.Discard(transcript)
			response.Error(c, err)
			return
		}
		req.TranscriptPath = transcript
		req.PaymentProofPath = payment
	}

	appt, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		if h.attachments != nil {
			h.attachments.Discard(req.TranscriptPath, req.PaymentProofPath)
		}
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Appointment booked", gin.H{"appointment": dto.NewBookAppointmentResponse(appt)})
}

// Decide godoc
// @Summary Approve or reject a waiting appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/decision [put]
func (h *AppointmentHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "action must be APPROVE or REJECT"))
		return
	}
	h.decide(c, req)
}

// LegacyDecide godoc
// @Summary Approve or reject a waiting appointment (legacy payload)
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.LegacyDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/decide [post]
func (h *AppointmentHandler) LegacyDecide(c *gin.Context) {
	var req dto.LegacyDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facultyId and decision (APPROVED|REJECTED) are required"))
		return
	}
	decision := req.DecisionRequest()
	if decision.Action == "" || (decision.FacultyID == 0 && claimsFromContext(c) == nil) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facultyId and decision (APPROVED|REJECTED) are required"))
		return
	}
	h.decide(c, decision)
}

func (h *AppointmentHandler) decide(c *gin.Context, req dto.DecisionRequest) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.FacultyID, err = actingUser(c, req.FacultyID); err != nil {
		response.Error(c, err)
		return
	}
	appt, err := h.service.Decide(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Appointment "+strings.ToLower(string(appt.Status))+".", dto.NewDecisionResponse(appt))
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/cancel/{id} [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid cancel payload"))
			return
		}
	}
	actorID, err := actingUser(c, req.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	appt, err := h.service.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Appointment canceled.", appt)
}

// Reschedule godoc
// @Summary Move an appointment to another slot
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.RescheduleRequest true "Target slot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /appointments/reschedule/{id} [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date and time are required."))
		return
	}
	if req.ActorID, err = actingUser(c, req.ActorID); err != nil {
		response.Error(c, err)
		return
	}
	appt, err := h.service.Reschedule(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Appointment rescheduled.", appt)
}

// GetNote godoc
// @Summary Read the notes thread
// @Tags Notes
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/note [get]
func (h *AppointmentHandler) GetNote(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	note, err := h.service.GetNote(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NoteResponse{Note: note}, nil)
}

// SetNote godoc
// @Summary Overwrite the notes thread
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.NoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/note [put]
func (h *AppointmentHandler) SetNote(c *gin.Context) {
	h.writeNote(c, "Notes updated", h.service.SetNote)
}

// AppendComment godoc
// @Summary Append a comment to the notes thread
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param payload body dto.NoteRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Router /appointments/comment/{id} [post]
func (h *AppointmentHandler) AppendComment(c *gin.Context) {
	h.writeNote(c, "Comment added", h.service.AppendComment)
}

func (h *AppointmentHandler) writeNote(c *gin.Context, message string, write func(context.Context, int64, dto.NoteRequest) (string, error)) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid note payload"))
		return
	}
	if req.FacultyID, err = actingUser(c, req.FacultyID); err != nil {
		response.Error(c, err)
		return
	}
	note, err := write(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, message, dto.NoteResponse{Note: note})
}

// storeUpload saves the first file found under any of the form keys.
func (h *AppointmentHandler) storeUpload(c *gin.Context, field models.AttachmentField, keys ...string) (string, error) {
	var header *multipart.FileHeader
	for _, key := range keys {
		if fh, err := c.FormFile(key); err == nil {
			header = fh
			break
		}
	}
	if header == nil {
		return "", nil
	}
	src, err := header.Open()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close()
	return h.attachments.Store(field, header.Size, src)
}
