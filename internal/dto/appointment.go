package dto

import (
	"strings"
	"time"

	"github.com/psuflow/psuflow-api/internal/models"
)

// BookAppointmentRequest captures POST /appointments/book as JSON or multipart form.
type BookAppointmentRequest struct {
	StudentID int64  `json:"studentId" form:"studentId" validate:"required,gt=0"`
	PersonID  int64  `json:"personId" form:"personId" validate:"required,gt=0"`
	Date      string `json:"date" form:"date" validate:"required"`
	Time      string `json:"time" form:"time" validate:"required"`
	Category  string `json:"category" form:"category"`
	Reason    string `json:"reason" form:"reason"`

	TranscriptPath   string `json:"-" form:"-"`
	PaymentProofPath string `json:"-" form:"-"`
}

// BookAppointmentResponse mirrors the booking confirmation payload.
type BookAppointmentResponse struct {
	ID        int64                    `json:"id"`
	StudentID int64                    `json:"studentId"`
	FacultyID int64                    `json:"facultyId"`
	DateISO   string                   `json:"dateISO"`
	TimeLabel string                   `json:"timeLabel"`
	Category  string                   `json:"category"`
	Reason    string                   `json:"reason"`
	Status    models.AppointmentStatus `json:"status"`
}

// NewBookAppointmentResponse projects a created appointment.
func NewBookAppointmentResponse(a *models.Appointment) BookAppointmentResponse {
	resp := BookAppointmentResponse{
		ID:        a.ID,
		StudentID: a.StudentID,
		FacultyID: a.FacultyID,
		DateISO:   a.Date,
		TimeLabel: a.Time,
		Status:    a.Status,
	}
	if a.Category != nil {
		resp.Category = *a.Category
	}
	if a.Reason != nil {
		resp.Reason = *a.Reason
	}
	return resp
}

// DecisionRequest captures PUT /appointments/:id/decision.
type DecisionRequest struct {
	Action    string `json:"action"`
	FacultyID int64  `json:"facultyId"`
}

// NormalizedAction upper-cases the requested action.
func (r DecisionRequest) NormalizedAction() models.AppointmentAction {
	return models.AppointmentAction(strings.ToUpper(strings.TrimSpace(r.Action)))
}

// LegacyDecisionRequest captures POST /appointments/:id/decide.
type LegacyDecisionRequest struct {
	FacultyID int64  `json:"facultyId"`
	Decision  string `json:"decision"`
}

// DecisionRequest maps APPROVED/REJECTED onto the action vocabulary.
func (r LegacyDecisionRequest) DecisionRequest() DecisionRequest {
	action := ""
	switch models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(r.Decision))) {
	case models.StatusApproved:
		action = string(models.ActionApprove)
	case models.StatusRejected:
		action = string(models.ActionReject)
	}
	return DecisionRequest{Action: action, FacultyID: r.FacultyID}
}

// DecisionResponse reports the committed decision.
type DecisionResponse struct {
	ID          int64                    `json:"id"`
	Status      models.AppointmentStatus `json:"status"`
	DecidedByID *int64                   `json:"decidedById"`
	DecidedAt   *time.Time               `json:"decidedAt"`
}

// NewDecisionResponse projects a decided appointment.
func NewDecisionResponse(a *models.Appointment) DecisionResponse {
	return DecisionResponse{ID: a.ID, Status: a.Status, DecidedByID: a.DecidedByID, DecidedAt: a.DecidedAt}
}

// CancelRequest optionally names the acting user.
type CancelRequest struct {
	ActorID int64 `json:"actorId"`
}

// RescheduleRequest captures POST /appointments/reschedule/:id.
type RescheduleRequest struct {
	Date    string `json:"date" validate:"required"`
	Time    string `json:"time" validate:"required"`
	ActorID int64  `json:"actorId"`
}

// NoteRequest captures note overwrites and comment appends.
type NoteRequest struct {
	FacultyID int64  `json:"facultyId"`
	Text      string `json:"text"`
}

// NoteResponse wraps the stored note thread.
type NoteResponse struct {
	Note string `json:"note"`
}

// StaffQuery is the query string of the staff listings.
type StaffQuery struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Category string `form:"category"`
	Status   string `form:"status"`
	Q        string `form:"q"`
	SortBy   string `form:"sortBy"`
	Order    string `form:"order"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// Filter converts the query into a repository filter.
func (q StaffQuery) Filter() models.StaffFilter {
	filter := models.StaffFilter{
		From:     strings.TrimSpace(q.From),
		To:       strings.TrimSpace(q.To),
		Category: q.Category,
		Status:   strings.ToUpper(q.Status),
		Query:    q.Q,
		Desc:     strings.EqualFold(q.Order, "DESC"),
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if strings.EqualFold(q.Status, "all") {
		filter.Status = "all"
	}
	switch strings.ToLower(q.SortBy) {
	case "time":
		filter.SortBy = models.StaffSortTime
	case "category":
		filter.SortBy = models.StaffSortCategory
	case "createdat":
		filter.SortBy = models.StaffSortCreatedAt
	default:
		filter.SortBy = models.StaffSortDate
	}
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

// QueueSummaryQuery filters GET /queues/summary.
type QueueSummaryQuery struct {
	Category  string `form:"category"`
	FacultyID int64  `form:"facultyId"`
}

// UpcomingQuery filters GET /appointments/upcoming/:facultyId.
type UpcomingQuery struct {
	Category     string `form:"category"`
	OnlyAcademic bool   `form:"onlyAcademic"`
}
