package models

import "time"

// AppointmentStatus enumerates the persisted appointment lifecycle states.
type AppointmentStatus string

const (
	StatusWaiting     AppointmentStatus = "WAITING"
	StatusApproved    AppointmentStatus = "APPROVED"
	StatusRejected    AppointmentStatus = "REJECTED"
	StatusCanceled    AppointmentStatus = "CANCELED"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"

	// Reserved states accepted by the schema but not driven by the booking flows.
	StatusBlocked    AppointmentStatus = "BLOCKED"
	StatusConfirmed  AppointmentStatus = "CONFIRMED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
)

// Valid reports whether the status belongs to the known taxonomy.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled, StatusRescheduled,
		StatusBlocked, StatusConfirmed, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether the appointment can no longer be moved or canceled.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusRejected || s == StatusCompleted
}

// TerminalStatuses lists the states that release slot capacity.
func TerminalStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusCanceled, StatusRejected, StatusCompleted}
}

// AppointmentAction is an operation that drives a status transition.
type AppointmentAction string

const (
	ActionApprove    AppointmentAction = "APPROVE"
	ActionReject     AppointmentAction = "REJECT"
	ActionCancel     AppointmentAction = "CANCEL"
	ActionReschedule AppointmentAction = "RESCHEDULE"
)

// Appointment is a persisted booking between a student and a provider.
type Appointment struct {
	ID               int64             `db:"id" json:"id"`
	StudentID        int64             `db:"student_id" json:"studentId"`
	FacultyID        int64             `db:"faculty_id" json:"facultyId"`
	Date             string            `db:"date" json:"date"`
	Time             string            `db:"time" json:"time"`
	Category         *string           `db:"category" json:"category"`
	Reason           *string           `db:"reason" json:"reason"`
	Status           AppointmentStatus `db:"status" json:"status"`
	TranscriptPath   *string           `db:"transcript_path" json:"-"`
	PaymentProofPath *string           `db:"payment_proof_path" json:"-"`
	Notes            *string           `db:"notes" json:"notes"`
	DecidedByID      *int64            `db:"decided_by_id" json:"decidedById"`
	DecidedAt        *time.Time        `db:"decided_at" json:"decidedAt"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updatedAt"`
}

// CategoryOr returns the category or the fallback when unset.
func (a *Appointment) CategoryOr(fallback string) string {
	if a.Category == nil || *a.Category == "" {
		return fallback
	}
	return *a.Category
}

// AppointmentView joins an appointment with the display names of both parties.
type AppointmentView struct {
	Appointment
	StudentName     *string `db:"student_name" json:"-"`
	StudentUsername *string `db:"student_username" json:"-"`
	FacultyName     *string `db:"faculty_name" json:"-"`
	FacultyUsername *string `db:"faculty_username" json:"-"`

	StudentDisplay  string  `db:"-" json:"studentName"`
	FacultyDisplay  string  `db:"-" json:"facultyName"`
	TranscriptURL   *string `db:"-" json:"transcriptUrl"`
	PaymentProofURL *string `db:"-" json:"paymentProofUrl"`
}

// DisplayName picks name, then username, then the fallback.
func DisplayName(name, username *string, fallback string) string {
	if name != nil && *name != "" {
		return *name
	}
	if username != nil && *username != "" {
		return *username
	}
	return fallback
}

// StaffSortField enumerates the sortable columns of staff listings.
type StaffSortField string

const (
	StaffSortDate      StaffSortField = "date"
	StaffSortTime      StaffSortField = "time"
	StaffSortCategory  StaffSortField = "category"
	StaffSortCreatedAt StaffSortField = "createdAt"
)

// StaffFilter captures the staff upcoming/overview query.
type StaffFilter struct {
	From     string
	To       string
	Category string
	Status   string
	Query    string
	SortBy   StaffSortField
	Desc     bool
	Limit    int
	Offset   int
}

// UpcomingFilter narrows a provider's upcoming list.
type UpcomingFilter struct {
	FacultyID          int64
	Category           string
	OnlyAcademic       bool
	AcademicCategories []string
}

// HistoryEntry is one row of the staff student-history search.
type HistoryEntry struct {
	ID          int64             `db:"id" json:"id"`
	StudentID   int64             `db:"student_id" json:"studentId"`
	StudentName string            `db:"student_name" json:"studentName"`
	WithName    string            `db:"with_name" json:"withName"`
	Category    string            `db:"category" json:"category"`
	Date        string            `db:"date" json:"date"`
	Time        string            `db:"time" json:"time"`
	Status      AppointmentStatus `db:"status" json:"status"`
}

// HistoryResult wraps a student-history search.
type HistoryResult struct {
	Items []HistoryEntry `json:"items"`
	Query string         `json:"query"`
}
