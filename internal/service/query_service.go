package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

const (
	inboxLimit        = 20
	studentFallback   = "Student"
	facultyFallback   = "Advisor"
	defaultSlotLength = 15
)

type appointmentReader interface {
	GetView(ctx context.Context, id int64) (*models.AppointmentView, error)
	ListPending(ctx context.Context, facultyID int64, category string) ([]models.AppointmentView, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.AppointmentView, error)
	ListUpcoming(ctx context.Context, filter models.UpcomingFilter) ([]models.AppointmentView, error)
	Categories(ctx context.Context, facultyID int64) ([]string, error)
	StaffSearch(ctx context.Context, filter models.StaffFilter, today string) ([]models.AppointmentView, error)
	RecentInbox(ctx context.Context, limit int) ([]models.AppointmentView, error)
	StudentHistory(ctx context.Context, studentID int64, nameQuery string) ([]models.HistoryEntry, error)
	CountWaiting(ctx context.Context, category string, facultyID int64) (int, error)
	FirstWaitingCategory(ctx context.Context, studentID int64) (sql.NullString, error)
}

type attachmentLinker interface {
	Link(appointmentID int64, field models.AttachmentField, relPath string) (string, error)
}

// QueryConfig tunes the read projections.
type QueryConfig struct {
	AcademicCategories []string
	SlotLengthMinutes  int
}

// QueryService serves the read-only appointment projections.
type QueryService struct {
	repo   appointmentReader
	links  attachmentLinker
	cfg    QueryConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewQueryService constructs a QueryService.
func NewQueryService(repo appointmentReader, links attachmentLinker, cfg QueryConfig, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlotLengthMinutes <= 0 {
		cfg.SlotLengthMinutes = defaultSlotLength
	}
	return &QueryService{
		repo:   repo,
		links:  links,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns one decorated appointment.
func (s *QueryService) Get(ctx context.Context, id int64) (*models.AppointmentView, error) {
	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	s.decorate(view)
	return view, nil
}

// Pending lists a provider's WAITING appointments.
func (s *QueryService) Pending(ctx context.Context, facultyID int64, category string) ([]models.AppointmentView, error) {
	if facultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facultyId required")
	}
	views, err := s.repo.ListPending(ctx, facultyID, strings.TrimSpace(category))
	return s.finish(views, err, "failed to list pending appointments")
}

// ForStudent lists a student's own appointments.
func (s *QueryService) ForStudent(ctx context.Context, studentID int64) ([]models.AppointmentView, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId required")
	}
	views, err := s.repo.ListByStudent(ctx, studentID)
	return s.finish(views, err, "failed to list student appointments")
}

// Upcoming lists a provider's appointments filtered by category or the academic set.
func (s *QueryService) Upcoming(ctx context.Context, facultyID int64, query dto.UpcomingQuery) ([]models.AppointmentView, error) {
	if facultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facultyId required")
	}
	views, err := s.repo.ListUpcoming(ctx, models.UpcomingFilter{
		FacultyID:          facultyID,
		Category:           strings.TrimSpace(query.Category),
		OnlyAcademic:       query.OnlyAcademic,
		AcademicCategories: s.cfg.AcademicCategories,
	})
	return s.finish(views, err, "failed to list upcoming appointments")
}

// Categories lists the distinct categories a provider has received.
func (s *QueryService) Categories(ctx context.Context, facultyID int64) ([]string, error) {
	if facultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facultyId required")
	}
	categories, err := s.repo.Categories(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// StaffUpcoming runs the staff search with range, filters, sort and paging.
func (s *QueryService) StaffUpcoming(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error) {
	filter := query.Filter()
	for _, day := range []string{filter.From, filter.To} {
		if day == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, day); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "from/to must be YYYY-MM-DD")
		}
	}
	views, err := s.repo.StaffSearch(ctx, filter, s.today())
	return s.finish(views, err, "failed to list staff appointments")
}

// StaffOverview lists today's and future appointments with only sorting applied.
func (s *QueryService) StaffOverview(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error) {
	full := query.Filter()
	filter := models.StaffFilter{SortBy: full.SortBy, Desc: full.Desc}
	views, err := s.repo.StaffSearch(ctx, filter, s.today())
	return s.finish(views, err, "failed to build staff overview")
}

// Inbox returns the most recently created appointments.
func (s *QueryService) Inbox(ctx context.Context) ([]models.AppointmentView, error) {
	views, err := s.repo.RecentInbox(ctx, inboxLimit)
	return s.finish(views, err, "failed to load staff inbox")
}

// StudentHistory searches by numeric student id or by name fragment. An empty query returns nothing.
func (s *QueryService) StudentHistory(ctx context.Context, q string) (*models.HistoryResult, error) {
	q = strings.TrimSpace(q)
	result := &models.HistoryResult{Items: []models.HistoryEntry{}, Query: q}
	if q == "" {
		return result, nil
	}

	var studentID int64
	if id, err := strconv.ParseInt(q, 10, 64); err == nil && id > 0 {
		studentID = id
	}
	entries, err := s.repo.StudentHistory(ctx, studentID, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search student history")
	}
	if entries != nil {
		result.Items = entries
	}
	return result, nil
}

// QueueSummary reports the waiting line and its estimated wait.
func (s *QueryService) QueueSummary(ctx context.Context, query dto.QueueSummaryQuery) (*models.QueueSummary, error) {
	waiting, err := s.repo.CountWaiting(ctx, strings.TrimSpace(query.Category), query.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count queue")
	}
	queue := make([]models.QueuePosition, waiting)
	for i := range queue {
		queue[i] = models.QueuePosition{Position: i + 1}
	}
	return &models.QueueSummary{
		Queue:      queue,
		Waiting:    waiting,
		EtaMinutes: waiting * s.cfg.SlotLengthMinutes,
	}, nil
}

// QueueStatus reports the department of a student's oldest waiting request and its line length.
func (s *QueryService) QueueStatus(ctx context.Context, studentID int64) (*models.QueueStatus, error) {
	category, err := s.repo.FirstWaitingCategory(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.QueueStatus{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queue status")
	}
	department := "—"
	if category.Valid && strings.TrimSpace(category.String) != "" {
		department = category.String
	}
	waiting, err := s.repo.CountWaiting(ctx, department, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count queue")
	}
	return &models.QueueStatus{Department: &department, Waiting: waiting}, nil
}

func (s *QueryService) finish(views []models.AppointmentView, err error, msg string) ([]models.AppointmentView, error) {
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	if views == nil {
		return []models.AppointmentView{}, nil
	}
	for i := range views {
		s.decorate(&views[i])
	}
	return views, nil
}

func (s *QueryService) decorate(view *models.AppointmentView) {
	view.StudentDisplay = models.DisplayName(view.StudentName, view.StudentUsername, studentFallback)
	view.FacultyDisplay = models.DisplayName(view.FacultyName, view.FacultyUsername, facultyFallback)
	view.TranscriptURL = s.link(view.ID, models.AttachmentTranscript, view.TranscriptPath)
	view.PaymentProofURL = s.link(view.ID, models.AttachmentPaymentProof, view.PaymentProofPath)
}

func (s *QueryService) link(id int64, field models.AttachmentField, relPath *string) *string {
	if relPath == nil || *relPath == "" || s.links == nil {
		return nil
	}
	url, err := s.links.Link(id, field, *relPath)
	if err != nil {
		s.logger.Warn("failed to sign attachment link", zap.Int64("appointment_id", id), zap.String("field", string(field)), zap.Error(err))
		return nil
	}
	return &url
}

func (s *QueryService) today() string {
	return s.now().Format(DateLayout)
}
