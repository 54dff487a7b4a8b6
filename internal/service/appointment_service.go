package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/repository"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type appointmentStore interface {
	WithinTx(ctx context.Context, fn func(repository.AppointmentTx) error) error
	BlockedTimes(ctx context.Context, facultyID int64, date string) ([]string, error)
	CountByTime(ctx context.Context, facultyID int64, date string) ([]models.SlotCount, error)
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
}

type decisionNotifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// AppointmentConfig carries the slot rules.
type AppointmentConfig struct {
	Capacity int
	Catalog  []string
}

// AppointmentService owns booking, decisions, cancel/reschedule and the notes thread.
type AppointmentService struct {
	store     appointmentStore
	notifier  decisionNotifier
	metrics   *MetricsService
	catalog   SlotCatalog
	capacity  int
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(store appointmentStore, notifier decisionNotifier, metrics *MetricsService, cfg AppointmentConfig, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultSlotCapacity
	}
	return &AppointmentService{
		store:     store,
		notifier:  notifier,
		metrics:   metrics,
		catalog:   NewSlotCatalog(cfg.Catalog),
		capacity:  cfg.Capacity,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Catalog exposes the configured slot catalog.
func (s *AppointmentService) Catalog() SlotCatalog {
	return s.catalog
}

// Availability derives the open/closed state of every catalog label for a provider on a date.
func (s *AppointmentService) Availability(ctx context.Context, facultyID int64, date string) ([]models.SlotAvailability, error) {
	if facultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facultyId is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	blocked, err := s.store.BlockedTimes(ctx, facultyID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocked slots")
	}
	counts, err := s.store.CountByTime(ctx, facultyID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	return ComputeAvailability(s.catalog, blocked, counts, s.capacity), nil
}

// Book creates a WAITING appointment after re-checking block and capacity under the slot lock.
func (s *AppointmentService) Book(ctx context.Context, req dto.BookAppointmentRequest) (*models.Appointment, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBooking(BookingOutcomeInvalid)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "studentId, personId, date and time are required.")
	}
	if err := s.catalog.ValidateSlot(req.Date, req.Time); err != nil {
		s.metrics.RecordBooking(BookingOutcomeInvalid)
		return nil, err
	}

	appt := &models.Appointment{
		StudentID:        req.StudentID,
		FacultyID:        req.PersonID,
		Date:             req.Date,
		Time:             req.Time,
		Category:         optionalString(req.Category),
		Reason:           optionalString(req.Reason),
		Status:           models.StatusWaiting,
		TranscriptPath:   optionalString(req.TranscriptPath),
		PaymentProofPath: optionalString(req.PaymentProofPath),
	}

	start := time.Now()
	err := s.store.WithinTx(ctx, func(tx repository.AppointmentTx) error {
		if err := tx.LockSlot(ctx, appt.FacultyID, appt.Date, appt.Time); err != nil {
			return err
		}
		blocked, err := tx.IsBlocked(ctx, appt.FacultyID, appt.Date, appt.Time)
		if err != nil {
			return err
		}
		if blocked {
			return appErrors.ErrSlotBlocked
		}
		count, err := tx.CountBooked(ctx, appt.FacultyID, appt.Date, appt.Time, 0)
		if err != nil {
			return err
		}
		if count >= s.capacity {
			return appErrors.ErrSlotFull
		}
		return tx.Insert(ctx, appt)
	})
	s.metrics.ObserveTx("book", time.Since(start))

	switch {
	case err == nil:
		s.metrics.RecordBooking(BookingOutcomeCreated)
	case appErrors.Is(err, appErrors.ErrSlotBlocked):
		s.metrics.RecordBooking(BookingOutcomeBlocked)
		return nil, appErrors.Clone(appErrors.ErrSlotBlocked, "")
	case appErrors.Is(err, appErrors.ErrSlotFull):
		s.metrics.RecordBooking(BookingOutcomeFull)
		return nil, appErrors.Clone(appErrors.ErrSlotFull, "")
	default:
		s.metrics.RecordBooking(BookingOutcomeError)
		return nil, asAppError(err, "failed to book appointment")
	}

	s.logger.Info("appointment booked",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("faculty_id", appt.FacultyID),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time),
	)
	return appt, nil
}

// Decide approves or rejects a WAITING appointment exactly once and notifies the student.
func (s *AppointmentService) Decide(ctx context.Context, id int64, req dto.DecisionRequest) (*models.Appointment, error) {
	action := req.NormalizedAction()
	if action != models.ActionApprove && action != models.ActionReject {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be APPROVE or REJECT")
	}

	var decided *models.Appointment
	start := time.Now()
	err := s.store.WithinTx(ctx, func(tx repository.AppointmentTx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := Transition(appt, action, req.FacultyID)
		if err != nil {
			return err
		}
		decidedAt := s.now()
		deciderID := req.FacultyID
		if err := tx.UpdateStatus(ctx, repository.UpdateStatusParams{
			ID:          appt.ID,
			Expected:    appt.Status,
			Status:      next,
			DecidedByID: &deciderID,
			DecidedAt:   &decidedAt,
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrConflict, "Already decided")
			}
			return err
		}
		appt.Status = next
		appt.DecidedByID = &deciderID
		appt.DecidedAt = &decidedAt
		decided = appt
		return nil
	})
	s.metrics.ObserveTx("decide", time.Since(start))
	if err != nil {
		return nil, asAppError(err, "failed to record decision")
	}

	s.metrics.RecordDecision(string(decided.Status))
	s.logger.Info("appointment decided",
		zap.Int64("appointment_id", decided.ID),
		zap.String("status", string(decided.Status)),
		zap.Int64("decided_by", req.FacultyID),
	)
	s.notifyDecision(ctx, decided)
	return decided, nil
}

// Cancel moves a non-terminal appointment to CANCELED.
func (s *AppointmentService) Cancel(ctx context.Context, id int64, actorID int64) (*models.Appointment, error) {
	var canceled *models.Appointment
	err := s.store.WithinTx(ctx, func(tx repository.AppointmentTx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := Transition(appt, models.ActionCancel, actorID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, repository.UpdateStatusParams{ID: appt.ID, Expected: appt.Status, Status: next}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrConflict, "appointment changed concurrently")
			}
			return err
		}
		appt.Status = next
		canceled = appt
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to cancel appointment")
	}
	s.metrics.RecordTransition(string(canceled.Status))
	s.logger.Info("appointment canceled", zap.Int64("appointment_id", id), zap.Int64("actor_id", actorID))
	return canceled, nil
}

// Reschedule moves an appointment to a new slot after re-validating block and capacity there.
func (s *AppointmentService) Reschedule(ctx context.Context, id int64, req dto.RescheduleRequest) (*models.Appointment, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date and time are required.")
	}
	if err := s.catalog.ValidateSlot(req.Date, req.Time); err != nil {
		return nil, err
	}

	var moved *models.Appointment
	start := time.Now()
	err := s.store.WithinTx(ctx, func(tx repository.AppointmentTx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := Transition(appt, models.ActionReschedule, req.ActorID); err != nil {
			return err
		}
		if err := tx.LockSlot(ctx, appt.FacultyID, req.Date, req.Time); err != nil {
			return err
		}
		blocked, err := tx.IsBlocked(ctx, appt.FacultyID, req.Date, req.Time)
		if err != nil {
			return err
		}
		if blocked {
			return appErrors.Clone(appErrors.ErrSlotBlocked, "Target slot is blocked.")
		}
		count, err := tx.CountBooked(ctx, appt.FacultyID, req.Date, req.Time, appt.ID)
		if err != nil {
			return err
		}
		if count >= s.capacity {
			return appErrors.Clone(appErrors.ErrSlotFull, "Target slot is full")
		}
		if err := tx.MoveSlot(ctx, repository.MoveSlotParams{ID: appt.ID, Expected: appt.Status, Date: req.Date, Time: req.Time}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrConflict, "appointment changed concurrently")
			}
			return err
		}
		appt.Date = req.Date
		appt.Time = req.Time
		appt.Status = models.StatusRescheduled
		moved = appt
		return nil
	})
	s.metrics.ObserveTx("reschedule", time.Since(start))
	if err != nil {
		return nil, asAppError(err, "failed to reschedule appointment")
	}
	s.metrics.RecordTransition(string(moved.Status))
	s.logger.Info("appointment rescheduled",
		zap.Int64("appointment_id", id),
		zap.String("date", moved.Date),
		zap.String("time", moved.Time),
	)
	return moved, nil
}

// GetNote returns the note thread of an appointment.
func (s *AppointmentService) GetNote(ctx context.Context, id int64) (string, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if appt.Notes == nil {
		return "", nil
	}
	return *appt.Notes, nil
}

// SetNote overwrites the note thread. Only the owning provider may write.
func (s *AppointmentService) SetNote(ctx context.Context, id int64, req dto.NoteRequest) (string, error) {
	return s.writeNote(ctx, id, req.FacultyID, func(string) string { return req.Text })
}

// AppendComment adds a timestamped, attributed line to the note thread.
func (s *AppointmentService) AppendComment(ctx context.Context, id int64, req dto.NoteRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "text is required")
	}
	line := fmt.Sprintf("[%s] Faculty#%d: %s", s.now().Format(time.RFC3339), req.FacultyID, text)
	return s.writeNote(ctx, id, req.FacultyID, func(existing string) string {
		if existing == "" {
			return line
		}
		return existing + "\n" + line
	})
}

func (s *AppointmentService) writeNote(ctx context.Context, id, facultyID int64, compose func(existing string) string) (string, error) {
	var note string
	err := s.store.WithinTx(ctx, func(tx repository.AppointmentTx) error {
		appt, err := lockAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if facultyID != appt.FacultyID {
			return appErrors.Clone(appErrors.ErrForbidden, "Not authorized for this appointment")
		}
		existing := ""
		if appt.Notes != nil {
			existing = *appt.Notes
		}
		note = compose(existing)
		return tx.UpdateNotes(ctx, appt.ID, note)
	})
	if err != nil {
		return "", asAppError(err, "Could not update notes")
	}
	return note, nil
}

func (s *AppointmentService) notifyDecision(ctx context.Context, appt *models.Appointment) {
	if s.notifier == nil {
		return
	}
	lower := strings.ToLower(string(appt.Status))
	n := models.Notification{
		ToUserID: appt.StudentID,
		Title:    "Appointment " + lower,
		Body:     fmt.Sprintf("Your %s on %s at %s was %s.", appt.CategoryOr("appointment"), appt.Date, appt.Time, lower),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("decision notification not dispatched",
			zap.Int64("appointment_id", appt.ID),
			zap.Int64("student_id", appt.StudentID),
			zap.Error(err),
		)
	}
}

func lockAppointment(ctx context.Context, tx repository.AppointmentTx, id int64) (*models.Appointment, error) {
	appt, err := tx.LockAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
		}
		return nil, err
	}
	return appt, nil
}

func asAppError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
