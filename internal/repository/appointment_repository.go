package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/psuflow/psuflow-api/internal/models"
)

const appointmentColumns = `a.id, a.student_id, a.faculty_id, to_char(a.date, 'YYYY-MM-DD') AS date, a.time, a.category, a.reason, a.status,
       a.transcript_path, a.payment_proof_path, a.notes, a.decided_by_id, a.decided_at, a.created_at, a.updated_at`

const appointmentViewSelect = `SELECT ` + appointmentColumns + `,
       s.name AS student_name, s.username AS student_username, f.name AS faculty_name, f.username AS faculty_username
FROM appointments a
LEFT JOIN users s ON s.id = a.student_id
LEFT JOIN users f ON f.id = a.faculty_id`

// releasedStatuses are the states that no longer hold slot capacity.
var releasedStatuses = func() pq.StringArray {
	terminal := models.TerminalStatuses()
	out := make(pq.StringArray, len(terminal))
	for i, status := range terminal {
		out[i] = string(status)
	}
	return out
}()

// AppointmentRepository persists appointments and serves their read projections.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// AppointmentTx groups the locked operations that must run inside one transaction.
type AppointmentTx interface {
	LockSlot(ctx context.Context, facultyID int64, date, slot string) error
	IsBlocked(ctx context.Context, facultyID int64, date, slot string) (bool, error)
	CountBooked(ctx context.Context, facultyID int64, date, slot string, excludeID int64) (int, error)
	Insert(ctx context.Context, appt *models.Appointment) error
	LockAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) error
	MoveSlot(ctx context.Context, params MoveSlotParams) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
}

// UpdateStatusParams describes a compare-and-swap status change.
type UpdateStatusParams struct {
	ID          int64
	Expected    models.AppointmentStatus
	Status      models.AppointmentStatus
	DecidedByID *int64
	DecidedAt   *time.Time
}

// MoveSlotParams describes a compare-and-swap reschedule.
type MoveSlotParams struct {
	ID       int64
	Expected models.AppointmentStatus
	Date     string
	Time     string
}

// WithinTx runs fn in a READ COMMITTED transaction, committing only when fn succeeds.
func (r *AppointmentRepository) WithinTx(ctx context.Context, fn func(AppointmentTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin appointment transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&appointmentTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment transaction: %w", err)
	}
	return nil
}

type appointmentTx struct {
	tx *sqlx.Tx
}

// SlotLockKey is the advisory lock key serialising writers of one slot.
func SlotLockKey(facultyID int64, date, slot string) string {
	return fmt.Sprintf("slot:%d:%s:%s", facultyID, date, slot)
}

func (t *appointmentTx) LockSlot(ctx context.Context, facultyID int64, date, slot string) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := t.tx.ExecContext(ctx, query, SlotLockKey(facultyID, date, slot)); err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}
	return nil
}

func (t *appointmentTx) IsBlocked(ctx context.Context, facultyID int64, date, slot string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blocked_slots WHERE faculty_id = $1 AND date = $2 AND time = $3)`
	var blocked bool
	if err := t.tx.GetContext(ctx, &blocked, query, facultyID, date, slot); err != nil {
		return false, fmt.Errorf("check blocked slot: %w", err)
	}
	return blocked, nil
}

func (t *appointmentTx) CountBooked(ctx context.Context, facultyID int64, date, slot string, excludeID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM appointments
WHERE faculty_id = $1 AND date = $2 AND time = $3 AND id <> $4 AND status <> ALL($5)`
	var count int
	if err := t.tx.GetContext(ctx, &count, query, facultyID, date, slot, excludeID, releasedStatuses); err != nil {
		return 0, fmt.Errorf("count slot bookings: %w", err)
	}
	return count, nil
}

func (t *appointmentTx) Insert(ctx context.Context, appt *models.Appointment) error {
	if appt.Status == "" {
		appt.Status = models.StatusWaiting
	}
	const query = `INSERT INTO appointments
	(student_id, faculty_id, date, time, category, reason, status, transcript_path, payment_proof_path)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at, updated_at`
	row := t.tx.QueryRowxContext(ctx, query,
		appt.StudentID, appt.FacultyID, appt.Date, appt.Time, appt.Category, appt.Reason,
		appt.Status, appt.TranscriptPath, appt.PaymentProofPath,
	)
	if err := row.Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (t *appointmentTx) LockAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1 FOR UPDATE`
	var appt models.Appointment
	if err := t.tx.GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock appointment: %w", err)
	}
	return &appt, nil
}

func (t *appointmentTx) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	const query = `UPDATE appointments
SET status = $1, decided_by_id = COALESCE($2::bigint, decided_by_id), decided_at = COALESCE($3::timestamptz, decided_at), updated_at = NOW()
WHERE id = $4 AND status = $5`
	result, err := t.tx.ExecContext(ctx, query, params.Status, params.DecidedByID, params.DecidedAt, params.ID, params.Expected)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return requireAffected(result, "appointment status")
}

func (t *appointmentTx) MoveSlot(ctx context.Context, params MoveSlotParams) error {
	const query = `UPDATE appointments SET date = $1, time = $2, status = $3, updated_at = NOW() WHERE id = $4 AND status = $5`
	result, err := t.tx.ExecContext(ctx, query, params.Date, params.Time, models.StatusRescheduled, params.ID, params.Expected)
	if err != nil {
		return fmt.Errorf("reschedule appointment: %w", err)
	}
	return requireAffected(result, "appointment reschedule")
}

func (t *appointmentTx) UpdateNotes(ctx context.Context, id int64, notes string) error {
	const query = `UPDATE appointments SET notes = $1, updated_at = NOW() WHERE id = $2`
	result, err := t.tx.ExecContext(ctx, query, notes, id)
	if err != nil {
		return fmt.Errorf("update appointment notes: %w", err)
	}
	return requireAffected(result, "appointment notes")
}

func requireAffected(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", what, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BlockedTimes returns the blocked labels of a provider on a date.
func (r *AppointmentRepository) BlockedTimes(ctx context.Context, facultyID int64, date string) ([]string, error) {
	const query = `SELECT time FROM blocked_slots WHERE faculty_id = $1 AND date = $2`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, facultyID, date); err != nil {
		return nil, fmt.Errorf("list blocked times: %w", err)
	}
	return times, nil
}

// CountByTime returns capacity-consuming bookings per label for a provider on a date.
func (r *AppointmentRepository) CountByTime(ctx context.Context, facultyID int64, date string) ([]models.SlotCount, error) {
	const query = `SELECT time, COUNT(*) AS count FROM appointments
WHERE faculty_id = $1 AND date = $2 AND status <> ALL($3)
GROUP BY time`
	var counts []models.SlotCount
	if err := r.db.SelectContext(ctx, &counts, query, facultyID, date, releasedStatuses); err != nil {
		return nil, fmt.Errorf("count bookings by time: %w", err)
	}
	return counts, nil
}

// GetByID fetches an appointment without locking.
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &appt, nil
}

// GetView fetches an appointment with the names of both parties.
func (r *AppointmentRepository) GetView(ctx context.Context, id int64) (*models.AppointmentView, error) {
	query := appointmentViewSelect + ` WHERE a.id = $1`
	var view models.AppointmentView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment view: %w", err)
	}
	return &view, nil
}

// ListPending returns WAITING appointments for a provider, optionally scoped to a category.
func (r *AppointmentRepository) ListPending(ctx context.Context, facultyID int64, category string) ([]models.AppointmentView, error) {
	args := []interface{}{models.StatusWaiting, facultyID}
	query := appointmentViewSelect + ` WHERE a.status = $1 AND a.faculty_id = $2`
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND a.category = $%d", len(args))
	}
	query += " ORDER BY a.date ASC, a.time ASC"
	return r.selectViews(ctx, "list pending appointments", query, args...)
}

// ListByStudent returns every appointment of a student in calendar order.
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.AppointmentView, error) {
	query := appointmentViewSelect + ` WHERE a.student_id = $1 ORDER BY a.date ASC, a.time ASC`
	return r.selectViews(ctx, "list student appointments", query, studentID)
}

// ListUpcoming returns a provider's appointments filtered by category.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, filter models.UpcomingFilter) ([]models.AppointmentView, error) {
	args := []interface{}{filter.FacultyID}
	query := appointmentViewSelect + ` WHERE a.faculty_id = $1`
	switch {
	case filter.Category != "" && filter.Category != "all":
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND a.category = $%d", len(args))
	case filter.OnlyAcademic:
		args = append(args, pq.StringArray(filter.AcademicCategories))
		query += fmt.Sprintf(" AND a.category = ANY($%d)", len(args))
	}
	query += " ORDER BY a.date ASC, a.time ASC"
	return r.selectViews(ctx, "list upcoming appointments", query, args...)
}

// Categories returns the distinct non-empty categories a provider has seen.
func (r *AppointmentRepository) Categories(ctx context.Context, facultyID int64) ([]string, error) {
	const query = `SELECT DISTINCT TRIM(category) AS category FROM appointments
WHERE faculty_id = $1 AND category IS NOT NULL AND TRIM(category) <> ''
ORDER BY category`
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query, facultyID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

var staffSortColumns = map[models.StaffSortField][]string{
	models.StaffSortDate:      {"a.date", "a.time"},
	models.StaffSortTime:      {"a.time"},
	models.StaffSortCategory:  {"a.category"},
	models.StaffSortCreatedAt: {"a.created_at"},
}

// StaffSearch lists appointments for the staff dashboard. Without a range only today onward is returned.
func (r *AppointmentRepository) StaffSearch(ctx context.Context, filter models.StaffFilter, today string) ([]models.AppointmentView, error) {
	builder := strings.Builder{}
	builder.WriteString(appointmentViewSelect)

	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 5)
	if filter.From == "" && filter.To == "" {
		args = append(args, today)
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.From != "" {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)))
	}
	if filter.Category != "" && filter.Category != "all" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("a.category = $%d", len(args)))
	}
	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(a.category ILIKE $%d OR s.name ILIKE $%d OR s.username ILIKE $%d OR f.name ILIKE $%d OR f.username ILIKE $%d)",
			n, n, n, n, n))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	columns, ok := staffSortColumns[filter.SortBy]
	if !ok {
		columns = staffSortColumns[models.StaffSortDate]
	}
	order := make([]string, len(columns))
	for i, col := range columns {
		order[i] = col + " " + direction
	}
	builder.WriteString(" ORDER BY ")
	builder.WriteString(strings.Join(order, ", "))

	if filter.Limit > 0 {
		builder.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
	}
	if filter.Offset > 0 {
		builder.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
	}

	return r.selectViews(ctx, "staff appointment search", builder.String(), args...)
}

// RecentInbox returns the most recently created appointments.
func (r *AppointmentRepository) RecentInbox(ctx context.Context, limit int) ([]models.AppointmentView, error) {
	if limit <= 0 {
		limit = 20
	}
	query := appointmentViewSelect + ` ORDER BY a.created_at DESC LIMIT $1`
	return r.selectViews(ctx, "list staff inbox", query, limit)
}

// StudentHistory finds appointments of students matching a numeric id or a name fragment.
func (r *AppointmentRepository) StudentHistory(ctx context.Context, studentID int64, nameQuery string) ([]models.HistoryEntry, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT a.id, a.student_id,
       COALESCE(NULLIF(s.name, ''), s.username, '—') AS student_name,
       COALESCE(NULLIF(f.name, ''), f.username, '—') AS with_name,
       COALESCE(NULLIF(a.category, ''), '—') AS category,
       to_char(a.date, 'YYYY-MM-DD') AS date, a.time, a.status
FROM appointments a
JOIN users s ON s.id = a.student_id
LEFT JOIN users f ON f.id = a.faculty_id`)
	var arg interface{}
	if studentID > 0 {
		builder.WriteString(" WHERE s.id = $1")
		arg = studentID
	} else {
		builder.WriteString(" WHERE (s.name ILIKE $1 OR s.username ILIKE $1)")
		arg = "%" + nameQuery + "%"
	}
	builder.WriteString(" ORDER BY a.date DESC, a.time DESC LIMIT 200")

	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), arg); err != nil {
		return nil, fmt.Errorf("student history: %w", err)
	}
	return entries, nil
}

// CountWaiting counts WAITING appointments, optionally by category and provider.
func (r *AppointmentRepository) CountWaiting(ctx context.Context, category string, facultyID int64) (int, error) {
	args := []interface{}{models.StatusWaiting}
	query := `SELECT COUNT(*) FROM appointments WHERE status = $1`
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if facultyID > 0 {
		args = append(args, facultyID)
		query += fmt.Sprintf(" AND faculty_id = $%d", len(args))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count waiting appointments: %w", err)
	}
	return count, nil
}

// FirstWaitingCategory returns the category of a student's oldest WAITING appointment.
// sql.ErrNoRows is returned when the student has none.
func (r *AppointmentRepository) FirstWaitingCategory(ctx context.Context, studentID int64) (sql.NullString, error) {
	const query = `SELECT category FROM appointments WHERE student_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC LIMIT 1`
	var category sql.NullString
	if err := r.db.GetContext(ctx, &category, query, studentID, models.StatusWaiting); err != nil {
		if err == sql.ErrNoRows {
			return category, err
		}
		return category, fmt.Errorf("first waiting category: %w", err)
	}
	return category, nil
}

func (r *AppointmentRepository) selectViews(ctx context.Context, op, query string, args ...interface{}) ([]models.AppointmentView, error) {
	var views []models.AppointmentView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return views, nil
}
