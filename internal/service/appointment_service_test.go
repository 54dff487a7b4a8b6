package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/repository"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

// memAppointmentStore locks the way Postgres does: slot keys and appointment rows are held
// per key until the transaction ends, and a failed transaction undoes its own writes.
// Slot reads and inserts fail unless the transaction holds that slot's lock.
type memAppointmentStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]models.Appointment
	blocked map[string]bool

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func newMemAppointmentStore() *memAppointmentStore {
	return &memAppointmentStore{
		rows:    map[int64]models.Appointment{},
		blocked: map[string]bool{},
		locks:   map[string]*sync.Mutex{},
	}
}

func (m *memAppointmentStore) lockFor(key string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *memAppointmentStore) block(facultyID int64, date, slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[repository.SlotLockKey(facultyID, date, slot)] = true
}

func (m *memAppointmentStore) put(appt models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[appt.ID] = appt
	if appt.ID > m.nextID {
		m.nextID = appt.ID
	}
}

func (m *memAppointmentStore) get(id int64) models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memAppointmentStore) WithinTx(ctx context.Context, fn func(repository.AppointmentTx) error) error {
	tx := &memTx{store: m, keys: map[string]bool{}, undo: map[int64]undoEntry{}}
	err := fn(tx)
	if err != nil {
		tx.rollback()
	}
	tx.release()
	return err
}

func (m *memAppointmentStore) BlockedTimes(ctx context.Context, facultyID int64, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, label := range []string{"12:00 PM", "12:15 PM", "12:30 PM", "12:45 PM"} {
		if m.blocked[repository.SlotLockKey(facultyID, date, label)] {
			out = append(out, label)
		}
	}
	return out, nil
}

func (m *memAppointmentStore) CountByTime(ctx context.Context, facultyID int64, date string) ([]models.SlotCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, row := range m.rows {
		if row.FacultyID == facultyID && row.Date == date && !row.Status.Terminal() {
			counts[row.Time]++
		}
	}
	out := make([]models.SlotCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.SlotCount{Time: label, Count: n})
	}
	return out, nil
}

func (m *memAppointmentStore) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

type undoEntry struct {
	prev    models.Appointment
	existed bool
}

type memTx struct {
	store *memAppointmentStore
	keys  map[string]bool
	held  []*sync.Mutex
	undo  map[int64]undoEntry
}

var errSlotNotLocked = errors.New("slot accessed without its lock")

func (t *memTx) acquire(key string) {
	if t.keys[key] {
		return
	}
	l := t.store.lockFor(key)
	l.Lock()
	t.keys[key] = true
	t.held = append(t.held, l)
}

func (t *memTx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memTx) rollback() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, entry := range t.undo {
		if entry.existed {
			t.store.rows[id] = entry.prev
		} else {
			delete(t.store.rows, id)
		}
	}
}

func (t *memTx) holdsSlot(facultyID int64, date, slot string) error {
	if !t.keys[repository.SlotLockKey(facultyID, date, slot)] {
		return errSlotNotLocked
	}
	return nil
}

// write applies change to a row and remembers its prior state. Caller holds store.mu.
func (t *memTx) write(id int64, row models.Appointment) {
	if _, seen := t.undo[id]; !seen {
		prev, existed := t.store.rows[id]
		t.undo[id] = undoEntry{prev: prev, existed: existed}
	}
	t.store.rows[id] = row
}

func (t *memTx) LockSlot(ctx context.Context, facultyID int64, date, slot string) error {
	t.acquire(repository.SlotLockKey(facultyID, date, slot))
	return nil
}

func (t *memTx) IsBlocked(ctx context.Context, facultyID int64, date, slot string) (bool, error) {
	if err := t.holdsSlot(facultyID, date, slot); err != nil {
		return false, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.blocked[repository.SlotLockKey(facultyID, date, slot)], nil
}

func (t *memTx) CountBooked(ctx context.Context, facultyID int64, date, slot string, excludeID int64) (int, error) {
	if err := t.holdsSlot(facultyID, date, slot); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	count := 0
	for _, row := range t.store.rows {
		if row.ID == excludeID || row.FacultyID != facultyID || row.Date != date || row.Time != slot {
			continue
		}
		if !row.Status.Terminal() {
			count++
		}
	}
	t.store.mu.Unlock()
	// widen the window between counting and inserting
	runtime.Gosched()
	return count, nil
}

func (t *memTx) Insert(ctx context.Context, appt *models.Appointment) error {
	if err := t.holdsSlot(appt.FacultyID, appt.Date, appt.Time); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.nextID++
	appt.ID = t.store.nextID
	appt.CreatedAt = time.Now().UTC()
	appt.UpdatedAt = appt.CreatedAt
	t.write(appt.ID, *appt)
	return nil
}

func (t *memTx) LockAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	t.acquire(fmt.Sprintf("row:%d", id))
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	row, ok := t.store.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (t *memTx) UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	row, ok := t.store.rows[params.ID]
	if !ok || row.Status != params.Expected {
		return sql.ErrNoRows
	}
	row.Status = params.Status
	if params.DecidedByID != nil {
		row.DecidedByID = params.DecidedByID
	}
	if params.DecidedAt != nil {
		row.DecidedAt = params.DecidedAt
	}
	t.write(params.ID, row)
	return nil
}

func (t *memTx) MoveSlot(ctx context.Context, params repository.MoveSlotParams) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	row, ok := t.store.rows[params.ID]
	if !ok || row.Status != params.Expected {
		return sql.ErrNoRows
	}
	if err := t.holdsSlot(row.FacultyID, params.Date, params.Time); err != nil {
		return err
	}
	row.Date = params.Date
	row.Time = params.Time
	row.Status = models.StatusRescheduled
	t.write(params.ID, row)
	return nil
}

func (t *memTx) UpdateNotes(ctx context.Context, id int64, notes string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	row, ok := t.store.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	row.Notes = &notes
	t.write(id, row)
	return nil
}

type notifierStub struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *notifierStub) Notify(ctx context.Context, note models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, note)
	return nil
}

func newAppointmentServiceForTest(store *memAppointmentStore, notifier *notifierStub) *AppointmentService {
	svc := NewAppointmentService(store, notifier, NewMetricsService(), AppointmentConfig{
		Capacity: 2,
		Catalog:  []string{"12:00 PM", "12:15 PM", "12:30 PM", "12:45 PM"},
	}, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func bookRequest(studentID int64) dto.BookAppointmentRequest {
	return dto.BookAppointmentRequest{StudentID: studentID, PersonID: 7, Date: "2024-05-01", Time: "12:15 PM", Category: "advising"}
}

func TestBookFillsSlotToCapacity(t *testing.T) {
	svc := newAppointmentServiceForTest(newMemAppointmentStore(), &notifierStub{})
	ctx := context.Background()

	first, err := svc.Book(ctx, bookRequest(1))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, first.Status)

	second, err := svc.Book(ctx, bookRequest(2))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, second.Status)

	_, err = svc.Book(ctx, bookRequest(3))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotFull))

	slots, err := svc.Availability(ctx, 7, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, models.SlotAvailability{Time: "12:15 PM", Available: false}, slots[1])
	assert.True(t, slots[0].Available)
}

func TestBookBlockedSlot(t *testing.T) {
	store := newMemAppointmentStore()
	store.block(7, "2024-05-01", "12:15 PM")
	svc := newAppointmentServiceForTest(store, &notifierStub{})

	_, err := svc.Book(context.Background(), bookRequest(1))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotBlocked))
	assert.Empty(t, store.rows)
}

func TestBookValidation(t *testing.T) {
	svc := newAppointmentServiceForTest(newMemAppointmentStore(), &notifierStub{})
	ctx := context.Background()

	_, err := svc.Book(ctx, dto.BookAppointmentRequest{StudentID: 1, Date: "2024-05-01", Time: "12:15 PM"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req := bookRequest(1)
	req.Time = "1:00 PM"
	_, err = svc.Book(ctx, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req = bookRequest(1)
	req.Date = "05/01/2024"
	_, err = svc.Book(ctx, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestBookSlotLockSerialisesConcurrentBookers(t *testing.T) {
	store := newMemAppointmentStore()
	svc := newAppointmentServiceForTest(store, &notifierStub{})

	const bookers = 10
	var wg sync.WaitGroup
	results := make(chan error, bookers)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(student int64) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), bookRequest(student))
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	created, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			created++
		case appErrors.Is(err, appErrors.ErrSlotFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, created)
	assert.Equal(t, bookers-2, full)
}

func TestCanceledBookingReleasesCapacity(t *testing.T) {
	store := newMemAppointmentStore()
	svc := newAppointmentServiceForTest(store, &notifierStub{})
	ctx := context.Background()

	first, err := svc.Book(ctx, bookRequest(1))
	require.NoError(t, err)
	_, err = svc.Book(ctx, bookRequest(2))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.ID, 1)
	require.NoError(t, err)

	_, err = svc.Book(ctx, bookRequest(3))
	require.NoError(t, err)
}

func TestDecideApproveOnceAndNotify(t *testing.T) {
	store := newMemAppointmentStore()
	category := "advising"
	store.put(models.Appointment{ID: 42, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:15 PM", Category: &category, Status: models.StatusWaiting})
	notifier := &notifierStub{}
	svc := newAppointmentServiceForTest(store, notifier)
	ctx := context.Background()

	decided, err := svc.Decide(ctx, 42, dto.DecisionRequest{Action: "approve", FacultyID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	require.NotNil(t, decided.DecidedByID)
	assert.Equal(t, int64(7), *decided.DecidedByID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(3), notifier.sent[0].ToUserID)
	assert.Equal(t, "Appointment approved", notifier.sent[0].Title)
	assert.Equal(t, "Your advising on 2024-05-01 at 12:15 PM was approved.", notifier.sent[0].Body)

	_, err = svc.Decide(ctx, 42, dto.DecisionRequest{Action: "APPROVE", FacultyID: 7})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "Already approved", appErr.Message)
	assert.Len(t, notifier.sent, 1)
}

func TestDecideRejectsForeignProviderRegardlessOfStatus(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 1, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	store.put(models.Appointment{ID: 2, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusApproved})
	svc := newAppointmentServiceForTest(store, &notifierStub{})

	for _, id := range []int64{1, 2} {
		_, err := svc.Decide(context.Background(), id, dto.DecisionRequest{Action: "REJECT", FacultyID: 8})
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	}
	assert.Equal(t, models.StatusWaiting, store.get(1).Status)
}

func TestDecideNotificationFailureKeepsDecision(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 5, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	svc := newAppointmentServiceForTest(store, &notifierStub{err: errors.New("queue full")})

	decided, err := svc.Decide(context.Background(), 5, dto.DecisionRequest{Action: "REJECT", FacultyID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, decided.Status)
	assert.Equal(t, models.StatusRejected, store.get(5).Status)
}

func TestDecideUnknownAppointmentAndAction(t *testing.T) {
	svc := newAppointmentServiceForTest(newMemAppointmentStore(), &notifierStub{})

	_, err := svc.Decide(context.Background(), 99, dto.DecisionRequest{Action: "APPROVE", FacultyID: 7})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Decide(context.Background(), 99, dto.DecisionRequest{Action: "MAYBE", FacultyID: 7})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRescheduleToBlockedSlotLeavesRowUnchanged(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 10, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusApproved})
	store.block(7, "2024-05-02", "12:30 PM")
	svc := newAppointmentServiceForTest(store, &notifierStub{})

	_, err := svc.Reschedule(context.Background(), 10, dto.RescheduleRequest{Date: "2024-05-02", Time: "12:30 PM", ActorID: 3})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotBlocked))
	assert.Equal(t, "Target slot is blocked.", appErrors.FromError(err).Message)

	row := store.get(10)
	assert.Equal(t, "2024-05-01", row.Date)
	assert.Equal(t, "12:00 PM", row.Time)
	assert.Equal(t, models.StatusApproved, row.Status)
}

func TestRescheduleMovesAndExcludesOwnRow(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 10, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	store.put(models.Appointment{ID: 11, StudentID: 4, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	svc := newAppointmentServiceForTest(store, &notifierStub{})

	moved, err := svc.Reschedule(context.Background(), 10, dto.RescheduleRequest{Date: "2024-05-01", Time: "12:00 PM"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRescheduled, moved.Status)

	store.put(models.Appointment{ID: 12, StudentID: 5, FacultyID: 7, Date: "2024-05-03", Time: "12:45 PM", Status: models.StatusWaiting})
	store.put(models.Appointment{ID: 13, StudentID: 6, FacultyID: 7, Date: "2024-05-03", Time: "12:45 PM", Status: models.StatusApproved})
	_, err = svc.Reschedule(context.Background(), 11, dto.RescheduleRequest{Date: "2024-05-03", Time: "12:45 PM"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSlotFull))
	assert.Equal(t, "12:00 PM", store.get(11).Time)
}

func TestCancelGuards(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 20, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusRejected})
	store.put(models.Appointment{ID: 21, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	svc := newAppointmentServiceForTest(store, &notifierStub{})
	ctx := context.Background()

	_, err := svc.Cancel(ctx, 20, 3)
	require.Error(t, err)
	assert.Equal(t, "Already rejected", appErrors.FromError(err).Message)

	_, err = svc.Cancel(ctx, 21, 99)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	canceled, err := svc.Cancel(ctx, 21, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
}

func TestNotesThread(t *testing.T) {
	store := newMemAppointmentStore()
	store.put(models.Appointment{ID: 30, StudentID: 3, FacultyID: 7, Date: "2024-05-01", Time: "12:00 PM", Status: models.StatusWaiting})
	svc := newAppointmentServiceForTest(store, &notifierStub{})
	ctx := context.Background()

	note, err := svc.GetNote(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, note)

	_, err = svc.SetNote(ctx, 30, dto.NoteRequest{FacultyID: 8, Text: "nope"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	note, err = svc.SetNote(ctx, 30, dto.NoteRequest{FacultyID: 7, Text: "bring transcript"})
	require.NoError(t, err)
	assert.Equal(t, "bring transcript", note)

	note, err = svc.AppendComment(ctx, 30, dto.NoteRequest{FacultyID: 7, Text: "done"})
	require.NoError(t, err)
	assert.Equal(t, "bring transcript\n[2024-05-01T09:30:00Z] Faculty#7: done", note)

	stored, err := svc.GetNote(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, note, stored)

	_, err = svc.GetNote(ctx, 31)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
