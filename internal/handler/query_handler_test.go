package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type queryServiceMock struct {
	upcoming   dto.UpcomingQuery
	staff      dto.StaffQuery
	historyQ   string
	queueQuery dto.QueueSummaryQuery
	pendingCat string
}

func (m *queryServiceMock) Get(ctx context.Context, id int64) (*models.AppointmentView, error) {
	if id != 5 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
	}
	return &models.AppointmentView{Appointment: models.Appointment{ID: 5}, StudentDisplay: "Maria"}, nil
}

func (m *queryServiceMock) Pending(ctx context.Context, facultyID int64, category string) ([]models.AppointmentView, error) {
	m.pendingCat = category
	return []models.AppointmentView{}, nil
}

func (m *queryServiceMock) ForStudent(ctx context.Context, studentID int64) ([]models.AppointmentView, error) {
	return []models.AppointmentView{{Appointment: models.Appointment{ID: 1, StudentID: studentID}}}, nil
}

func (m *queryServiceMock) Upcoming(ctx context.Context, facultyID int64, query dto.UpcomingQuery) ([]models.AppointmentView, error) {
	m.upcoming = query
	return []models.AppointmentView{}, nil
}

func (m *queryServiceMock) Categories(ctx context.Context, facultyID int64) ([]string, error) {
	return []string{"advising"}, nil
}

func (m *queryServiceMock) StaffUpcoming(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error) {
	m.staff = query
	return []models.AppointmentView{}, nil
}

func (m *queryServiceMock) StaffOverview(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error) {
	m.staff = query
	return []models.AppointmentView{}, nil
}

func (m *queryServiceMock) Inbox(ctx context.Context) ([]models.AppointmentView, error) {
	return []models.AppointmentView{}, nil
}

func (m *queryServiceMock) StudentHistory(ctx context.Context, q string) (*models.HistoryResult, error) {
	m.historyQ = q
	return &models.HistoryResult{Items: []models.HistoryEntry{}, Query: q}, nil
}

func (m *queryServiceMock) QueueSummary(ctx context.Context, query dto.QueueSummaryQuery) (*models.QueueSummary, error) {
	m.queueQuery = query
	return &models.QueueSummary{Queue: []models.QueuePosition{{Position: 1}}, Waiting: 1, EtaMinutes: 15}, nil
}

func (m *queryServiceMock) QueueStatus(ctx context.Context, studentID int64) (*models.QueueStatus, error) {
	return &models.QueueStatus{Waiting: 0}, nil
}

func TestQueryHandlerGet(t *testing.T) {
	h := NewQueryHandler(&queryServiceMock{})

	c, w := newTestContext(http.MethodGet, "/appointments/5", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "Maria", view["studentName"])

	c, w = newTestContext(http.MethodGet, "/appointments/6", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "6"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryHandlerListsBindQuery(t *testing.T) {
	svc := &queryServiceMock{}
	h := NewQueryHandler(svc)

	c, w := newTestContext(http.MethodGet, "/appointments/pending/7?category=thesis", nil, "")
	c.Params = gin.Params{{Key: "facultyId", Value: "7"}}
	h.Pending(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(decode(t, w).Data))
	assert.Equal(t, "thesis", svc.pendingCat)

	c, w = newTestContext(http.MethodGet, "/appointments/upcoming/7?onlyAcademic=true", nil, "")
	c.Params = gin.Params{{Key: "facultyId", Value: "7"}}
	h.Upcoming(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.upcoming.OnlyAcademic)

	c, w = newTestContext(http.MethodGet, "/staff/appointments/upcoming?from=2024-05-01&sortBy=time&order=DESC", nil, "")
	h.StaffUpcoming(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-01", svc.staff.From)
	assert.Equal(t, "DESC", svc.staff.Order)

	c, w = newTestContext(http.MethodGet, "/staff/student-history?q=maria", nil, "")
	h.StudentHistory(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "maria", svc.historyQ)

	c, w = newTestContext(http.MethodGet, "/queues/summary?category=advising", nil, "")
	h.QueueSummary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"queue":[{"position":1}],"waiting":1,"eta_minutes":15}`, string(decode(t, w).Data))
	assert.Equal(t, "advising", svc.queueQuery.Category)
}

func TestQueryHandlerRejectsBadIDs(t *testing.T) {
	h := NewQueryHandler(&queryServiceMock{})

	c, w := newTestContext(http.MethodGet, "/appointments/my/abc", nil, "")
	c.Params = gin.Params{{Key: "studentId", Value: "abc"}}
	h.Mine(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/queue/status/0", nil, "")
	c.Params = gin.Params{{Key: "studentId", Value: "0"}}
	h.QueueStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
