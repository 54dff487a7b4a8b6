package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type notificationServiceMock struct {
	readFlag *bool
}

func (m *notificationServiceMock) ListForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	return []models.Notification{{ID: 1, ToUserID: userID, Title: "Appointment Approved"}}, nil
}

func (m *notificationServiceMock) MarkRead(ctx context.Context, id int64, read bool) (*models.Notification, error) {
	if id == 404 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Notification not found")
	}
	m.readFlag = &read
	return &models.Notification{ID: id, Read: read}, nil
}

func TestNotificationHandlerList(t *testing.T) {
	h := NewNotificationHandler(&notificationServiceMock{})

	c, w := newTestContext(http.MethodGet, "/notifications/user/3", nil, "")
	c.Params = gin.Params{{Key: "userId", Value: "3"}}
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Appointment Approved")
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	svc := &notificationServiceMock{}
	h := NewNotificationHandler(svc)

	c, w := newTestContext(http.MethodPut, "/notifications/1/read", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.MarkRead(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.readFlag)
	assert.True(t, *svc.readFlag)

	c, w = newTestContext(http.MethodPut, "/notifications/1/read", bytes.NewBufferString(`{"read":false}`), "application/json")
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.MarkRead(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, *svc.readFlag)

	c, w = newTestContext(http.MethodPut, "/notifications/404/read", nil, "")
	c.Params = gin.Params{{Key: "id", Value: "404"}}
	h.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
