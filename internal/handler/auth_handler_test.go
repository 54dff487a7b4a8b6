package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/middleware"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type authServiceMock struct {
	changed models.ChangePasswordRequest
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{ID: 1, Name: "Maria", Role: models.RoleStudent}}, nil
}

func (m *authServiceMock) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	m.changed = req
	return nil
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"maria","password":"secret"}`), "application/json")
	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"accessToken":"token"`)

	c, w = newTestContext(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"maria","password":"nope"}`), "application/json")
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodPost, "/auth/login", bytes.NewBufferString(`nope`), "application/json")
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerChangePassword(t *testing.T) {
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)

	c, w := newTestContext(http.MethodPost, "/auth/change-password", bytes.NewBufferString(`{"oldPassword":"a","newPassword":"bbbbbb"}`), "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 4, Role: models.RoleStudent})
	h.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password updated.", decode(t, w).Meta["message"])
	assert.Equal(t, int64(4), svc.changed.UserID)

	c, w = newTestContext(http.MethodPost, "/auth/change-password", bytes.NewBufferString(`{"userId":9,"oldPassword":"a","newPassword":"bbbbbb"}`), "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 4, Role: models.RoleStudent})
	h.ChangePassword(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type announcementServiceMock struct {
	item *models.Announcement
	err  error
}

func (m *announcementServiceMock) Latest(ctx context.Context) (*models.Announcement, error) {
	return m.item, m.err
}

func TestAnnouncementHandlerLatest(t *testing.T) {
	h := NewAnnouncementHandler(&announcementServiceMock{item: &models.Announcement{ID: 1, Message: "Registration opens Monday"}})
	c, w := newTestContext(http.MethodGet, "/announcements/latest", nil, "")
	h.Latest(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Registration opens Monday")

	h = NewAnnouncementHandler(&announcementServiceMock{})
	c, w = newTestContext(http.MethodGet, "/announcements/latest", nil, "")
	h.Latest(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No announcements", decode(t, w).Meta["message"])

	h = NewAnnouncementHandler(&announcementServiceMock{err: errors.New("boom")})
	c, w = newTestContext(http.MethodGet, "/announcements/latest", nil, "")
	h.Latest(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(ctx context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, pingerStub{})
	c, w := newTestContext(http.MethodGet, "/ready", nil, "")
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, pingerStub{err: errors.New("down")})
	c, w = newTestContext(http.MethodGet, "/ready", nil, "")
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	c, w = newTestContext(http.MethodGet, "/metrics", nil, "")
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
