package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	"github.com/psuflow/psuflow-api/internal/service"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type attachmentOpenerMock struct {
	path  string
	token string
}

func (m *attachmentOpenerMock) Open(ctx context.Context, appointmentID int64, field models.AttachmentField, token string) (*service.AttachmentDownload, error) {
	m.token = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired attachment link")
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.AttachmentDownload{File: file, Filename: "transcript.pdf", ContentType: "application/pdf", Size: 8}, nil
}

func TestAttachmentHandlerDownload(t *testing.T) {
	mock := &attachmentOpenerMock{path: writeTempFile(t, "t.pdf", "%PDF-1.4")}
	h := NewAttachmentHandler(mock)

	c, w := newTestContext(http.MethodGet, "/attachments/5/transcript?token=good", nil, "")
	c.Params = gin.Params{{Key: "appointmentId", Value: "5"}, {Key: "field", Value: "transcript"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript.pdf")
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/attachments/5/transcript?token=bad", nil, "")
	c.Params = gin.Params{{Key: "appointmentId", Value: "5"}, {Key: "field", Value: "transcript"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newTestContext(http.MethodGet, "/attachments/5/photo?token=good", nil, "")
	c.Params = gin.Params{{Key: "appointmentId", Value: "5"}, {Key: "field", Value: "photo"}}
	h.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type exportServiceMock struct {
	query dto.ExportQuery
	path  string
}

func (m *exportServiceMock) Overview(ctx context.Context, query dto.ExportQuery) (*models.ExportResult, error) {
	m.query = query
	if query.ExportFormat() != models.ExportFormatCSV && query.ExportFormat() != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	return &models.ExportResult{ID: "abc", Format: query.ExportFormat(), Rows: 2, URL: "/exports/tok"}, nil
}

func (m *exportServiceMock) Resolve(token string) (*service.ExportDownload, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired export link")
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: "overview.csv", ContentType: "text/csv; charset=utf-8", Size: 3}, nil
}

func TestExportHandlerOverview(t *testing.T) {
	svc := &exportServiceMock{}
	h := NewExportHandler(svc)

	c, w := newTestContext(http.MethodGet, "/staff/overview/export?format=pdf&category=advising", nil, "")
	h.Overview(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "advising", svc.query.Category)
	assert.Contains(t, string(decode(t, w).Data), "/exports/tok")

	c, w = newTestContext(http.MethodGet, "/staff/overview/export?format=xlsx", nil, "")
	h.Overview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	h := NewExportHandler(&exportServiceMock{path: writeTempFile(t, "o.csv", "a,b")})

	c, w := newTestContext(http.MethodGet, "/exports/tok", nil, "")
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/exports/nope", nil, "")
	c.Params = gin.Params{{Key: "token", Value: "nope"}}
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
