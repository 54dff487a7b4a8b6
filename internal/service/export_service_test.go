package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/export"
	"github.com/psuflow/psuflow-api/pkg/storage"
)

type overviewSourceStub struct {
	query dto.StaffQuery
}

func (s *overviewSourceStub) StaffUpcoming(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error) {
	s.query = query
	category := "advising"
	reason := "course plan"
	return []models.AppointmentView{{
		Appointment:    models.Appointment{ID: 1, Date: "2024-05-01", Time: "12:00 PM", Category: &category, Reason: &reason, Status: models.StatusWaiting},
		StudentDisplay: "Maria",
		FacultyDisplay: "Dr. Lee",
	}}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage, *overviewSourceStub) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	source := &overviewSourceStub{}
	svc := NewExportService(source, store, signer, ExportConfig{APIPrefix: "/api", ResultTTL: time.Hour}, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter("L"))
	return svc, store, source
}

func TestExportServiceOverviewCSV(t *testing.T) {
	svc, _, source := newExportServiceForTest(t)

	result, err := svc.Overview(context.Background(), dto.ExportQuery{StaffQuery: dto.StaffQuery{Category: "advising"}})
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatCSV, result.Format)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, "advising", source.query.Category)
	require.True(t, strings.HasPrefix(result.URL, "/api/exports/"))

	download, err := svc.Resolve(strings.TrimPrefix(result.URL, "/api/exports/"))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ID,Date,Time,Category,Status,Student,Faculty,Reason,Notes")
	assert.Contains(t, string(content), "Dr. Lee")
}

func TestExportServiceOverviewPDF(t *testing.T) {
	svc, store, _ := newExportServiceForTest(t)

	result, err := svc.Overview(context.Background(), dto.ExportQuery{Format: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)

	download, err := svc.Resolve(strings.TrimPrefix(result.URL, "/api/exports/"))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)

	info, err := os.Stat(store.Path(download.Filename))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	head := make([]byte, 4)
	_, err = io.ReadFull(download.File, head)
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("%PDF"), head))
}

func TestExportServiceRejects(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)

	_, err := svc.Overview(context.Background(), dto.ExportQuery{Format: "xlsx"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Resolve("not-a-token")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
