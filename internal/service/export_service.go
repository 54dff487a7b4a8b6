package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/export"
	"github.com/psuflow/psuflow-api/pkg/storage"
)

var overviewHeaders = []string{"ID", "Date", "Time", "Category", "Status", "Student", "Faculty", "Reason", "Notes"}

type overviewSource interface {
	StaffUpcoming(ctx context.Context, query dto.StaffQuery) ([]models.AppointmentView, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders the staff overview and persists it behind a signed link.
type ExportService struct {
	source  overviewSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// ExportDownload is a resolved export file.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
}

// NewExportService constructs an ExportService.
func NewExportService(source overviewSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter().WithBOM()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("L")
	}
	return &ExportService{
		source:  source,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Overview renders the staff listing matching query and returns its signed download link.
func (s *ExportService) Overview(ctx context.Context, query dto.ExportQuery) (*models.ExportResult, error) {
	format := query.ExportFormat()
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	views, err := s.source.StaffUpcoming(ctx, query.StaffQuery)
	if err != nil {
		return nil, err
	}

	dataset := buildOverviewDataset(views)
	var payload []byte
	switch format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Appointments overview %s", s.now().Format(DateLayout)))
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("overview_%s_%s.%s", s.now().Format("20060102_150405"), id[:8], format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("overview exported", zap.String("export_id", id), zap.String("format", string(format)), zap.Int("rows", len(views)))

	return &models.ExportResult{
		ID:        id,
		Format:    format,
		Rows:      len(views),
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a download token and opens the export it points to.
func (s *ExportService) Resolve(token string) (*ExportDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired export link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "File not found")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export")
	}
	contentType := "text/csv; charset=utf-8"
	if strings.EqualFold(filepath.Ext(relPath), ".pdf") {
		contentType = "application/pdf"
	}
	return &ExportDownload{File: file, Filename: filepath.Base(relPath), ContentType: contentType, Size: info.Size()}, nil
}

// Cleanup removes exports older than the configured TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.Cleanup()
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func buildOverviewDataset(views []models.AppointmentView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, map[string]string{
			"ID":       fmt.Sprintf("%d", v.ID),
			"Date":     v.Date,
			"Time":     v.Time,
			"Category": v.CategoryOr(""),
			"Status":   string(v.Status),
			"Student":  v.StudentDisplay,
			"Faculty":  v.FacultyDisplay,
			"Reason":   deref(v.Reason),
			"Notes":    deref(v.Notes),
		})
	}
	return export.Dataset{Headers: overviewHeaders, Rows: rows}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
