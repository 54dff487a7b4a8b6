package service

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
	"github.com/psuflow/psuflow-api/pkg/storage"
)

const sniffLen = 512

var mimeExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
}

type attachmentStorage interface {
	SaveStream(filename string, r io.Reader, limit int64) (string, int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type attachmentLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
}

// AttachmentConfig tunes upload validation and download links.
type AttachmentConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// AttachmentService stores booking uploads and serves them behind signed links.
type AttachmentService struct {
	storage      attachmentStorage
	appointments attachmentLookup
	signer       *storage.SignedURLSigner
	allowed      map[string]struct{}
	cfg          AttachmentConfig
	logger       *zap.Logger
}

// AttachmentDownload is a resolved attachment ready to stream.
type AttachmentDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(store attachmentStorage, appointments attachmentLookup, signer *storage.SignedURLSigner, cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/png"}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(mime)] = struct{}{}
	}
	return &AttachmentService{
		storage:      store,
		appointments: appointments,
		signer:       signer,
		allowed:      allowed,
		cfg:          cfg,
		logger:       logger,
	}
}

// Store validates one upload by size and sniffed content type and saves it under a generated name.
func (s *AttachmentService) Store(field models.AttachmentField, size int64, r io.Reader) (string, error) {
	if !field.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "Invalid field")
	}
	if size > s.cfg.MaxFileSize {
		return "", s.tooLarge()
	}

	buffered := bufio.NewReaderSize(r, sniffLen)
	head, err := buffered.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read upload")
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(http.DetectContentType(head), ";")[0]))
	if _, ok := s.allowed[mime]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "Only PDF or PNG files are allowed")
	}
	ext, ok := mimeExtensions[mime]
	if !ok {
		ext = filepath.Ext(mime)
	}

	name := fmt.Sprintf("%s_%s%s", field, uuid.NewString(), ext)
	relPath, _, err := s.storage.SaveStream(name, buffered, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", s.tooLarge()
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}
	return relPath, nil
}

// Discard removes stored uploads, e.g. after a booking was rejected.
func (s *AttachmentService) Discard(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.storage.Delete(p); err != nil {
			s.logger.Warn("failed to discard attachment", zap.String("path", p), zap.Error(err))
		}
	}
}

// Link returns a signed download URL for an appointment attachment.
func (s *AttachmentService) Link(appointmentID int64, field models.AttachmentField, relPath string) (string, error) {
	token, _, err := s.signer.Generate(attachmentSubject(appointmentID, field), relPath)
	if err != nil {
		return "", err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	return fmt.Sprintf("%s/attachments/%d/%s?token=%s", prefix, appointmentID, field, url.QueryEscape(token)), nil
}

// Open resolves a signed attachment link to a readable file.
func (s *AttachmentService) Open(ctx context.Context, appointmentID int64, field models.AttachmentField, token string) (*AttachmentDownload, error) {
	if !field.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid field")
	}
	subject, relPath, _, err := s.signer.Parse(token, false)
	if err != nil || subject != attachmentSubject(appointmentID, field) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired attachment link")
	}

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	stored := appt.PathOf(field)
	if stored == nil || *stored != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "File not found")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "File not found")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat attachment")
	}

	contentType := "application/octet-stream"
	for mime, ext := range mimeExtensions {
		if strings.EqualFold(filepath.Ext(relPath), ext) {
			contentType = mime
		}
	}
	return &AttachmentDownload{
		File:        file,
		Filename:    filepath.Base(relPath),
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

func (s *AttachmentService) tooLarge() *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d MB limit", s.cfg.MaxFileSize/(1024*1024)))
}

func attachmentSubject(appointmentID int64, field models.AttachmentField) string {
	return fmt.Sprintf("%d-%s", appointmentID, field)
}
