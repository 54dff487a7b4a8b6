package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/dto"
	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

const blockFieldsRequired = "facultyId, date, time are required."

type blockStore interface {
	Create(ctx context.Context, block *models.BlockedSlot) (bool, error)
	List(ctx context.Context, facultyID int64, date string) ([]models.BlockedSlot, error)
	Delete(ctx context.Context, facultyID int64, date, slot string) (int64, error)
}

// BlockService manages provider-declared slot unavailability.
type BlockService struct {
	store     blockStore
	catalog   SlotCatalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockService constructs a BlockService.
func NewBlockService(store blockStore, catalog SlotCatalog, validate *validator.Validate, logger *zap.Logger) *BlockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BlockService{store: store, catalog: catalog, validator: validate, logger: logger}
}

// Block marks a slot unavailable. Blocking twice is not an error; created reports which case applied.
func (s *BlockService) Block(ctx context.Context, req dto.BlockRequest) (*models.BlockedSlot, bool, error) {
	if err := s.validate(&req); err != nil {
		return nil, false, err
	}
	block := &models.BlockedSlot{FacultyID: req.FacultyID, Date: req.Date, Time: req.Time}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		block.Reason = &reason
	}
	created, err := s.store.Create(ctx, block)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to block slot")
	}
	if created {
		s.logger.Info("slot blocked", zap.Int64("faculty_id", block.FacultyID), zap.String("date", block.Date), zap.String("time", block.Time))
	}
	return block, created, nil
}

// List returns a provider's blocks, optionally for one date.
func (s *BlockService) List(ctx context.Context, query dto.BlockListQuery) ([]models.BlockedSlot, error) {
	if query.FacultyID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facultyId required")
	}
	date := strings.TrimSpace(query.Date)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
	}
	blocks, err := s.store.List(ctx, query.FacultyID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	if blocks == nil {
		blocks = []models.BlockedSlot{}
	}
	return blocks, nil
}

// Unblock removes a block and reports whether one existed.
func (s *BlockService) Unblock(ctx context.Context, req dto.BlockRequest) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, blockFieldsRequired)
	}
	removed, err := s.store.Delete(ctx, req.FacultyID, strings.TrimSpace(req.Date), strings.TrimSpace(req.Time))
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unblock slot")
	}
	return removed > 0, nil
}

func (s *BlockService) validate(req *dto.BlockRequest) error {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, blockFieldsRequired)
	}
	return s.catalog.ValidateSlot(req.Date, req.Time)
}
