package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/psuflow/psuflow-api/internal/models"
	appErrors "github.com/psuflow/psuflow-api/pkg/errors"
)

type announcementRepository interface {
	Latest(ctx context.Context) (*models.Announcement, error)
}

// AnnouncementService serves dashboard announcements.
type AnnouncementService struct {
	repo   announcementRepository
	logger *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, logger: logger}
}

// Latest returns the newest active announcement, or nil when there is none.
func (s *AnnouncementService) Latest(ctx context.Context) (*models.Announcement, error) {
	ann, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return ann, nil
}
